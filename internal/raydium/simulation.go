package raydium

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// poolDataMarker prefixes the JSON payload the program logs for SimulateInfo(PoolInfo).
const poolDataMarker = "GetPoolData:"

// poolInfoPayload mirrors the fields of the GetPoolData payload the pricing
// model needs. Pointers distinguish absent fields from zero values.
type poolInfoPayload struct {
	Status         *uint64 `json:"status"`
	CoinDecimals   *uint8  `json:"coin_decimals"`
	PcDecimals     *uint8  `json:"pc_decimals"`
	LpDecimals     *uint8  `json:"lp_decimals"`
	PoolCoinAmount *uint64 `json:"pool_coin_amount"`
	PoolPcAmount   *uint64 `json:"pool_pc_amount"`
	PoolLpSupply   *uint64 `json:"pool_lp_supply"`
}

// DecodePoolInfo extracts a ReserveSnapshot from simulation logs.
func DecodePoolInfo(logs []string) (ReserveSnapshot, error) {
	for _, line := range logs {
		idx := strings.Index(line, poolDataMarker)
		if idx < 0 {
			continue
		}
		return decodePoolInfoLine(line[idx+len(poolDataMarker):])
	}
	return ReserveSnapshot{}, fmt.Errorf("%w: no %s entry in %d log lines",
		ErrMalformedSimulationOutput, poolDataMarker, len(logs))
}

func decodePoolInfoLine(raw string) (ReserveSnapshot, error) {
	raw = strings.TrimSpace(raw)
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return ReserveSnapshot{}, fmt.Errorf("%w: payload is not a JSON object", ErrMalformedSimulationOutput)
	}

	var p poolInfoPayload
	if err := sonic.UnmarshalString(raw[start:end+1], &p); err != nil {
		return ReserveSnapshot{}, fmt.Errorf("%w: %v", ErrMalformedSimulationOutput, err)
	}

	var missing []string
	if p.PoolCoinAmount == nil {
		missing = append(missing, "pool_coin_amount")
	}
	if p.PoolPcAmount == nil {
		missing = append(missing, "pool_pc_amount")
	}
	if p.CoinDecimals == nil {
		missing = append(missing, "coin_decimals")
	}
	if p.PcDecimals == nil {
		missing = append(missing, "pc_decimals")
	}
	if len(missing) > 0 {
		return ReserveSnapshot{}, fmt.Errorf("%w: missing %s",
			ErrMalformedSimulationOutput, strings.Join(missing, ", "))
	}

	return ReserveSnapshot{
		PoolCoinAmount: *p.PoolCoinAmount,
		PoolPcAmount:   *p.PoolPcAmount,
		CoinDecimals:   *p.CoinDecimals,
		PcDecimals:     *p.PcDecimals,
	}, nil
}
