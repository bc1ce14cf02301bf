package keystore

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

// Entry is one generated credential as written to disk.
type Entry struct {
	Address   string    `json:"address"`
	Secret    string    `json:"secret"`
	CreatedAt time.Time `json:"created_at"`
}

// FileStore appends rotated wallet secrets to a JSON-lines file readable
// only by the owner. Entries are never rewritten or removed.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("keystore: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("keystore: create dir: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Path() string { return s.path }

// Save durably records a secret. It returns only after the line is synced,
// so funds may be moved to address once Save succeeds.
func (s *FileStore) Save(address, secret string) error {
	if address == "" || secret == "" {
		return fmt.Errorf("keystore: address and secret are required")
	}

	line, err := sonic.Marshal(Entry{Address: address, Secret: secret, CreatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("keystore: marshal: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("keystore: open: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("keystore: write: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("keystore: sync: %w", err)
	}
	return f.Close()
}

// Load reads every entry in file order. A missing file yields no entries.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keystore: open: %w", err)
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := sonic.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("keystore: line %d: %w", n, err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("keystore: read: %w", err)
	}
	return out, nil
}
