package gateway

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenKeeper persists the opaque session token between process runs. It is
// the only client-side state outside the backend.
type TokenKeeper interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// MemoryTokenKeeper holds the token in-process only.
type MemoryTokenKeeper struct {
	mu    sync.Mutex
	token string
}

// NewMemoryTokenKeeper returns an empty in-memory keeper.
func NewMemoryTokenKeeper() *MemoryTokenKeeper {
	return &MemoryTokenKeeper{}
}

func (k *MemoryTokenKeeper) Load() (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.token, nil
}

func (k *MemoryTokenKeeper) Save(token string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.token = token
	return nil
}

func (k *MemoryTokenKeeper) Clear() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.token = ""
	return nil
}

// FileTokenKeeper stores the token in a mode-0600 file so a restarted process
// can recover its session.
type FileTokenKeeper struct {
	path string
}

// NewFileTokenKeeper builds a keeper writing to path.
func NewFileTokenKeeper(path string) (*FileTokenKeeper, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("token path is required")
	}
	return &FileTokenKeeper{path: path}, nil
}

func (k *FileTokenKeeper) Load() (string, error) {
	data, err := os.ReadFile(k.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (k *FileTokenKeeper) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(k.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(k.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

func (k *FileTokenKeeper) Clear() error {
	if err := os.Remove(k.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
