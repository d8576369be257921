package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manifest is an append-only list of published game IDs and the file that
// holds each of them, one "<game_id>\t<file>" per line.
//
// A game is only added after its batch file has been renamed into place,
// so every listed game can be found on disk. A crash mid-append can leave a
// partial last line; Open skips lines without a tab.
type Manifest struct {
	mu    sync.RWMutex
	path  string
	file  *os.File
	games map[string]string
}

func OpenManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest path is required")
	}
	games := make(map[string]string)

	if f, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			id, file, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "\t")
			if !ok || id == "" {
				continue
			}
			games[id] = file
		}
		_ = f.Close()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create manifest dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	return &Manifest{path: path, file: file, games: games}, nil
}

func (m *Manifest) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}

// Lookup returns the file holding gameID.
func (m *Manifest) Lookup(gameID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.games[gameID]
	return f, ok
}

func (m *Manifest) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

// Add records that file holds gameIDs and syncs once. IDs already listed
// are skipped.
func (m *Manifest) Add(file string, gameIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return fmt.Errorf("manifest is closed")
	}

	added := 0
	for _, id := range gameIDs {
		if id == "" {
			continue
		}
		if _, ok := m.games[id]; ok {
			continue
		}
		if _, err := fmt.Fprintf(m.file, "%s\t%s\n", id, file); err != nil {
			return fmt.Errorf("append manifest: %w", err)
		}
		m.games[id] = file
		added++
	}
	if added == 0 {
		return nil
	}
	if err := m.file.Sync(); err != nil {
		return fmt.Errorf("sync manifest: %w", err)
	}
	return nil
}
