// Package stats persists the findings present per repository and aggregates
// them into a markdown report.
package stats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iobroker-bot-orga/check-tasks/internal/finding"
	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

// Entry is one finding of one repository
type Entry struct {
	Issue     string `json:"issue"`
	Adapter   string `json:"adapter"`
	Timestamp string `json:"timestamp"`
}

// Store writes one JSON file per repository, statistics/<ioBroker.name>.json
type Store struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewStore creates a store in dir
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the statistics directory
func (s *Store) Dir() string {
	return s.dir
}

// Record replaces the statistics file of repo with the given findings.
// Entries are keyed by their code, e.g. E123.
func (s *Store) Record(repo tracking.Repository, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().UTC().Format(time.RFC1123)
	entries := make(map[string]Entry)
	for _, key := range keys {
		code, ok := finding.ParseCode(key)
		if !ok {
			slog.Debug("Could not parse finding code", "finding", key)
			continue
		}
		entries[code.String()] = Entry{Issue: key, Adapter: repo.String(), Timestamp: stamp}
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create statistics directory: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal statistics: %w", err)
	}

	filename := filepath.Join(s.dir, repo.Name+".json")
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write statistics file: %w", err)
	}
	slog.Info("Saved statistics", "file", filename, "findings", len(entries))
	return nil
}

// File is the content of one statistics file
type File struct {
	Name    string
	Entries map[string]Entry
}

// ReadAll loads every statistics file in the store directory, ordered by name.
// Files that cannot be parsed are logged and skipped.
func (s *Store) ReadAll() ([]File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read statistics directory: %w", err)
	}

	var files []File
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, de.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", de.Name(), err)
		}
		var entries map[string]Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			slog.Warn("Skipping unparseable statistics file", "file", de.Name(), "error", err)
			continue
		}
		files = append(files, File{Name: strings.TrimSuffix(de.Name(), ".json"), Entries: entries})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
