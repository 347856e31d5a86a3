package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hallvard/steward/internal/cmdexec"
)

// Store persists and retrieves results by ID.
type Store interface {
	Save(result *cmdexec.Result) error
	Load(id string) (*cmdexec.Result, error)
}

// Archive writes Results as JSON files to a directory, keyed by ID.
// The directory is created lazily on the first Save; when none is
// configured a temp directory is used.
type Archive struct {
	mu  sync.Mutex
	dir string
}

// NewArchive creates an Archive rooted at dir. An empty dir defers to a
// lazily-created temp directory.
func NewArchive(dir string) *Archive {
	return &Archive{dir: dir}
}

// Save writes a Result as a JSON file.
func (a *Archive) Save(result *cmdexec.Result) error {
	dir, err := a.ensureDir()
	if err != nil {
		return err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshalling result %s: %w", result.ID, err)
	}
	path := filepath.Join(dir, result.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing result %s: %w", result.ID, err)
	}
	return nil
}

// Load reads a Result back from disk.
func (a *Archive) Load(id string) (*cmdexec.Result, error) {
	dir, err := a.ensureDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, id+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result %s: %w", id, err)
	}
	var result cmdexec.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshalling result %s: %w", id, err)
	}
	return &result, nil
}

func (a *Archive) ensureDir() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dir != "" {
		if err := os.MkdirAll(a.dir, 0o755); err != nil {
			return "", fmt.Errorf("creating archive directory: %w", err)
		}
		return a.dir, nil
	}
	dir, err := os.MkdirTemp("", "steward-results-*")
	if err != nil {
		return "", fmt.Errorf("creating archive directory: %w", err)
	}
	a.dir = dir
	return dir, nil
}
