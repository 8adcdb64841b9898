package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const stateFileName = "batchby.state.json"

// FileRepository implements Repository with a JSON file in a directory.
type FileRepository struct {
	dir  string
	name string
}

// NewFileRepository stores the checkpoint as batchby.state.json in dir.
func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{dir: dir, name: stateFileName}
}

// NewInputRepository stores the checkpoint of input in dir, under a name
// derived from the input's base name so several inputs can share a directory.
func NewInputRepository(dir, input string) *FileRepository {
	return &FileRepository{dir: dir, name: "." + filepath.Base(input) + ".batchby.json"}
}

// Load retrieves the last saved state from disk.
// Returns an empty state and nil error if no state file exists.
func (r *FileRepository) Load(ctx context.Context) (State, error) {
	path := filepath.Join(r.dir, r.name)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("decode %s: %w", path, err)
	}

	return state, nil
}

// Save writes state to a temp file and renames it into place.
func (r *FileRepository) Save(ctx context.Context, state State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return err
	}

	path := filepath.Join(r.dir, r.name)
	tmp := path + ".tmp"

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// Path returns the full path to the state file.
func (r *FileRepository) Path() string {
	return filepath.Join(r.dir, r.name)
}
