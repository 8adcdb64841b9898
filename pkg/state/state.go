package state

import "time"

// State is the checkpoint of a run over one input file.
type State struct {
	// InputPath is the absolute path of the input the checkpoint belongs to.
	InputPath string `json:"input_path"`

	// Offset is the input offset just past the last delivered item.
	Offset int64 `json:"offset"`

	// Line is the number of input lines before Offset.
	Line int64 `json:"line"`

	// Batches counts the batches delivered across all runs.
	Batches uint64 `json:"batches"`

	// UpdatedAt is when the checkpoint was last committed.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsEmpty reports whether no checkpoint was ever committed.
func (s State) IsEmpty() bool {
	return s.InputPath == ""
}

// Commit records one more delivered batch ending at offset and line.
// Batches without items leave the position untouched.
func (s *State) Commit(offset, line int64) {
	if offset > s.Offset {
		s.Offset = offset
		s.Line = line
	}
	s.Batches++
	s.UpdatedAt = time.Now()
}
