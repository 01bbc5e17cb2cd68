package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"MedFlowScope/internal/model"
)

// FileSource reads a JSON array of raw flow records, the handoff format the
// simulation collaborator (and scripts/flowgen) writes after a run.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading from the given file path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Collect loads and decodes the full record snapshot.
func (s *FileSource) Collect(_ context.Context) ([]*model.RawFlowRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file '%s': %w", s.path, err)
	}

	var recs []*model.RawFlowRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal records file '%s': %w", s.path, err)
	}
	return recs, nil
}
