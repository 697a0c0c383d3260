package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// snapshot is the persisted layout: term -> document id -> ordered
// positions, plus per-document lengths so token-less documents survive a
// round trip.
type snapshot struct {
	Index      map[string]map[string][]int `json:"index"`
	DocLengths map[string]int              `json:"doc_lengths"`
	DocCount   int                         `json:"doc_count"`
}

// Save serialises idx. The encoding is deterministic: equal indexes produce
// identical bytes.
func Save(idx *InvertedIndex) ([]byte, error) {
	data, err := json.Marshal(snapshot{
		Index:      idx.postings,
		DocLengths: idx.docLengths,
		DocCount:   len(idx.docLengths),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling index snapshot: %w", err)
	}
	return data, nil
}

// Load parses a snapshot written by Save and recomputes the derived
// statistics. Structurally invalid snapshots are rejected so that a damaged
// cache entry is never served.
func Load(data []byte) (*InvertedIndex, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing index snapshot: %w", err)
	}
	if snap.Index == nil || snap.DocLengths == nil {
		return nil, fmt.Errorf("invalid index snapshot: missing index or doc_lengths")
	}
	if snap.DocCount != len(snap.DocLengths) {
		return nil, fmt.Errorf("invalid index snapshot: doc_count %d but %d documents", snap.DocCount, len(snap.DocLengths))
	}
	idx := newInvertedIndex(snap.Index, snap.DocLengths)
	if err := idx.Verify(); err != nil {
		return nil, fmt.Errorf("invalid index snapshot: %w", err)
	}
	return idx, nil
}

// WriteFile atomically writes the snapshot of idx to path: the data goes to a
// .tmp file first and is renamed on success.
func WriteFile(path string, idx *InvertedIndex) error {
	data, err := Save(idx)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp snapshot file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing snapshot file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing snapshot file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming snapshot file: %w", err)
	}
	return nil
}

// ReadFile loads a snapshot written by WriteFile.
func ReadFile(path string) (*InvertedIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index snapshot %s: %w", path, err)
	}
	return Load(data)
}
