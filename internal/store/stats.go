package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// Stats holds storage statistics for the letters directory.
type Stats struct {
	Dir        string `json:"dir"`
	SizeBytes  int64  `json:"size_bytes"`
	Records    int    `json:"records"`
	Unreadable int    `json:"unreadable"`
	StaleTemps int    `json:"stale_temps"`
}

// Stats scans the letters directory. Stale temps are leftovers of writes
// that never reached the rename.
func (s *FileStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{Dir: s.dir}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return st, err
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		if e.IsDir() {
			continue
		}
		if info, err := e.Info(); err == nil {
			st.SizeBytes += info.Size()
		}
		switch {
		case strings.Contains(e.Name(), tmpMarker):
			st.StaleTemps++
		case isRecord(e.Name()):
			if _, err := readLetter(filepath.Join(s.dir, e.Name())); err != nil {
				st.Unreadable++
			} else {
				st.Records++
			}
		}
	}
	return st, nil
}
