package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rcliao/slowpost/internal/model"
)

const (
	recordExt = ".json"
	tmpMarker = ".tmp-"
)

// FileStore implements LetterStore with one JSON file per letter. Writes go
// to a temporary file in the same directory which is then renamed over the
// record, so a crash leaves either the previous or the new version.
type FileStore struct {
	dir string
	log zerolog.Logger

	// mu serializes read-modify-write cycles.
	mu sync.Mutex

	// rename replaces the record; tests swap it to simulate a crash.
	rename func(oldpath, newpath string) error
}

// NewFileStore opens (creating if needed) a letter directory.
func NewFileStore(dir string, log zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create letters dir: %w", err)
	}
	return &FileStore{
		dir:    dir,
		log:    log.With().Str("component", "filestore").Logger(),
		rename: os.Rename,
	}, nil
}

// Dir is the directory holding the records.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(id string) (string, error) {
	if !validID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(s.dir, id+recordExt), nil
}

func validID(id string) bool {
	if id == "" || id == "." || id == ".." || strings.HasPrefix(id, ".") {
		return false
	}
	return !strings.ContainsAny(id, `/\`+"\x00") && filepath.Base(id) == id
}

func (s *FileStore) Save(ctx context.Context, l *model.Letter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.path(l.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encode letter: %w", err)
	}
	return s.writeAtomic(target, data)
}

func (s *FileStore) writeAtomic(target string, data []byte) (err error) {
	f, err := os.CreateTemp(s.dir, filepath.Base(target)+tmpMarker+"*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				s.log.Warn().Err(rmErr).Str("tmp", tmp).Msg("temp cleanup failed")
			}
		}
	}()

	if _, err = f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err = s.rename(tmp, target); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(target), err)
	}

	// Persist the rename itself. Not every platform allows syncing a directory.
	if d, dErr := os.Open(s.dir); dErr == nil {
		_ = d.Sync()
		d.Close()
	}
	return nil
}

func (s *FileStore) LoadAll(ctx context.Context) ([]model.Letter, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read letters dir: %w", err)
	}

	var letters []model.Letter
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !isRecord(e.Name()) {
			continue
		}
		l, err := readLetter(filepath.Join(s.dir, e.Name()))
		if err != nil {
			s.log.Warn().Err(err).Str("file", e.Name()).Msg("skipping unreadable letter")
			continue
		}
		letters = append(letters, *l)
	}

	sort.SliceStable(letters, func(i, j int) bool {
		if !letters[i].CreatedAt.Equal(letters[j].CreatedAt) {
			return letters[i].CreatedAt.After(letters[j].CreatedAt)
		}
		return letters[i].ID > letters[j].ID
	})
	return letters, nil
}

func isRecord(name string) bool {
	return strings.HasSuffix(name, recordExt) && !strings.HasPrefix(name, ".")
}

func readLetter(path string) (*model.Letter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var l model.Letter
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if l.ID == "" {
		return nil, fmt.Errorf("%w: record has no id", ErrCorrupt)
	}
	return &l, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*model.Letter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	l, err := readLetter(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read letter %s: %w", id, err)
	}
	return l, nil
}

func (s *FileStore) MarkOpened(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if l.OpenedAt != nil {
		return nil
	}
	l.OpenedAt = &at
	return s.Save(ctx, l)
}
