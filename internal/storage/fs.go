package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	metadataFile  = "metadata.json"
	segmentsFile  = "segments.csv"
	endStatesFile = "endstates.csv"
	pathsFile     = "paths.csv"
)

// FSStore keeps one directory per run under baseDir.
type FSStore struct {
	baseDir string
}

func NewFS(baseDir string) *FSStore {
	return &FSStore{baseDir: baseDir}
}

func (s *FSStore) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *FSStore) Save(ctx context.Context, rec *Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := prepare(rec); err != nil {
		return "", err
	}

	runDir := filepath.Join(s.baseDir, rec.Meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec.Meta)
	}); err != nil {
		return "", err
	}

	if rec.Segments != nil {
		if err := writeFile(filepath.Join(runDir, segmentsFile), func(w io.Writer) error {
			return WriteSegmentsCSV(w, rec.Segments)
		}); err != nil {
			return "", err
		}
	}
	if rec.EndStates != nil {
		if err := writeFile(filepath.Join(runDir, endStatesFile), func(w io.Writer) error {
			return WriteEndStatesCSV(w, rec.EndStates)
		}); err != nil {
			return "", err
		}
	}
	if len(rec.Paths) > 0 {
		if err := writeFile(filepath.Join(runDir, pathsFile), func(w io.Writer) error {
			return WritePathsCSV(w, rec.Meta.Species, rec.Paths)
		}); err != nil {
			return "", err
		}
	}

	return rec.Meta.ID, nil
}

func (s *FSStore) List(ctx context.Context) ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.loadMeta(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sortRuns(runs)
	return runs, nil
}

func (s *FSStore) Load(ctx context.Context, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	meta, err := s.loadMeta(id)
	if err != nil {
		return nil, err
	}
	rec := &Record{Meta: *meta}
	runDir := filepath.Join(s.baseDir, id)

	err = readFile(filepath.Join(runDir, segmentsFile), func(r io.Reader) error {
		segs, err := readSegmentsCSV(r, len(meta.Species))
		if err != nil {
			return err
		}
		rec.Segments = segmentation(*meta, segs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = readFile(filepath.Join(runDir, endStatesFile), func(r io.Reader) error {
		end, err := readEndStatesCSV(r, meta.Species)
		rec.EndStates = end
		return err
	})
	if err != nil {
		return nil, err
	}

	err = readFile(filepath.Join(runDir, pathsFile), func(r io.Reader) error {
		paths, err := readPathsCSV(r, len(meta.Species))
		rec.Paths = paths
		return err
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *FSStore) Close() error { return nil }

func (s *FSStore) loadMeta(id string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// readFile runs fn over path. A missing file is not an error since runs may
// be saved without every section.
func readFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

var _ Store = (*FSStore)(nil)
