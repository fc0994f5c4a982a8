// Package csvfile reads the registrations table from a local CSV file.
package csvfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"regdash/internal/core"
	"regdash/internal/dataset"
	"regdash/internal/generator"
	ports "regdash/internal/sources"
)

var (
	_ ports.ObservationReader = (*Source)(nil)
	_ ports.ObservationWriter = (*Source)(nil)
)

// Source is a CSV file on disk. When Generate is set and the file does not
// exist, ReadObservations synthesizes a table, writes it to Path and loads it
// back.
type Source struct {
	Path     string
	Generate bool
	Profile  generator.Profile
	Seed     uint64
}

// New returns a source for path without the generate fallback.
func New(path string) *Source {
	return &Source{Path: path}
}

// ReadObservations implements ports.ObservationReader
func (s *Source) ReadObservations(ctx context.Context) ([]core.Observation, error) {
	obs, err := s.read()
	if err == nil {
		return obs, nil
	}
	if !errors.Is(err, fs.ErrNotExist) || !s.Generate {
		return nil, err
	}

	slog.WarnContext(ctx, "Data file not found, generating mock data",
		"path", s.Path, "profile", s.Profile, "seed", s.Seed)
	gen, err := generator.New(s.Profile, s.Seed)
	if err != nil {
		return nil, err
	}
	if err := s.WriteObservations(ctx, gen.Generate()); err != nil {
		return nil, err
	}
	return s.read()
}

func (s *Source) read() ([]core.Observation, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	obs, err := dataset.ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return obs, nil
}

// WriteObservations writes obs to Path, creating parent directories. The file
// is written to a temporary sibling and renamed into place.
func (s *Source) WriteObservations(ctx context.Context, obs []core.Observation) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := dataset.WriteCSV(tmp, obs); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("rename data file: %w", err)
	}
	slog.InfoContext(ctx, "Data file written", "path", s.Path, "rows", len(obs))
	return nil
}
