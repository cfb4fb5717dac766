// Package settings persists grid export settings as JSON. Files that
// fail to parse or validate are quarantined to a .backup sibling and
// replaced with defaults, so a damaged file never blocks the application.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/wudi/gridpdf/geo"
	"github.com/wudi/gridpdf/observability"
)

// GridSettings are the user-tunable export parameters. JSON field names
// are part of the on-disk format.
type GridSettings struct {
	ColWidthMM  float64 `json:"col_width_mm"`
	RowHeightMM float64 `json:"row_height_mm"`
	GridVisible bool    `json:"grid_line_visible"`
	GridColor   string  `json:"grid_color"`
	GridWidth   int     `json:"grid_width"`
	PageSize    string  `json:"page_size"`
}

// Default returns the settings used when no file exists.
func Default() GridSettings {
	return GridSettings{
		ColWidthMM:  100,
		RowHeightMM: 100,
		GridVisible: true,
		GridColor:   "#000000",
		GridWidth:   1,
		PageSize:    "A4",
	}
}

// Validate checks every field against its allowed range.
func (s GridSettings) Validate() error {
	if s.ColWidthMM <= 0 || s.RowHeightMM <= 0 {
		return fmt.Errorf("cell size must be positive, got %gx%g mm", s.ColWidthMM, s.RowHeightMM)
	}
	if s.GridWidth < 1 {
		return fmt.Errorf("grid line width must be at least 1, got %d", s.GridWidth)
	}
	if _, err := colorful.Hex(s.GridColor); err != nil {
		return fmt.Errorf("grid color %q: %w", s.GridColor, err)
	}
	if _, ok := geo.PageSizeByName(s.PageSize); !ok {
		return fmt.Errorf("unknown page size %q", s.PageSize)
	}
	return nil
}

// Color parses the grid line color. Validate must have passed.
func (s GridSettings) Color() colorful.Color {
	c, err := colorful.Hex(s.GridColor)
	if err != nil {
		return colorful.Color{}
	}
	return c
}

// Store reads and writes one settings file.
type Store struct {
	path string
	log  observability.Logger
}

func NewStore(path string, log observability.Logger) *Store {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Store{path: path, log: log}
}

// Load returns the stored settings. A missing file yields defaults. A
// file that cannot be parsed or validated is moved aside to <path>.backup
// and defaults are returned; the quarantined file is never overwritten
// silently in place.
func (st *Store) Load() (GridSettings, error) {
	data, err := os.ReadFile(st.path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("read settings: %w", err)
	}

	var s GridSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return st.quarantine(fmt.Errorf("parse settings: %w", err))
	}
	if err := s.Validate(); err != nil {
		return st.quarantine(fmt.Errorf("invalid settings: %w", err))
	}
	return s, nil
}

func (st *Store) quarantine(cause error) (GridSettings, error) {
	backup := st.path + ".backup"
	if err := os.Rename(st.path, backup); err != nil {
		st.log.Warn("failed to quarantine settings file",
			observability.String("path", st.path),
			observability.Error("error", err))
		return Default(), cause
	}
	st.log.Warn("quarantined unreadable settings file",
		observability.String("path", st.path),
		observability.String("backup", backup),
		observability.Error("cause", cause))
	return Default(), nil
}

// Save writes the settings atomically. An existing file is copied to
// <path>.backup first.
func (st *Store) Save(s GridSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	if prev, err := os.ReadFile(st.path); err == nil {
		if err := os.WriteFile(st.path+".backup", prev, 0o644); err != nil {
			st.log.Warn("failed to back up settings file",
				observability.String("path", st.path),
				observability.Error("error", err))
		}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(st.path)
	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmpName, st.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
