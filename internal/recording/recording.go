// Package recording persists raw scoreboard snapshots for offline replay.
//
// The store is an append-only log on the local filesystem, one file per
// snapshot, optionally gzip-compressed and mirrored to a blob archiver. It is
// written independently of the live pipeline; a recording failure never stops
// processing.
package recording

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

const tsLayout = "20060102T150405.000Z"

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Archiver mirrors snapshot files to remote blob storage.
type Archiver interface {
	Put(ctx context.Context, path string, data []byte) (string, error)
}

// Config captures the parameters for the snapshot store.
type Config struct {
	// BaseDir is the root directory where snapshots are stored.
	BaseDir  string
	Compress bool
}

// Store appends snapshots under <base>/<sport-slug>/<ts>_<id>.html[.gz].
type Store struct {
	baseDir  string
	compress bool
	archiver Archiver
	logger   *zap.Logger
}

// NewStore creates the snapshot store, verifying the base directory is
// usable. The archiver may be nil.
func NewStore(cfg Config, archiver Archiver, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat base directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}
	return &Store{
		baseDir:  cfg.BaseDir,
		compress: cfg.Compress,
		archiver: archiver,
		logger:   logger,
	}, nil
}

// Append writes one snapshot. Archive upload is best-effort: a mirror failure
// is logged and does not fail the append.
func (s *Store) Append(ctx context.Context, ev scoreboard.ChangeEvent) error {
	data := []byte(ev.HTML)
	name := fmt.Sprintf("%s_%s.html", ev.ObservedAt.UTC().Format(tsLayout), ev.ID)
	if s.compress {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return fmt.Errorf("compress snapshot: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("compress snapshot: %w", err)
		}
		data = buf.Bytes()
		name += ".gz"
	}

	rel := filepath.Join(Slug(ev.Sport), name)
	full := filepath.Join(s.baseDir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("create sport directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	if s.archiver != nil {
		if _, err := s.archiver.Put(ctx, rel, data); err != nil {
			s.logger.Warn("snapshot archive upload failed", zap.String("path", rel), zap.Error(err))
		}
	}
	return nil
}

// Snapshot identifies one recorded page.
type Snapshot struct {
	Path       string
	ObservedAt time.Time
}

// List returns the snapshots recorded for a sport on a given day (UTC),
// oldest first.
func (s *Store) List(sport string, day time.Time) ([]Snapshot, error) {
	dir := filepath.Join(s.baseDir, Slug(sport))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sport directory: %w", err)
	}

	dayUTC := day.UTC()
	var out []Snapshot
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		tsPart, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		ts, err := time.Parse(tsLayout, tsPart)
		if err != nil {
			continue
		}
		if ts.Year() != dayUTC.Year() || ts.YearDay() != dayUTC.YearDay() {
			continue
		}
		out = append(out, Snapshot{
			Path:       filepath.Join(dir, name),
			ObservedAt: ts,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObservedAt.Before(out[j].ObservedAt) })
	return out, nil
}

// Read loads one recorded snapshot, transparently decompressing .gz files.
func (s *Store) Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read snapshot: %w", err)
	}
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("decompress snapshot: %w", err)
		}
		defer zr.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(zr); err != nil {
			return "", fmt.Errorf("decompress snapshot: %w", err)
		}
		return buf.String(), nil
	}
	return string(data), nil
}

// Slug normalizes a sport name into a filesystem-safe directory name.
func Slug(sport string) string {
	slug := nonSlug.ReplaceAllString(strings.ToLower(sport), "-")
	return strings.Trim(slug, "-")
}
