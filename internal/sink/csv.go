package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/amishk599/postscout/internal/model"
)

// DefaultCSVPath is the output file used when none is configured.
const DefaultCSVPath = "linkedin_jobs.csv"

const lockRetryDelay = 100 * time.Millisecond

// CSVSink appends posts to a CSV file. Each append rewrites the file with the
// merged rows under an exclusive lock and swaps it into place with a rename.
type CSVSink struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// NewCSVSink returns a sink writing to path.
func NewCSVSink(path string, logger *slog.Logger) *CSVSink {
	if path == "" {
		path = DefaultCSVPath
	}
	return &CSVSink{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}
}

// Append merges posts into the file. On failure the file is untouched and
// every post is returned as unsaved.
func (s *CSVSink) Append(ctx context.Context, posts []model.Post) ([]model.Post, error) {
	if len(posts) == 0 {
		s.logger.Warn("no posts provided for csv export")
		return nil, nil
	}

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return posts, fmt.Errorf("%w: lock %s: %v", ErrPersist, s.path, err)
	}
	defer s.lock.Unlock()

	header, rows, err := readTable(s.path)
	if err != nil {
		return posts, fmt.Errorf("%w: %v", ErrPersist, err)
	}

	records := make([]map[string]string, len(posts))
	for i, p := range posts {
		records[i] = p.Record()
	}
	cols := columns(header, records)

	if err := s.writeAtomic(cols, append(rows, records...)); err != nil {
		return posts, fmt.Errorf("%w: %v", ErrPersist, err)
	}

	if len(rows) == 0 {
		s.logger.Info("saved posts", "path", s.path, "count", len(posts))
	} else {
		s.logger.Info("appended posts", "path", s.path, "count", len(posts), "total", len(rows)+len(posts))
	}
	return nil, nil
}

func (s *CSVSink) writeAtomic(cols []string, rows []map[string]string) (err error) {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	line := make([]string, len(cols))
	for _, row := range rows {
		for i, c := range cols {
			line[i] = row[c]
		}
		if err := w.Write(line); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// Load reads every persisted post back.
func (s *CSVSink) Load(_ context.Context) ([]model.Post, error) {
	return readCSV(s.path)
}

// Close is a no-op; the file is closed after every append.
func (s *CSVSink) Close() error { return nil }

// readCSV reads a posts file written by CSVSink. A missing file yields no posts.
func readCSV(path string) ([]model.Post, error) {
	_, rows, err := readTable(path)
	if err != nil {
		return nil, err
	}
	posts := make([]model.Post, len(rows))
	for i, row := range rows {
		posts[i] = model.PostFromRecord(row)
	}
	return posts, nil
}

// readTable loads the header and rows of path. A missing or empty file is
// not an error.
func readTable(path string) ([]string, []map[string]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	var rows []map[string]string
	for {
		line, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		row := make(map[string]string, len(header))
		for i, c := range header {
			if i < len(line) {
				row[c] = line[i]
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}
