package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/jonathan/apply-agent/internal/schemas"
	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

// lockRetry is how often a contended file lock is retried.
const lockRetry = 50 * time.Millisecond

// FileStore persists records as a JSON array. Every append rewrites the file through a
// temp file, fsync and rename while holding an exclusive lock on "<path>.lock", so the
// file on disk always holds either the old or the new array.
type FileStore struct {
	path      string
	lock      *flock.Flock
	validator *schemas.Validator
	logger    *zap.Logger
}

// NewFileStore returns a store for path. The file need not exist yet.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if path == "" {
		return nil, &StoreError{Op: "open", Message: "ledger path is empty"}
	}
	v, err := schemas.Ledger()
	if err != nil {
		return nil, &StoreError{Op: "open", Message: "ledger schema unavailable", Cause: err}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{
		path:      path,
		lock:      flock.New(path + ".lock"),
		validator: v,
		logger:    logger,
	}, nil
}

// Path returns the ledger file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) ([]types.ApplicationRecord, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()
	return s.read()
}

func (s *FileStore) Append(ctx context.Context, rec types.ApplicationRecord) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	recs, err := s.read()
	if err != nil {
		return err
	}
	recs = append(recs, rec)

	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return &StoreError{Op: "append", Message: "failed to encode records", Cause: err}
	}
	return s.writeAtomic(append(data, '\n'))
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) acquire(ctx context.Context) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &StoreError{Op: "lock", Message: "failed to create ledger directory", Cause: err}
		}
	}
	ok, err := s.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return &StoreError{Op: "lock", Message: "failed to lock " + s.lock.Path(), Cause: err}
	}
	if !ok {
		return &StoreError{Op: "lock", Message: "could not lock " + s.lock.Path()}
	}
	return nil
}

func (s *FileStore) release() {
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to unlock ledger", zap.String("path", s.lock.Path()), zap.Error(err))
	}
}

// read loads the current file. A missing or blank file is an empty ledger. A file that
// fails schema validation is an error so it is never overwritten.
func (s *FileStore) read() ([]types.ApplicationRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "load", Message: "failed to read " + s.path, Cause: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if err := s.validator.Validate(data); err != nil {
		return nil, &StoreError{Op: "load", Message: s.path + " is not a valid ledger", Cause: err}
	}

	var raw []fileRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &StoreError{Op: "load", Message: "failed to decode " + s.path, Cause: err}
	}
	recs := make([]types.ApplicationRecord, 0, len(raw))
	for i, r := range raw {
		at, err := parseTimestamp(r.AppliedAt)
		if err != nil {
			return nil, &StoreError{Op: "load", Message: fmt.Sprintf("record %d has a bad applied_at", i), Cause: err}
		}
		recs = append(recs, types.ApplicationRecord{
			Title:           r.Title,
			Company:         r.Company,
			URL:             r.URL,
			AppliedAt:       at,
			Signature:       r.Signature,
			ApplicationType: types.ApplicationType(r.ApplicationType),
		})
	}
	return recs, nil
}

func (s *FileStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &StoreError{Op: "append", Message: "failed to create temp file", Cause: err}
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &StoreError{Op: "append", Message: "failed to write temp file", Cause: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &StoreError{Op: "append", Message: "failed to sync temp file", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &StoreError{Op: "append", Message: "failed to close temp file", Cause: err}
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return &StoreError{Op: "append", Message: "failed to replace " + s.path, Cause: err}
	}
	committed = true

	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// fileRecord decodes applied_at as text so naive ISO-8601 timestamps are accepted.
type fileRecord struct {
	Title           string `json:"title"`
	Company         string `json:"company"`
	URL             string `json:"url"`
	AppliedAt       string `json:"applied_at"`
	Signature       string `json:"signature"`
	ApplicationType string `json:"application_type"`
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// parseTimestamp accepts RFC 3339 and timestamps without a zone, read as local time.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
