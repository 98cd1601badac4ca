// Package filestore keeps every category and task in one encrypted JSON file.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"taskvault/internal/model"
	"taskvault/internal/store"
	"taskvault/pkg/encrypt"
	"taskvault/pkg/metrics"
)

// record is the on-disk shape of a category; tasks inherit its owner.
type record struct {
	model.Category
	Owner string `json:"owner"`
}

// Store serializes every read-modify-write through one mutex.
// Other processes writing the same file are not coordinated.
type Store struct {
	path   string
	codec  *encrypt.Codec
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

var _ store.Store = (*Store)(nil)

func New(path string, codec *encrypt.Codec, logger *zap.Logger) *Store {
	return &Store{
		path:   path,
		codec:  codec,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Init creates the directory and an empty dataset if the file is missing.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return s.save(nil)
	}
	_, err := s.load()
	return err
}

// Ping fails when the file exists but cannot be decrypted.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load()
	return err
}

func (s *Store) Close() error { return nil }

// EnsureUser is a no-op; ownership lives on each category.
func (s *Store) EnsureUser(ctx context.Context, email string) error { return nil }

func (s *Store) load() ([]record, error) {
	defer observe("load", time.Now())

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return nil, nil
	}

	plain, err := s.codec.Decrypt(string(raw))
	if err != nil {
		s.logger.Error("data file failed to decrypt", zap.String("path", s.path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", store.ErrCorrupt, err)
	}

	var recs []record
	if err := json.Unmarshal([]byte(plain), &recs); err != nil {
		s.logger.Error("data file is not valid JSON", zap.String("path", s.path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", store.ErrCorrupt, err)
	}
	for i := range recs {
		recs[i].Category.Owner = recs[i].Owner
		for j := range recs[i].Tasks {
			recs[i].Tasks[j].Owner = recs[i].Owner
			recs[i].Tasks[j].CategoryID = recs[i].ID
		}
	}
	return recs, nil
}

// save writes to a temp file in the same directory and renames it over the target.
func (s *Store) save(recs []record) error {
	defer observe("save", time.Now())

	if recs == nil {
		recs = []record{}
	}
	plain, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encoding data: %w", err)
	}
	sealed, err := s.codec.Encrypt(string(plain))
	if err != nil {
		return fmt.Errorf("encrypting data: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(sealed); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing data file: %w", err)
	}
	return nil
}

// mutate loads the dataset, applies fn and saves the result when fn succeeds.
func (s *Store) mutate(fn func(recs []record) ([]record, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.load()
	if err != nil {
		return err
	}
	recs, err = fn(recs)
	if err != nil {
		return err
	}
	return s.save(recs)
}

func (s *Store) read() ([]record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func find(recs []record, owner, id string) int {
	for i := range recs {
		if recs[i].ID == id && recs[i].Owner == owner {
			return i
		}
	}
	return -1
}

func observe(operation string, start time.Time) {
	metrics.RecordDBQueryDuration(operation, "file", time.Since(start))
}
