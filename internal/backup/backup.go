// Package backup writes encrypted export snapshots on a cron schedule.
package backup

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
	"time"

	"go.uber.org/zap"

	"taskvault/internal/service/board"
	"taskvault/internal/store"
	"taskvault/pkg/encrypt"
	"taskvault/pkg/metrics"
)

const (
	filePrefix = "taskvault-backup-"
	fileSuffix = ".enc"
	// 文件名按时间字典序排列
	stampLayout = "20060102-150405.000"
)

// Job snapshots one owner's board into dir and keeps the newest files.
type Job struct {
	handle *store.Handle
	owner  string
	dir    string
	keep   int
	codec  *encrypt.Codec
	logger *zap.Logger
	now    func() time.Time
}

func NewJob(handle *store.Handle, owner, dir string, keep int, codec *encrypt.Codec, logger *zap.Logger) *Job {
	if keep <= 0 {
		keep = 5
	}
	return &Job{
		handle: handle,
		owner:  owner,
		dir:    dir,
		keep:   keep,
		codec:  codec,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run writes one snapshot and prunes old ones. It returns the new file path.
func (j *Job) Run(ctx context.Context) (string, error) {
	st, err := j.handle.Get(ctx)
	if err != nil {
		return "", err
	}
	cats, err := st.ListCategories(ctx, j.owner, store.ListOptions{IncludeArchived: true})
	if err != nil {
		return "", fmt.Errorf("read board: %w", err)
	}

	now := j.now()
	raw, err := json.Marshal(board.BuildExport(cats, now))
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	sealed, err := j.codec.Encrypt(string(raw))
	if err != nil {
		return "", fmt.Errorf("encrypt snapshot: %w", err)
	}

	if err := os.MkdirAll(j.dir, 0o700); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(j.dir, filePrefix+now.Format(stampLayout)+fileSuffix)
	if err := os.WriteFile(path, []byte(sealed), 0o600); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	if err := j.prune(); err != nil {
		j.logger.Warn("prune backups failed", zap.Error(err))
	}
	return path, nil
}

// List returns snapshot file names, newest first.
func (j *Job) List() ([]string, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), filePrefix) && strings.HasSuffix(e.Name(), fileSuffix) {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Open decrypts a snapshot written by Run. Unknown names are store.ErrNotFound.
func (j *Job) Open(name string) ([]byte, error) {
	name = filepath.Base(name)
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return nil, store.ErrNotFound
	}
	raw, err := os.ReadFile(filepath.Join(j.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	plain, err := j.codec.Decrypt(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrCorrupt, err)
	}
	return []byte(plain), nil
}

func (j *Job) prune() error {
	names, err := j.List()
	if err != nil {
		return err
	}
	if len(names) <= j.keep {
		return nil
	}
	for _, name := range names[j.keep:] {
		if err := os.Remove(filepath.Join(j.dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// Func adapts the job for the scheduler; failures are logged and counted.
func (j *Job) Func(ctx context.Context) func() {
	return func() {
		path, err := j.Run(ctx)
		if err != nil {
			metrics.IncrementBackupRun("error")
			j.logger.Error("backup failed", zap.Error(err))
			return
		}
		metrics.IncrementBackupRun("ok")
		j.logger.Info("backup written", zap.String("path", path))
	}
}
