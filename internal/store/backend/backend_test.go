package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskvault/internal/config"
	"taskvault/internal/store"
	"taskvault/internal/store/filestore"
	"taskvault/internal/store/sqlstore"
)

func TestOpenSelectsDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "a.db")

	st, err := Open(context.Background(), &cfg, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()
	assert.IsType(t, &sqlstore.Store{}, st)

	cfg.Store.Driver = config.DriverFile
	cfg.Store.EncryptionKey = "k"
	st, err = Open(context.Background(), &cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &filestore.Store{}, st)

	cfg.Store.Driver = "cassandra"
	_, err = Open(context.Background(), &cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestHandleRetriesAfterFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = config.DriverFile
	h := store.NewHandle(Opener(&cfg, zap.NewNop()))

	// 空密钥打开失败，不缓存
	_, err := h.Get(context.Background())
	require.Error(t, err)
	assert.False(t, h.Opened())

	cfg.Store.EncryptionKey = "k"
	cfg.Store.FilePath = filepath.Join(t.TempDir(), "v.enc")
	st, err := h.Get(context.Background())
	require.NoError(t, err)
	again, err := h.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, st, again)
	require.NoError(t, h.Close())
	assert.False(t, h.Opened())
}
