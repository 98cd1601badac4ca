package mongostore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskvault/internal/store"
	"taskvault/internal/store/storetest"
)

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("TASKVAULT_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TASKVAULT_TEST_MONGO_URI not set")
	}
	storetest.Run(t, func(t *testing.T) store.Store {
		ctx := context.Background()
		s, err := Open(ctx, uri, "taskvault_test_"+uuid.NewString()[:8], zap.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = s.db.Drop(context.Background())
			_ = s.Close()
		})
		require.NoError(t, s.Init(ctx))
		return s
	})
}
