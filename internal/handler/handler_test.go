package handler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kyiku/caritas-study-back/internal/ai"
	"github.com/kyiku/caritas-study-back/internal/logger"
	"github.com/kyiku/caritas-study-back/internal/pool"
	"github.com/kyiku/caritas-study-back/internal/testutil"
)

func newTestPool(t *testing.T) *pool.Pool {
	t.Helper()
	path := filepath.Join(t.TempDir(), "problem_pool.json")
	return pool.New(pool.NewStore(path, logger.NewNop()), logger.NewNop())
}

// newBrokenPool returns a pool whose file path is a directory, so every
// save fails.
func newBrokenPool(t *testing.T) *pool.Pool {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pool_dir")
	require.NoError(t, os.Mkdir(path, 0o755))
	return pool.New(pool.NewStore(path, logger.NewNop()), logger.NewNop())
}

func newTestGenerator(mock *testutil.MockLLMClient) *ai.Generator {
	if mock == nil {
		return ai.NewGenerator(nil, logger.NewNop(), time.Second)
	}
	return ai.NewGenerator(mock, logger.NewNop(), time.Second)
}
