package testutil_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olistcli/internal/config"
	"olistcli/internal/dataset"
	"olistcli/internal/shared/testutil"
)

func TestWriteRawCSV_CreatesRawDir(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())
	assert.NoDirExists(t, paths.RawDir, "the raw directory is input only")

	ts := testutil.SampleTables()
	testutil.WriteRawCSV(t, paths.RawDir, ts)

	res, err := dataset.NewLoader(paths.RawDir, 2, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Issues)
	assert.Equal(t, ts.Len(dataset.Orders), res.Tables.Len(dataset.Orders))
	assert.Len(t, res.Tables.Loaded(), len(ts.Loaded()))
}
