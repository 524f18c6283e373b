package dataset_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"olistcli/internal/dataset"
	"olistcli/internal/shared/testutil"
)

func TestLoader_LoadsAllTables(t *testing.T) {
	dir := t.TempDir()
	sample := testutil.SampleTables()
	testutil.WriteRawCSV(t, dir, sample)

	logger, _ := testutil.NewCaptureLogger()
	result, err := dataset.NewLoader(dir, 4, logger).Load(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Issues)
	assert.Len(t, result.Tables.Loaded(), len(dataset.AllTables))
	for _, table := range dataset.AllTables {
		assert.Equal(t, sample.Len(table), result.Tables.Len(table), table)
		assert.Equal(t, dataset.EncodingUTF8, result.Encodings[table], table)
	}

	first := result.Tables.Orders[0]
	assert.Equal(t, "order-000", first.OrderID)
	assert.True(t, first.PurchaseTimestamp.Equal(testutil.SampleStart))
	require.NotNil(t, first.DeliveredCustomerDate)
	assert.False(t, result.Tables.Derived)
}

func TestLoader_MissingAndEmptyFilesAreSkipped(t *testing.T) {
	dir := t.TempDir()
	sample := testutil.SampleTables()
	testutil.WriteRawCSV(t, dir, sample)

	require.NoError(t, os.Remove(filepath.Join(dir, dataset.SourceFiles[dataset.Sellers])))
	testutil.WriteCSV(t, filepath.Join(dir, dataset.SourceFiles[dataset.Reviews]),
		dataset.Header(dataset.Reviews, false), nil)

	logger, logs := testutil.NewCaptureLogger()
	result, err := dataset.NewLoader(dir, 2, logger).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Issues, 2)
	skipped := map[dataset.Table]error{}
	for _, issue := range result.Issues {
		skipped[issue.Table] = issue.Err
	}
	assert.ErrorIs(t, skipped[dataset.Sellers], dataset.ErrFileNotFound)
	assert.ErrorIs(t, skipped[dataset.Reviews], dataset.ErrEmptyFile)

	assert.False(t, result.Tables.Has(dataset.Sellers))
	assert.False(t, result.Tables.Has(dataset.Reviews))
	assert.True(t, result.Tables.Has(dataset.Orders))
	assert.True(t, logs.Contains(slog.LevelWarn, "Skipping table"))
}

func TestLoader_Latin1Fallback(t *testing.T) {
	dir := t.TempDir()

	content := "customer_id,customer_unique_id,customer_zip_code_prefix,customer_city,customer_state\n" +
		"c1,u1,01001,são paulo,SP\n"
	encoded, err := charmap.ISO8859_1.NewEncoder().String(content)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, dataset.SourceFiles[dataset.Customers]), []byte(encoded), 0644))

	result, err := dataset.NewLoader(dir, 1, nil).Load(context.Background())
	require.NoError(t, err)

	require.True(t, result.Tables.Has(dataset.Customers))
	assert.Equal(t, dataset.EncodingLatin1, result.Encodings[dataset.Customers])
	assert.Equal(t, "são paulo", result.Tables.Customers[0].City)
}

func TestLoader_RejectsOrdersWithoutPurchaseTimestamp(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteCSV(t, filepath.Join(dir, dataset.SourceFiles[dataset.Orders]),
		dataset.Header(dataset.Orders, false),
		[][]string{
			{"o1", "c1", "delivered", "2017-10-02 10:56:33", "", "", "2017-10-10 21:25:13", "2017-10-18 00:00:00"},
			{"o2", "c2", "delivered", "not a date", "", "", "", ""},
		})

	result, err := dataset.NewLoader(dir, 1, nil).Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Tables.Orders, 1)
	assert.Equal(t, 1, result.Rejected[dataset.Orders])
	assert.Nil(t, result.Tables.Orders[0].ApprovedAt)
}

func TestLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := dataset.NewLoader(t.TempDir(), 2, nil).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
