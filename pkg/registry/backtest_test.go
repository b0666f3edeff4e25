package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfoundry/mlgit/pkg/table"
)

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return ts
}

func newBacktest(t *testing.T, keys []string, preds []string) *table.Table {
	t.Helper()
	require.Equal(t, len(keys), len(preds))
	bt := table.New("date", "pred")
	for i, key := range keys {
		require.NoError(t, bt.AppendRow(mustDay(t, key), []string{preds[i]}))
	}
	return bt
}

func TestTableArtifactRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())

	client := newTestClient(t, newFakeStore())
	ctx := context.Background()

	logged := newBacktest(t, []string{"2023-01-01", "2023-01-02"}, []string{"0.1", "0.2"})
	require.NoError(t, client.LogTableArtifact(ctx, "token", logged, "scores", "m", "v1", table.WriteOptions{}))

	got, err := client.GetTableArtifact(ctx, "scores", "m", "v1", table.ReadOptions{IndexColumn: "date"})
	require.NoError(t, err)

	assert.Equal(t, logged.Columns, got.Columns)
	require.Len(t, got.Rows, 2)
	assert.True(t, got.Rows[0].Key.Equal(logged.Rows[0].Key))
	assert.Equal(t, logged.Rows[1].Cells, got.Rows[1].Cells)
}

func TestGetModelBacktestNeverLogged(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, newFakeStore())

	_, err := client.GetModelBacktest(context.Background(), "m")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogModelBacktestFirstWrite(t *testing.T) {
	t.Chdir(t.TempDir())

	client := newTestClient(t, newFakeStore())
	ctx := context.Background()

	bt := newBacktest(t, []string{"2023-01-01", "2023-01-03", "2023-01-02"}, []string{"0.1", "0.3", "0.2"})
	require.NoError(t, client.LogModelBacktest(ctx, "token", "m", bt, time.Time{}))

	stored, err := client.GetModelBacktest(ctx, "m")
	require.NoError(t, err)

	assert.Equal(t, "date", stored.IndexName)
	require.Len(t, stored.Rows, 3)

	// Defaulted version timestamp is the max index value, on every row.
	maxKey := table.FormatTime(mustDay(t, "2023-01-03"))
	for i := range stored.Rows {
		assert.Equal(t, maxKey, stored.Cell(i, "version_timestamp"))
	}
}

func TestLogModelBacktestDefaultsIndexName(t *testing.T) {
	t.Chdir(t.TempDir())

	client := newTestClient(t, newFakeStore())
	ctx := context.Background()

	bt := table.New("", "pred")
	bt.IndexName = ""
	require.NoError(t, bt.AppendRow(mustDay(t, "2023-01-01"), []string{"0.1"}))

	require.NoError(t, client.LogModelBacktest(ctx, "token", "m", bt, time.Time{}))

	stored, err := client.GetModelBacktest(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, "date", stored.IndexName)
}

func TestLogModelBacktestEmptySeries(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, newFakeStore())

	err := client.LogModelBacktest(context.Background(), "token", "m", table.New("date", "pred"), time.Time{})
	assert.Error(t, err, "no rows and no explicit version timestamp")
}

func TestLogModelBacktestDisjointKeys(t *testing.T) {
	t.Chdir(t.TempDir())

	client := newTestClient(t, newFakeStore())
	ctx := context.Background()

	prior := newBacktest(t, []string{"2023-01-01", "2023-01-02", "2023-01-03"}, []string{"0.1", "0.2", "0.3"})
	require.NoError(t, client.LogModelBacktest(ctx, "token", "m", prior, mustDay(t, "2023-02-01")))

	next := newBacktest(t, []string{"2023-01-05", "2023-01-04"}, []string{"0.5", "0.4"})
	require.NoError(t, client.LogModelBacktest(ctx, "token", "m", next, mustDay(t, "2023-02-02")))

	stored, err := client.GetModelBacktest(ctx, "m")
	require.NoError(t, err)

	require.Len(t, stored.Rows, 5)
	// Sorted ascending, no prior row touched.
	for i, expected := range []string{"0.1", "0.2", "0.3", "0.4", "0.5"} {
		assert.Equal(t, expected, stored.Cell(i, "pred"))
	}
	assert.Equal(t, table.FormatTime(mustDay(t, "2023-02-01")), stored.Cell(0, "version_timestamp"))
	assert.Equal(t, table.FormatTime(mustDay(t, "2023-02-02")), stored.Cell(4, "version_timestamp"))
}

// The overwrite condition is the historical one: a prior row is replaced
// when its key is resubmitted AND the prior row's own version timestamp is
// newer than the submitted one AND the prior key precedes the prior row's
// own version timestamp. The recency test runs against the submitted
// timestamp while the forecast-row gate uses the prior row's own timestamp;
// these tests pin the literal behavior.
func TestLogModelBacktestOverwriteCondition(t *testing.T) {
	t.Chdir(t.TempDir())

	ctx := context.Background()

	// Prior row: key 2023-01-10, vt 2023-03-01 (key < own vt, forecast-like).
	// Submitted: same key, vt 2023-02-01 (older than prior vt) -> replaced.
	client := newTestClient(t, newFakeStore())
	prior := newBacktest(t, []string{"2023-01-10"}, []string{"old"})
	require.NoError(t, client.LogModelBacktest(ctx, "token", "m", prior, mustDay(t, "2023-03-01")))

	next := newBacktest(t, []string{"2023-01-10"}, []string{"new"})
	require.NoError(t, client.LogModelBacktest(ctx, "token", "m", next, mustDay(t, "2023-02-01")))

	stored, err := client.GetModelBacktest(ctx, "m")
	require.NoError(t, err)
	require.Len(t, stored.Rows, 1)
	assert.Equal(t, "new", stored.Cell(0, "pred"))
	assert.Equal(t, table.FormatTime(mustDay(t, "2023-02-01")), stored.Cell(0, "version_timestamp"))
}

func TestLogModelBacktestNoOverwriteWhenPriorOlder(t *testing.T) {
	t.Chdir(t.TempDir())

	ctx := context.Background()

	// Prior vt 2023-02-01 is not strictly newer than submitted vt
	// 2023-03-01 -> the prior row survives.
	client := newTestClient(t, newFakeStore())
	prior := newBacktest(t, []string{"2023-01-10"}, []string{"settled"})
	require.NoError(t, client.LogModelBacktest(ctx, "token", "m", prior, mustDay(t, "2023-02-01")))

	next := newBacktest(t, []string{"2023-01-10"}, []string{"new"})
	require.NoError(t, client.LogModelBacktest(ctx, "token", "m", next, mustDay(t, "2023-03-01")))

	stored, err := client.GetModelBacktest(ctx, "m")
	require.NoError(t, err)
	require.Len(t, stored.Rows, 1)
	assert.Equal(t, "settled", stored.Cell(0, "pred"))
	assert.Equal(t, table.FormatTime(mustDay(t, "2023-02-01")), stored.Cell(0, "version_timestamp"))
}

func TestLogModelBacktestNoOverwriteWhenKeyAfterOwnTimestamp(t *testing.T) {
	t.Chdir(t.TempDir())

	ctx := context.Background()

	// Prior row's key 2023-04-01 is not before its own vt 2023-03-01, so
	// the row is treated as settled history even though the prior vt is
	// newer than the submitted one.
	client := newTestClient(t, newFakeStore())
	prior := newBacktest(t, []string{"2023-04-01"}, []string{"settled"})
	require.NoError(t, client.LogModelBacktest(ctx, "token", "m", prior, mustDay(t, "2023-03-01")))

	next := newBacktest(t, []string{"2023-04-01"}, []string{"new"})
	require.NoError(t, client.LogModelBacktest(ctx, "token", "m", next, mustDay(t, "2023-02-01")))

	stored, err := client.GetModelBacktest(ctx, "m")
	require.NoError(t, err)
	require.Len(t, stored.Rows, 1)
	assert.Equal(t, "settled", stored.Cell(0, "pred"))
}

func TestLogModelBacktestMixedOverwriteAndAppend(t *testing.T) {
	t.Chdir(t.TempDir())

	ctx := context.Background()
	client := newTestClient(t, newFakeStore())

	prior := newBacktest(t,
		[]string{"2023-01-01", "2023-01-10"},
		[]string{"settled", "forecast"},
	)
	require.NoError(t, client.LogModelBacktest(ctx, "token", "m", prior, mustDay(t, "2023-03-01")))

	// Resubmit the forecast key plus a brand new key with an older vt:
	// the forecast row is replaced, the settled row survives (its key is
	// not resubmitted), and the new key is appended.
	next := newBacktest(t,
		[]string{"2023-01-10", "2023-01-05"},
		[]string{"revised", "filled"},
	)
	require.NoError(t, client.LogModelBacktest(ctx, "token", "m", next, mustDay(t, "2023-02-01")))

	stored, err := client.GetModelBacktest(ctx, "m")
	require.NoError(t, err)

	require.Len(t, stored.Rows, 3)
	assert.Equal(t, "settled", stored.Cell(0, "pred"))
	assert.Equal(t, "filled", stored.Cell(1, "pred"))
	assert.Equal(t, "revised", stored.Cell(2, "pred"))

	vtOld := table.FormatTime(mustDay(t, "2023-03-01"))
	vtNew := table.FormatTime(mustDay(t, "2023-02-01"))
	assert.Equal(t, vtOld, stored.Cell(0, "version_timestamp"))
	assert.Equal(t, vtNew, stored.Cell(1, "version_timestamp"))
	assert.Equal(t, vtNew, stored.Cell(2, "version_timestamp"))
}

func TestLogModelBacktestNewColumns(t *testing.T) {
	t.Chdir(t.TempDir())

	ctx := context.Background()
	client := newTestClient(t, newFakeStore())

	prior := newBacktest(t, []string{"2023-01-01"}, []string{"0.1"})
	require.NoError(t, client.LogModelBacktest(ctx, "token", "m", prior, mustDay(t, "2023-02-01")))

	next := table.New("date", "pred", "confidence")
	require.NoError(t, next.AppendRow(mustDay(t, "2023-01-02"), []string{"0.2", "0.9"}))
	require.NoError(t, client.LogModelBacktest(ctx, "token", "m", next, mustDay(t, "2023-02-02")))

	stored, err := client.GetModelBacktest(ctx, "m")
	require.NoError(t, err)

	require.Len(t, stored.Rows, 2)
	assert.Equal(t, "", stored.Cell(0, "confidence"), "prior rows get empty cells for new columns")
	assert.Equal(t, "0.9", stored.Cell(1, "confidence"))
}

func TestLogModelBacktestDoesNotMutateInput(t *testing.T) {
	t.Chdir(t.TempDir())

	client := newTestClient(t, newFakeStore())

	bt := newBacktest(t, []string{"2023-01-01"}, []string{"0.1"})
	require.NoError(t, client.LogModelBacktest(context.Background(), "token", "m", bt, time.Time{}))

	assert.Equal(t, []string{"pred"}, bt.Columns, "caller's table is not annotated in place")
}
