package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quantfoundry/mlgit/pkg/table"
)

const (
	// backtestArtifact is the per-model backtest series artifact name.
	backtestArtifact = "backtest"

	// versionTimestampColumn records, per row, the version that produced it.
	versionTimestampColumn = "version_timestamp"

	// defaultIndexName is used when the submitted series has no index name.
	defaultIndexName = "date"
)

// GetModelBacktest reads the model's backtest series: first column promoted
// to the time index, version_timestamp column coerced to timestamps. It
// wraps ErrNotFound when no backtest was ever logged.
func (c *Client) GetModelBacktest(ctx context.Context, modelName string) (*table.Table, error) {
	t, err := c.GetTableArtifact(ctx, backtestArtifact, modelName, "", table.ReadOptions{})
	if err != nil {
		return nil, err
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("backtest for model %q has no columns", modelName)
	}
	if err := t.PromoteIndex(t.Columns[0]); err != nil {
		return nil, fmt.Errorf("failed to index backtest for model %q: %w", modelName, err)
	}
	if err := t.CoerceTimeColumn(versionTimestampColumn); err != nil {
		return nil, fmt.Errorf("invalid %s column in backtest for model %q: %w", versionTimestampColumn, modelName, err)
	}
	return t, nil
}

// LogModelBacktest merges the submitted series into the stored backtest by
// timestamp-windowed overwrite and writes the combined series back
// wholesale. A zero versionTimestamp defaults to the series' maximum index
// key. This is a read-modify-write with no concurrency control; concurrent
// writers for the same model can lose updates.
func (c *Client) LogModelBacktest(ctx context.Context, token, modelName string, backtest *table.Table, versionTimestamp time.Time) error {
	submitted := backtest.Clone()
	if submitted.IndexName == "" {
		submitted.IndexName = defaultIndexName
	}

	vt := versionTimestamp
	if vt.IsZero() {
		max, ok := submitted.MaxKey()
		if !ok {
			return fmt.Errorf("cannot default %s: backtest for model %q has no rows", versionTimestampColumn, modelName)
		}
		vt = max
	}
	submitted.SetConstant(versionTimestampColumn, table.FormatTime(vt))

	prior, err := c.GetModelBacktest(ctx, modelName)
	if errors.Is(err, ErrNotFound) {
		// First write: the submitted series becomes the whole stored series.
		return c.LogTableArtifact(ctx, token, submitted, backtestArtifact, modelName, "", table.WriteOptions{})
	}
	if err != nil {
		return err
	}

	merged, err := mergeBacktest(prior, submitted, vt)
	if err != nil {
		return fmt.Errorf("failed to merge backtest for model %q: %w", modelName, err)
	}
	return c.LogTableArtifact(ctx, token, merged, backtestArtifact, modelName, "", table.WriteOptions{})
}

// mergeBacktest overwrites still-provisional prior rows with the submitted
// series and appends rows for keys the prior series does not have.
//
// A prior row is overwritten when all of:
//   - its key also appears in the submitted series
//   - its own recorded version_timestamp is strictly greater than the
//     submitted series' version timestamp
//   - its key is strictly less than its own recorded version_timestamp
//
// The second condition tests recency against the submitted timestamp while
// the third gates on the prior row's own timestamp. That asymmetry is the
// historical behavior of this registry and is kept as-is.
func mergeBacktest(prior, submitted *table.Table, submittedVT time.Time) (*table.Table, error) {
	vtCol, ok := prior.ColumnIndex(versionTimestampColumn)
	if !ok {
		return nil, fmt.Errorf("stored backtest has no %s column", versionTimestampColumn)
	}

	merged := prior.Clone()

	// Overwrite pass, aligned on the prior series' columns. Columns only
	// present in the submitted series do not participate here.
	for i := range merged.Rows {
		key := merged.Rows[i].Key
		subRow, inSubmitted := submitted.RowIndex(key)
		if !inSubmitted {
			continue
		}
		priorVT, err := table.ParseTime(merged.Rows[i].Cells[vtCol])
		if err != nil {
			return nil, fmt.Errorf("row %s: %w", table.FormatTime(key), err)
		}
		if !priorVT.After(submittedVT) || !key.Before(priorVT) {
			continue
		}
		for j, column := range merged.Columns {
			if subCol, ok := submitted.ColumnIndex(column); ok {
				merged.Rows[i].Cells[j] = submitted.Rows[subRow].Cells[subCol]
			} else {
				merged.Rows[i].Cells[j] = ""
			}
		}
	}

	// Union of columns, prior order first, then append submitted-only keys.
	for _, column := range submitted.Columns {
		merged.EnsureColumn(column)
	}
	for _, row := range submitted.Rows {
		if merged.HasKey(row.Key) {
			continue
		}
		cells := make([]string, len(merged.Columns))
		for j, column := range merged.Columns {
			if subCol, ok := submitted.ColumnIndex(column); ok {
				cells[j] = row.Cells[subCol]
			}
		}
		if err := merged.AppendRow(row.Key, cells); err != nil {
			return nil, err
		}
	}

	merged.SortByKey()
	return merged, nil
}
