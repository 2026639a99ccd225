package duckdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/soicau/pkg/analysis"
	"github.com/tunogya/soicau/pkg/data"
	"github.com/tunogya/soicau/pkg/model"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient("")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	require.NoError(t, InitializeSchema(context.Background(), c))
	return c
}

func sampleTable() *model.Table {
	return model.NewTable("thang-01", []string{"Ngày", "2023", "2024"}, [][]string{
		{"01", "00012", "00034"},
		{"02", "00045", ""},
		{"03", "", "00078"},
	})
}

func TestTableRepoRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewTableRepo(newTestClient(t))

	tbl := sampleTable()
	require.NoError(t, repo.Save(ctx, tbl))

	got, err := repo.FetchTable(ctx, tbl.Name)
	require.NoError(t, err)
	assert.Equal(t, tbl.Columns, got.Columns)
	assert.Equal(t, tbl.Rows, got.Rows)
	assert.Equal(t, tbl.Fingerprint(), got.Fingerprint())

	info, err := repo.Info(ctx, tbl.Name)
	require.NoError(t, err)
	assert.Equal(t, model.Sequential, info.Mode)
	assert.Equal(t, 3, info.RowCount)
}

func TestTableRepoSaveReplaces(t *testing.T) {
	ctx := context.Background()
	repo := NewTableRepo(newTestClient(t))

	tbl := sampleTable()
	require.NoError(t, repo.Save(ctx, tbl))

	tbl.Rows = tbl.Rows[:1]
	require.NoError(t, repo.Save(ctx, tbl))

	got, err := repo.FetchTable(ctx, tbl.Name)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"01", "00012", "00034"}}, got.Rows)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestTableRepoNotFound(t *testing.T) {
	repo := NewTableRepo(newTestClient(t))

	_, err := repo.FetchTable(context.Background(), "missing")
	assert.ErrorIs(t, err, data.ErrTableNotFound)
}

func TestTableRepoDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewTableRepo(newTestClient(t))

	require.NoError(t, repo.Save(ctx, sampleTable()))
	require.NoError(t, repo.Delete(ctx, "thang-01"))

	_, err := repo.FetchTable(ctx, "thang-01")
	assert.ErrorIs(t, err, data.ErrTableNotFound)
}

func TestRunRepoSaveIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepo(newTestClient(t))

	tbl := model.NewTable("thang-01", []string{"Ngày", "2023", "2024"}, [][]string{
		{"01", "00012", "00012"},
		{"02", "00034", "00034"},
		{"03", "00056", ""},
	})
	engine := analysis.NewEngine(analysis.Config{PatternCount: 2, ReferenceYear: 2024})
	res, err := engine.Run(tbl, analysis.Request{AnchorRow: 2, PatternCount: 2, ExactMatch: true})
	require.NoError(t, err)
	require.Greater(t, res.TotalMatches(), 0)

	require.NoError(t, repo.Save(ctx, res))
	require.NoError(t, repo.Save(ctx, res))

	count, err := repo.Count(ctx, "thang-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	rec, err := repo.GetByID(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Pattern, rec.Pattern)
	assert.Equal(t, res.TotalMatches(), rec.TotalMatches)
	assert.True(t, rec.ExactMatch)

	sets, err := repo.GetPairSets(ctx, res.RunID)
	require.NoError(t, err)
	require.Len(t, sets, model.NumBuckets)
	for i, want := range res.PairSets() {
		if len(want) == 0 {
			assert.Empty(t, sets[i])
			continue
		}
		assert.Equal(t, want, sets[i])
	}

	runs, err := repo.ListByTable(ctx, "thang-01", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].RunID)
}

func TestRunRepoNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepo(newTestClient(t))

	_, err := repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = repo.GetPairSets(ctx, "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestDropAllTables(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	repo := NewTableRepo(c)
	require.NoError(t, repo.Save(ctx, sampleTable()))

	require.NoError(t, DropAllTables(ctx, c))
	require.NoError(t, InitializeSchema(ctx, c))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
