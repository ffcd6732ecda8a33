package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveryRunRepository_CreateAndFind(t *testing.T) {
	repo := NewDeliveryRunRepository(TestDB(t))
	ctx := context.Background()

	run := CreateTestDeliveryRun(1, 1200, 2)
	require.NoError(t, repo.Create(ctx, run))
	assert.NotZero(t, run.ID)

	found, err := repo.FindByRunID(ctx, run.RunID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(1200), found.TotalProfit)
	assert.Equal(t, 2, found.EventCount)

	missing, err := repo.FindByRunID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeliveryRunRepository_ListAndRange(t *testing.T) {
	repo := NewDeliveryRunRepository(TestDB(t))
	ctx := context.Background()

	for p := 1; p <= 5; p++ {
		require.NoError(t, repo.Create(ctx, CreateTestDeliveryRun(p, int64(p*100), 1)))
	}

	page := NewPagination(1, 2)
	runs, err := repo.List(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	require.Len(t, runs, 2)
	assert.Equal(t, 5, runs[0].Period)
	assert.Equal(t, 4, runs[1].Period)

	ranged, err := repo.FindByPeriodRange(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, ranged, 3)
	assert.Equal(t, 2, ranged[0].Period)
	assert.Equal(t, 4, ranged[2].Period)
}

func TestDeliveryRunRepository_Summary(t *testing.T) {
	repo := NewDeliveryRunRepository(TestDB(t))
	ctx := context.Background()

	empty, err := repo.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.TotalRuns)
	assert.Zero(t, empty.AverageProfit)

	require.NoError(t, repo.Create(ctx, CreateTestDeliveryRun(1, 1000, 1)))
	require.NoError(t, repo.Create(ctx, CreateTestDeliveryRun(2, -400, 3)))
	require.NoError(t, repo.Create(ctx, CreateTestDeliveryRun(3, 600, 0)))

	summary, err := repo.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TotalRuns)
	assert.Equal(t, int64(2), summary.ProfitableRuns)
	assert.Equal(t, int64(1200), summary.TotalProfit)
	assert.Equal(t, int64(1000), summary.BestProfit)
	assert.Equal(t, int64(-400), summary.WorstProfit)
	assert.Equal(t, int64(4), summary.TotalEvents)
	assert.InDelta(t, 400.0, summary.AverageProfit, 0.001)

	require.NoError(t, repo.DeleteAll(ctx))
	summary, err = repo.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.TotalRuns)
}

func TestPagination(t *testing.T) {
	p := NewPagination(0, 500)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PageSize)
	assert.Equal(t, 0, p.Offset())

	p = NewPagination(3, 20)
	assert.Equal(t, 40, p.Offset())

	p = NewPagination(2, 0)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Equal(t, DefaultPageSize, p.Offset())
}
