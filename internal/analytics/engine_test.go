package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"thinktank-backend/internal/analytics"
	"thinktank-backend/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSummarizer struct {
	calls    int
	insights []string
	err      error
}

func (s *countingSummarizer) Summarize(ctx context.Context, title string, points []api.AnalyticsPoint) ([]string, error) {
	s.calls++
	return s.insights, s.err
}

func TestGetDashboardUnknownId(t *testing.T) {
	engine := analytics.NewEngine()

	_, err := engine.GetDashboard(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, analytics.ErrUnknownDashboard)
}

func TestGetDashboardFallbackInsights(t *testing.T) {
	engine := analytics.NewEngine()

	data, err := engine.GetDashboard(context.Background(), "incident-trends")
	require.NoError(t, err)

	assert.Equal(t, "Incident Trends", data.Title)
	assert.Equal(t, "line", data.ChartType)
	assert.NotEmpty(t, data.Data)
	assert.NotEmpty(t, data.Insights)
	assert.Greater(t, data.Confidence, 0)
}

func TestGetDashboardsReturnsAll(t *testing.T) {
	engine := analytics.NewEngine()

	all, err := engine.GetDashboards(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 4)

	ids := make([]string, 0, len(all))
	for _, data := range all {
		ids = append(ids, data.Id)
	}
	assert.Equal(t, []string{"incident-trends", "resolution-performance", "category-breakdown", "team-performance"}, ids)
}

func TestGetDashboardCachesInsights(t *testing.T) {
	summarizer := &countingSummarizer{insights: []string{"generated insight"}}
	engine := analytics.NewEngine(analytics.WithSummarizer(summarizer))

	first, err := engine.GetDashboard(context.Background(), "incident-trends")
	require.NoError(t, err)
	assert.Equal(t, []string{"generated insight"}, first.Insights)

	_, err = engine.GetDashboard(context.Background(), "incident-trends")
	require.NoError(t, err)

	assert.Equal(t, 1, summarizer.calls)
}

func TestGetDashboardCacheExpires(t *testing.T) {
	summarizer := &countingSummarizer{insights: []string{"generated insight"}}
	engine := analytics.NewEngine(
		analytics.WithSummarizer(summarizer),
		analytics.WithCacheTTL(time.Nanosecond),
	)

	_, err := engine.GetDashboard(context.Background(), "incident-trends")
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	_, err = engine.GetDashboard(context.Background(), "incident-trends")
	require.NoError(t, err)

	assert.Equal(t, 2, summarizer.calls)
}

func TestGetDashboardSummarizerFailureFallsBack(t *testing.T) {
	summarizer := &countingSummarizer{err: errors.New("llm unavailable")}
	engine := analytics.NewEngine(analytics.WithSummarizer(summarizer))

	data, err := engine.GetDashboard(context.Background(), "resolution-performance")
	require.NoError(t, err)

	assert.NotEmpty(t, data.Insights)
	assert.Equal(t, 1, summarizer.calls)
}

func TestInvalidateForcesRebuild(t *testing.T) {
	summarizer := &countingSummarizer{insights: []string{"generated insight"}}
	engine := analytics.NewEngine(analytics.WithSummarizer(summarizer))

	_, err := engine.GetDashboard(context.Background(), "team-performance")
	require.NoError(t, err)

	engine.Invalidate()

	_, err = engine.GetDashboard(context.Background(), "team-performance")
	require.NoError(t, err)

	assert.Equal(t, 2, summarizer.calls)
}
