package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"thinktank-backend/pkg/api"
)

// DefaultCacheTTL is how long generated insights are reused before a
// dashboard is refreshed.
const DefaultCacheTTL = 12 * time.Hour

var ErrUnknownDashboard = errors.New("unknown dashboard")

// Summarizer turns a dashboard's data into narrative insights. When no
// summarizer is configured the engine serves the static fallback insights.
type Summarizer interface {
	Summarize(ctx context.Context, title string, points []api.AnalyticsPoint) ([]string, error)
}

type cacheEntry struct {
	data      api.AnalyticsData
	expiresAt time.Time
}

type Engine struct {
	mu         sync.Mutex
	cache      map[string]cacheEntry
	summarizer Summarizer
	ttl        time.Duration

	now func() time.Time
}

type EngineOption func(*Engine)

func WithCacheTTL(ttl time.Duration) EngineOption {
	return func(e *Engine) { e.ttl = ttl }
}

func WithSummarizer(s Summarizer) EngineOption {
	return func(e *Engine) { e.summarizer = s }
}

func NewEngine(opts ...EngineOption) *Engine {
	engine := &Engine{
		cache: make(map[string]cacheEntry),
		ttl:   DefaultCacheTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// DashboardIds returns the known dashboard identifiers in display order.
func (e *Engine) DashboardIds() []string {
	defs := dashboards()
	ids := make([]string, 0, len(defs))
	for _, def := range defs {
		ids = append(ids, def.id)
	}
	return ids
}

// GetDashboard returns one dashboard, serving cached insights until the TTL
// lapses.
func (e *Engine) GetDashboard(ctx context.Context, id string) (api.AnalyticsData, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if entry, ok := e.cache[id]; ok && e.now().Before(entry.expiresAt) {
		return entry.data, nil
	}

	for _, def := range dashboards() {
		if def.id != id {
			continue
		}

		data := e.build(ctx, def)
		e.cache[id] = cacheEntry{data: data, expiresAt: e.now().Add(e.ttl)}
		return data, nil
	}

	return api.AnalyticsData{}, ErrUnknownDashboard
}

// GetDashboards returns every dashboard.
func (e *Engine) GetDashboards(ctx context.Context) ([]api.AnalyticsData, error) {
	var out []api.AnalyticsData
	for _, id := range e.DashboardIds() {
		data, err := e.GetDashboard(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

// Invalidate drops any cached insights, forcing a rebuild on next access.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]cacheEntry)
}

func (e *Engine) build(ctx context.Context, def dashboard) api.AnalyticsData {
	insights := def.insights

	if e.summarizer != nil {
		generated, err := e.summarizer.Summarize(ctx, def.title, def.data)
		if err != nil {
			// The static insights are always available, so a summarizer
			// failure degrades rather than fails the dashboard.
			slog.Error("error generating dashboard insights, using fallback", "dashboard", def.id, "error", err)
		} else if len(generated) > 0 {
			insights = generated
		}
	}

	return api.AnalyticsData{
		Id:          def.id,
		Title:       def.title,
		Description: def.description,
		ChartType:   def.chartType,
		Data:        def.data,
		Insights:    insights,
		Confidence:  def.confidence,
		LastUpdated: e.now().UTC(),
	}
}
