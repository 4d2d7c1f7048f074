package api

import "time"

type AnalyticsData struct {
	Id          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	ChartType   string           `json:"chart_type"`
	Data        []AnalyticsPoint `json:"data"`
	Insights    []string         `json:"insights"`
	Confidence  int              `json:"confidence"`
	LastUpdated time.Time        `json:"last_updated"`
}

// AnalyticsPoint is one chart datum. Label is the x axis (month, category,
// priority); the remaining fields are populated per dashboard.
type AnalyticsPoint struct {
	Label          string  `json:"label"`
	Incidents      int     `json:"incidents,omitempty"`
	Resolved       int     `json:"resolved,omitempty"`
	ResolutionTime float64 `json:"resolution_time,omitempty"`
	SuccessRate    float64 `json:"success_rate,omitempty"`
	Value          float64 `json:"value,omitempty"`
}
