package api

import (
	"errors"
	"net/http"

	"thinktank-backend/internal/analytics"

	"github.com/go-chi/chi/v5"
)

type AnalyticsService struct {
	engine *analytics.Engine
}

func NewAnalyticsService(engine *analytics.Engine) *AnalyticsService {
	return &AnalyticsService{engine: engine}
}

func (s *AnalyticsService) AddRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/dashboards", RestHandler(s.GetDashboards))
		r.Get("/dashboards/{dashboard_id}", RestHandler(s.GetDashboard))
		r.Post("/refresh", RestHandler(s.Refresh))
	})
}

func (s *AnalyticsService) GetDashboards(r *http.Request) (any, error) {
	dashboards, err := s.engine.GetDashboards(r.Context())
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error building dashboards: %w", err)
	}
	return dashboards, nil
}

func (s *AnalyticsService) GetDashboard(r *http.Request) (any, error) {
	dashboardId := chi.URLParam(r, "dashboard_id")

	data, err := s.engine.GetDashboard(r.Context(), dashboardId)
	if errors.Is(err, analytics.ErrUnknownDashboard) {
		return nil, CodedErrorf(http.StatusNotFound, "dashboard %s not found", dashboardId)
	} else if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error building dashboard: %w", err)
	}
	return data, nil
}

func (s *AnalyticsService) Refresh(r *http.Request) (any, error) {
	s.engine.Invalidate()
	return nil, nil
}
