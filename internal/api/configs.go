package api

import (
	"errors"
	"net/http"
	"strings"

	"thinktank-backend/internal/database"
	"thinktank-backend/internal/session"
	"thinktank-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// ConfigsService stores per-user upstream API credentials. Stored keys are
// only ever returned masked.
type ConfigsService struct {
	db *gorm.DB
}

func NewConfigsService(db *gorm.DB) *ConfigsService {
	return &ConfigsService{db: db}
}

func (s *ConfigsService) AddRoutes(r chi.Router) {
	r.Route("/configs", func(r chi.Router) {
		r.Get("/", RestHandler(s.GetConfigs))
		r.Post("/", RestHandler(s.SaveConfig))
		r.Delete("/{config_name}", RestHandler(s.DeleteConfig))
	})
}

// requireUser rejects anonymous callers. Credentials are always tied to a
// real user identity.
func requireUser(r *http.Request) (string, error) {
	userId := UserId(r)
	if userId == session.AnonymousOwner {
		return "", CodedErrorf(http.StatusUnauthorized, "a user id is required to manage API configs")
	}
	return userId, nil
}

func (s *ConfigsService) GetConfigs(r *http.Request) (any, error) {
	userId, err := requireUser(r)
	if err != nil {
		return nil, err
	}

	configs, err := database.GetApiConfigs(s.db, userId)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error listing configs: %w", err)
	}

	out := make([]api.ApiConfig, 0, len(configs))
	for _, config := range configs {
		out = append(out, convertConfig(config))
	}
	return api.GetConfigsResponse{Configs: out}, nil
}

func (s *ConfigsService) SaveConfig(r *http.Request) (any, error) {
	userId, err := requireUser(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.SaveConfigRequest](r)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ConfigName) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "config_name is required")
	}
	if req.ApiKey == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "api_key is required")
	}

	config := database.ApiConfig{
		UserId:   userId,
		Provider: req.ConfigName,
		Endpoint: req.EndpointUrl,
		ApiKey:   req.ApiKey,
	}
	if err := database.SaveApiConfig(s.db, &config); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error saving config: %w", err)
	}

	return convertConfig(config), nil
}

func (s *ConfigsService) DeleteConfig(r *http.Request) (any, error) {
	userId, err := requireUser(r)
	if err != nil {
		return nil, err
	}

	configName := chi.URLParam(r, "config_name")

	config, err := database.GetApiConfig(s.db, userId, configName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, CodedErrorf(http.StatusNotFound, "config %s not found", configName)
	} else if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error loading config: %w", err)
	}

	if err := database.DeleteApiConfig(s.db, config.Id); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error deleting config: %w", err)
	}
	return nil, nil
}

func convertConfig(config database.ApiConfig) api.ApiConfig {
	return api.ApiConfig{
		ConfigName:  config.Provider,
		EndpointUrl: config.Endpoint,
		MaskedKey:   maskKey(config.ApiKey),
		CreatedAt:   config.CreatedAt,
		UpdatedAt:   config.UpdatedAt,
	}
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
