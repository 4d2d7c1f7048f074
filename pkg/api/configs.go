package api

import "time"

type SaveConfigRequest struct {
	ConfigName  string `json:"config_name"`
	ApiKey      string `json:"api_key"`
	EndpointUrl string `json:"endpoint_url"`
}

// ApiConfig never echoes the stored key back in full.
type ApiConfig struct {
	ConfigName  string    `json:"config_name"`
	EndpointUrl string    `json:"endpoint_url"`
	MaskedKey   string    `json:"masked_key"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type GetConfigsResponse struct {
	Configs []ApiConfig `json:"configs"`
}
