package main

import (
	"encoding/json"
	"os"
)

type Config struct {
	HttpPort     int    `json:"http_port"`
	DbConnString string `json:"db_conn_string"`
	RedisAddr    string `json:"redis_addr"`

	GatewayBaseURL string `json:"gateway_base_url"`
	GatewaySession string `json:"gateway_session"`
	GatewayToken   string `json:"gateway_token"`

	BlobBaseURL string `json:"blob_base_url"`
	BlobBucket  string `json:"blob_bucket"`
	BlobAPIKey  string `json:"blob_api_key"`

	EmailBaseURL  string `json:"email_base_url"`
	EmailAPIKey   string `json:"email_api_key"`
	EmailFrom     string `json:"email_from"`
	EmailNotifyTo string `json:"email_notify_to"`
	EmailMaxRetry int    `json:"email_max_retry"`

	DefaultSubOriginID int64 `json:"default_sub_origin_id"`
	DefaultPipelineID  int64 `json:"default_pipeline_id"`
}

// ReadConfigJson reads json formatted configuration from the given file
func ReadConfigJson(configFile string) (*Config, error) {
	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}

	cfg := new(Config)

	if err = json.Unmarshal(content, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
