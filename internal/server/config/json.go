package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/dbfiles/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	DatabaseDriver              string         `json:"database_driver"`
	DatabaseDSN                 string         `json:"database_dsn"`
	MirrorEnabled               bool           `json:"mirror_enabled"`
	MirrorBackend               string         `json:"mirror_backend"`
	MirrorRoot                  string         `json:"mirror_root"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Prefix                    string         `json:"s3_prefix"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	S3UsePathStyle              bool           `json:"s3_use_path_style"`
	URLPrefix                   string         `json:"url_prefix"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	MaxMessageSize              int            `json:"max_message_size"`
	LogLevel                    string         `json:"log_level"`
	LogFilePath                 string         `json:"log_file_path"`
	LogMaxSize                  int            `json:"log_max_size"`
	LogMaxBackups               int            `json:"log_max_backups"`
	LogCompress                 bool           `json:"log_compress"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrGRPC:            c.EndpointAddrGRPC,
		EndpointAddrHTTP:            c.EndpointAddrHTTP,
		DatabaseDriver:              c.DatabaseDriver,
		DatabaseDSN:                 c.DatabaseDSN,
		MirrorEnabled:               c.MirrorEnabled,
		MirrorBackend:               c.MirrorBackend,
		MirrorRoot:                  c.MirrorRoot,
		S3RootUser:                  c.S3RootUser,
		S3RootPassword:              c.S3RootPassword,
		S3Bucket:                    c.S3Bucket,
		S3Prefix:                    c.S3Prefix,
		S3Region:                    c.S3Region,
		S3BaseEndpoint:              c.S3BaseEndpoint,
		S3UsePathStyle:              c.S3UsePathStyle,
		URLPrefix:                   c.URLPrefix,
		SecretKey:                   c.SecretKey,
		AccessTokenValidityDuration: timex.Duration{Duration: c.AccessTokenValidityDuration},
		MaxMessageSize:              c.MaxMessageSize,
		LogLevel:                    c.LogLevel,
		LogFilePath:                 c.LogFilePath,
		LogMaxSize:                  c.LogMaxSize,
		LogMaxBackups:               c.LogMaxBackups,
		LogCompress:                 c.LogCompress,
	}
}

// parseJson overlays the JSON file at path onto config. Keys absent from the
// file keep their current values. An empty path loads nothing.
func parseJson(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	config.EndpointAddrGRPC = c.EndpointAddrGRPC
	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDriver = c.DatabaseDriver
	config.DatabaseDSN = c.DatabaseDSN
	config.MirrorEnabled = c.MirrorEnabled
	config.MirrorBackend = c.MirrorBackend
	config.MirrorRoot = c.MirrorRoot
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Prefix = c.S3Prefix
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.S3UsePathStyle = c.S3UsePathStyle
	config.URLPrefix = c.URLPrefix
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.MaxMessageSize = c.MaxMessageSize
	config.LogLevel = c.LogLevel
	config.LogFilePath = c.LogFilePath
	config.LogMaxSize = c.LogMaxSize
	config.LogMaxBackups = c.LogMaxBackups
	config.LogCompress = c.LogCompress
	return nil
}
