package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/eatsauth/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept both "10s" style strings and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc"`
	MetricsAddr           string         `json:"metrics_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	BcryptCost            int            `json:"bcrypt_cost"`
	LogBackend            string         `json:"log_backend"`
	LogLevel              string         `json:"log_level"`
	MailSender            string         `json:"mail_sender"`
	MailFrom              string         `json:"mail_from"`
	MailVerifyURL         string         `json:"mail_verify_url"`
	MailTimeout           timex.Duration `json:"mail_timeout"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	OTLPEndpoint          string         `json:"otlp_endpoint"`
}

// parseJson overlays values from the JSON file at path onto config. Keys
// missing from the file keep their current values. An empty path is a no-op.
func parseJson(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	*config = fromJson(c)
	return nil
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrGRPC:      c.EndpointAddrGRPC,
		MetricsAddr:           c.MetricsAddr,
		DatabaseDSN:           c.DatabaseDSN,
		SecretKey:             c.SecretKey,
		TokenValidityDuration: timex.Duration{Duration: c.TokenValidityDuration},
		BcryptCost:            c.BcryptCost,
		LogBackend:            c.LogBackend,
		LogLevel:              c.LogLevel,
		MailSender:            c.MailSender,
		MailFrom:              c.MailFrom,
		MailVerifyURL:         c.MailVerifyURL,
		MailTimeout:           timex.Duration{Duration: c.MailTimeout},
		S3RootUser:            c.S3RootUser,
		S3RootPassword:        c.S3RootPassword,
		S3Bucket:              c.S3Bucket,
		S3Region:              c.S3Region,
		S3BaseEndpoint:        c.S3BaseEndpoint,
		OTLPEndpoint:          c.OTLPEndpoint,
	}
}

func fromJson(c *JsonConfig) Config {
	return Config{
		EndpointAddrGRPC:      c.EndpointAddrGRPC,
		MetricsAddr:           c.MetricsAddr,
		DatabaseDSN:           c.DatabaseDSN,
		SecretKey:             c.SecretKey,
		TokenValidityDuration: c.TokenValidityDuration.Duration,
		BcryptCost:            c.BcryptCost,
		LogBackend:            c.LogBackend,
		LogLevel:              c.LogLevel,
		MailSender:            c.MailSender,
		MailFrom:              c.MailFrom,
		MailVerifyURL:         c.MailVerifyURL,
		MailTimeout:           c.MailTimeout.Duration,
		S3RootUser:            c.S3RootUser,
		S3RootPassword:        c.S3RootPassword,
		S3Bucket:              c.S3Bucket,
		S3Region:              c.S3Region,
		S3BaseEndpoint:        c.S3BaseEndpoint,
		OTLPEndpoint:          c.OTLPEndpoint,
	}
}
