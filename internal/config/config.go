package config

import (
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	ServerAddr           string   `mapstructure:"SERVER_ADDR"`
	DataDir              string   `mapstructure:"DATA_DIR"`
	WorkbookFile         string   `mapstructure:"WORKBOOK_FILE"`
	UploadDir            string   `mapstructure:"UPLOAD_DIR"`
	MaxUploadMB          int      `mapstructure:"MAX_UPLOAD_MB"`
	CORSAllowedOrigins   []string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	StoreBackend         string   `mapstructure:"STORE_BACKEND"`
	SQLitePath           string   `mapstructure:"SQLITE_PATH"`
	MySQLDSN             string   `mapstructure:"MYSQL_DSN"`
	PostgresDSN          string   `mapstructure:"POSTGRES_DSN"`
	MongoURI             string   `mapstructure:"MONGO_URI"`
	MongoDB              string   `mapstructure:"MONGO_DB"`
	CacheBackend         string   `mapstructure:"CACHE_BACKEND"`
	CacheDefaultTTLSec   int      `mapstructure:"CACHE_DEFAULT_TTL_SEC"`
	RedisAddr            string   `mapstructure:"REDIS_ADDR"`
	RedisPassword        string   `mapstructure:"REDIS_PASSWORD"`
	RedisDB              int      `mapstructure:"REDIS_DB"`
	RedisKeyPrefix       string   `mapstructure:"REDIS_KEY_PREFIX"`
	LogLevel             string   `mapstructure:"LOG_LEVEL"`
	LogFormat            string   `mapstructure:"LOG_FORMAT"`
	NotifyWebhookURL     string   `mapstructure:"NOTIFY_WEBHOOK_URL"`
	HttpTimeoutSec       int      `mapstructure:"HTTP_TIMEOUT_SEC"`
	HttpRetryCount       int      `mapstructure:"HTTP_RETRY_COUNT"`
	HttpRetryBaseDelayMs int      `mapstructure:"HTTP_RETRY_BASE_DELAY_MS"`
	HttpRetryMaxDelayMs  int      `mapstructure:"HTTP_RETRY_MAX_DELAY_MS"`
	UploadS3Bucket       string   `mapstructure:"UPLOAD_S3_BUCKET"`
	UploadS3Prefix       string   `mapstructure:"UPLOAD_S3_PREFIX"`
	AdminToken           string   `mapstructure:"ADMIN_TOKEN"`
}

var AppConfig Config

func LoadConfig(path string) error {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// applications.xlsx and uploads/ live in the working directory by default.
	viper.SetDefault("SERVER_ADDR", ":5000")
	viper.SetDefault("DATA_DIR", ".")
	viper.SetDefault("WORKBOOK_FILE", "applications.xlsx")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("MAX_UPLOAD_MB", 20)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("STORE_BACKEND", "file")
	viper.SetDefault("SQLITE_PATH", "data/applications.db")
	viper.SetDefault("MYSQL_DSN", "")
	viper.SetDefault("POSTGRES_DSN", "")
	viper.SetDefault("MONGO_URI", "")
	viper.SetDefault("MONGO_DB", "application_intake")
	viper.SetDefault("CACHE_BACKEND", "memory")
	viper.SetDefault("CACHE_DEFAULT_TTL_SEC", 86400)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_KEY_PREFIX", "application_intake:")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("NOTIFY_WEBHOOK_URL", "")
	viper.SetDefault("HTTP_TIMEOUT_SEC", 10)
	viper.SetDefault("HTTP_RETRY_COUNT", 3)
	viper.SetDefault("HTTP_RETRY_BASE_DELAY_MS", 500)
	viper.SetDefault("HTTP_RETRY_MAX_DELAY_MS", 4000)
	viper.SetDefault("UPLOAD_S3_BUCKET", "")
	viper.SetDefault("UPLOAD_S3_PREFIX", "uploads/")
	// read routes over applicant data stay unregistered while this is empty
	viper.SetDefault("ADMIN_TOKEN", "")

	viper.SetEnvPrefix("APPLICATION_INTAKE")
	viper.AutomaticEnv()

	// If no config file found, just use defaults/env
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return err
	}
	Normalize(&AppConfig)
	return nil
}

func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	if cfg.StoreBackend == "postgresql" {
		cfg.StoreBackend = "postgres"
	}
	if cfg.StoreBackend == "mongo" {
		cfg.StoreBackend = "mongodb"
	}
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.WorkbookFile = strings.TrimSpace(cfg.WorkbookFile)
	cfg.UploadDir = strings.TrimSpace(cfg.UploadDir)
	cfg.AdminToken = strings.TrimSpace(cfg.AdminToken)

	origins := make([]string, 0, len(cfg.CORSAllowedOrigins))
	for _, o := range cfg.CORSAllowedOrigins {
		// env values arrive as one comma separated string
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				origins = append(origins, part)
			}
		}
	}
	cfg.CORSAllowedOrigins = origins
}

// WorkbookPath resolves the backing workbook relative to DATA_DIR unless it is absolute.
func WorkbookPath() string {
	return resolve(AppConfig.WorkbookFile, "applications.xlsx")
}

// UploadPath resolves the upload directory relative to DATA_DIR unless it is absolute.
func UploadPath() string {
	return resolve(AppConfig.UploadDir, "uploads")
}

func resolve(p, fallback string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		p = fallback
	}
	if filepath.IsAbs(p) {
		return p
	}
	dataDir := strings.TrimSpace(AppConfig.DataDir)
	if dataDir == "" {
		dataDir = "."
	}
	return filepath.Join(dataDir, p)
}
