package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_NormalizesBackendsAndOrigins(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	dir := t.TempDir()
	cfg := []byte("STORE_BACKEND: \"PostgreSQL\"\nCACHE_BACKEND: \"Redis\"\nLOG_FORMAT: \"TEXT\"\nCORS_ALLOWED_ORIGINS:\n  - \"https://a.example, https://b.example\"\n  - \" \"\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), cfg, 0644); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(dir); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if AppConfig.StoreBackend != "postgres" {
		t.Fatalf("StoreBackend = %q, want %q", AppConfig.StoreBackend, "postgres")
	}
	if AppConfig.CacheBackend != "redis" {
		t.Fatalf("CacheBackend = %q, want %q", AppConfig.CacheBackend, "redis")
	}
	if AppConfig.LogFormat != "text" {
		t.Fatalf("LogFormat = %q, want %q", AppConfig.LogFormat, "text")
	}
	if len(AppConfig.CORSAllowedOrigins) != 2 || AppConfig.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("CORSAllowedOrigins = %#v", AppConfig.CORSAllowedOrigins)
	}
}

func TestLoadConfig_DefaultsMatchOriginalLayout(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	if err := LoadConfig(t.TempDir()); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got := WorkbookPath(); got != "applications.xlsx" {
		t.Fatalf("WorkbookPath() = %q", got)
	}
	if got := UploadPath(); got != "uploads" {
		t.Fatalf("UploadPath() = %q", got)
	}
	if AppConfig.ServerAddr != ":5000" {
		t.Fatalf("ServerAddr = %q", AppConfig.ServerAddr)
	}
}

func TestWorkbookPath_RelativeToDataDir(t *testing.T) {
	old := AppConfig
	t.Cleanup(func() { AppConfig = old })

	AppConfig = Config{DataDir: "/srv/intake", WorkbookFile: "book.xlsx", UploadDir: "/var/uploads"}
	if got := WorkbookPath(); got != filepath.Join("/srv/intake", "book.xlsx") {
		t.Fatalf("WorkbookPath() = %q", got)
	}
	if got := UploadPath(); got != "/var/uploads" {
		t.Fatalf("UploadPath() = %q", got)
	}
}
