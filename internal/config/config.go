package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Backend  BackendConfig
	Progress ProgressConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
	DownloadDir string
}

type BackendConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	// Analysis runs long on the backend; it gets its own, larger timeout.
	AnalyzeTimeout time.Duration
}

type ProgressConfig struct {
	// When true the cosmetic stage simulation is cancelled as soon as the
	// real analysis call settles. Off by default; the simulation normally
	// runs to completion on its own timers.
	CancelOnSettle bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "regubot_client.log"),
			DownloadDir: getEnv("DOWNLOAD_DIR", "."),
		},
		Backend: BackendConfig{
			BaseURL:        getEnv("REGUBOT_BASE_URL", "http://localhost:5000"),
			RequestTimeout: getEnvAsDuration("REGUBOT_REQUEST_TIMEOUT", 30*time.Second),
			AnalyzeTimeout: getEnvAsDuration("REGUBOT_ANALYZE_TIMEOUT", 300*time.Second),
		},
		Progress: ProgressConfig{
			CancelOnSettle: getEnvAsBool("PROGRESS_CANCEL_ON_SETTLE", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
