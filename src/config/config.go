package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port                string
	DatabasePath        string
	LogLevel            string
	HistoricalRatesPath string
	ReportBackupDir     string
	MaxUploadSizeBytes  int64

	// Upload endpoint throttling.
	UploadRatePerSecond float64
	UploadRateBurst     int
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	uploadRateStr := getEnv("UPLOAD_RATE_PER_SECOND", "2")
	uploadRate, err := strconv.ParseFloat(uploadRateStr, 64)
	if err != nil || uploadRate <= 0 {
		log.Printf("WARNING: Invalid UPLOAD_RATE_PER_SECOND '%s'. Using default 2. Error: %v", uploadRateStr, err)
		uploadRate = 2
	}

	Cfg = &AppConfig{
		Port:                getEnv("PORT", "8080"),
		DatabasePath:        getEnv("DATABASE_PATH", "./investbook.db"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		HistoricalRatesPath: getEnv("HISTORICAL_RATES_PATH", "data/historicalExchangeRate.json"),
		ReportBackupDir:     getEnv("REPORT_BACKUP_DIR", "report-backups"),
		MaxUploadSizeBytes:  maxUploadSizeBytes,
		UploadRatePerSecond: uploadRate,
		UploadRateBurst:     getEnvAsInt("UPLOAD_RATE_BURST", 5),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, BackupDir=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.ReportBackupDir)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}
