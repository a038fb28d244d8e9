package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

type Config struct {
	Env      string
	Log      LogConfig
	Database DatabaseConfig
	Recall   RecallConfig
}

type LogConfig struct {
	Level  string
	Format string // "json" or "console"; empty derives from Env
}

type DatabaseConfig struct {
	Type string // "sqlite" or "postgres"
	DSN  string
	Path string // For SQLite: file path
}

type RecallConfig struct {
	DuePolicy  models.DuePolicy
	TuningFile string
	Tuning     Tuning
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	policy, err := models.ParseDuePolicy(getEnv("RECALL_DUE_POLICY", string(models.DuePolicyTime)))
	if err != nil {
		return nil, err
	}

	dbType := getEnv("DB_TYPE", "sqlite")
	if dbType != "sqlite" && dbType != "postgres" {
		return nil, fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}
	dsn, dbPath := buildDSN(dbType)

	cfg := &Config{
		Env: getEnv("ENV", "development"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
		Database: DatabaseConfig{
			Type: dbType,
			DSN:  dsn,
			Path: dbPath,
		},
		Recall: RecallConfig{
			DuePolicy:  policy,
			TuningFile: getEnv("RECALL_TUNING_FILE", ""),
		},
	}

	if cfg.Recall.TuningFile != "" {
		t, err := LoadTuning(cfg.Recall.TuningFile)
		if err != nil {
			return nil, err
		}
		cfg.Recall.Tuning = *t
	}
	return cfg, nil
}

func buildDSN(dbType string) (string, string) {
	if dbType == "postgres" {
		dbHost := getEnv("DB_HOST", "localhost")
		dbPort := getEnv("DB_PORT", "5432")
		dbUser := getEnv("DB_USER", "postgres")
		dbPassword := getEnv("DB_PASSWORD", "postgres")
		dbName := getEnv("DB_NAME", "gaia_recall")
		sslMode := getEnv("DB_SSLMODE", "disable")

		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			dbHost, dbPort, dbUser, dbPassword, dbName, sslMode,
		)
		return dsn, ""
	}

	// SQLite configuration (default for development)
	dbPath := getEnv("SQLITE_PATH", "./data/recall.db")
	dsn := dbPath + "?mode=rwc&cache=shared&timeout=5000"
	return dsn, dbPath
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
