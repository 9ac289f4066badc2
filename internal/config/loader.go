package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/brdata/dqflow/internal/db"
)

// Config is everything a pipeline invocation needs from the environment.
type Config struct {
	Database db.Config `validate:"required"`
	Pipeline Pipeline  `validate:"required"`
}

// Pipeline holds the run-level settings.
type Pipeline struct {
	Name           string `validate:"required"`
	QuarantinePath string `validate:"required"`
}

// DefaultPipeline returns the default pipeline settings.
func DefaultPipeline() Pipeline {
	return Pipeline{
		Name:           "clientes_stage_to_hist",
		QuarantinePath: "data/quarentena_clientes.csv",
	}
}

// Load reads configuration from config.yaml (if present), a .env file (if
// present) and environment variables, in that order of increasing
// precedence. Missing required connection parameters are a fatal
// configuration error: the pipeline never starts.
func Load(configPath string) (Config, error) {
	// Optional .env, mirroring how operators run the pipeline locally.
	_ = godotenv.Load()

	cfg := Config{
		Database: db.DefaultConfig(),
		Pipeline: DefaultPipeline(),
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()     // allow environment overrides
	v.SetEnvPrefix("DB") // map env vars like DB_HOST, DB_PORT

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("pipeline.name")
	v.BindEnv("pipeline.quarantine_path")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Use defaults + env.
		fmt.Println("No config.yaml found, using defaults and env vars")
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("pipeline.name") {
		cfg.Pipeline.Name = v.GetString("pipeline.name")
	}
	if v.IsSet("pipeline.quarantine_path") {
		cfg.Pipeline.QuarantinePath = v.GetString("pipeline.quarantine_path")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
