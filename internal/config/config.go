package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
}

type Config struct {
	App struct {
		Name string `yaml:"name"`
		Port string `yaml:"port"`
	} `yaml:"app"`

	Postgres PostgresConfig `yaml:"postgres"`

	MigrationsPath string `yaml:"migrations_path"`
}

// Load reads the YAML config at path (if any) and then applies environment
// overrides. A .env file next to the binary is honored when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to open config file: %w", err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("config: invalid config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.App.Name == "" {
		cfg.App.Name = "shopease"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = "disable"
	}
	if cfg.Postgres.MaxConns == 0 {
		cfg.Postgres.MaxConns = 10
	}
	if cfg.Postgres.MinConns == 0 {
		cfg.Postgres.MinConns = 2
	}
	if cfg.Postgres.MaxConnLifetime == 0 {
		cfg.Postgres.MaxConnLifetime = 30 * time.Minute
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	for name, value := range map[string]string{
		"DB_HOST": cfg.Postgres.Host,
		"DB_PORT": cfg.Postgres.Port,
		"DB_USER": cfg.Postgres.User,
		"DB_NAME": cfg.Postgres.DBName,
	} {
		if value == "" {
			return nil, fmt.Errorf("config: %s is required", name)
		}
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("APP_PORT"); v != "" {
		cfg.App.Port = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		cfg.Postgres.Port = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Postgres.DBName = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("MIGRATIONS_PATH"); v != "" {
		cfg.MigrationsPath = v
	}
}
