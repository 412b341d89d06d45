package app

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"
)

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL         string `toml:"redis_url"`
		TokenHeader      string `toml:"token_header"`
		TokenKeyTemplate string `toml:"token_key_template"`
	} `toml:"auth"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Email struct {
		SendgridKey string `toml:"sendgrid_key"`
		FromName    string `toml:"from_name"`
		FromEmail   string `toml:"from_email"`
	} `toml:"email"`

	Institute struct {
		Name          string `toml:"name"`
		Address       string `toml:"address"`
		ReportingDate string `toml:"reporting_date"`
	} `toml:"institute"`

	Admissions struct {
		Prefix               string `toml:"prefix"`
		StartingNumber       int    `toml:"starting_number"`
		CountryCode          string `toml:"country_code"`
		ApprovalMode         string `toml:"approval_mode"`
		AutoApprovalDelayMin int    `toml:"auto_approval_delay_minutes"`
		SweepIntervalSec     int    `toml:"sweep_interval_seconds"`
		StaggerSec           int    `toml:"stagger_seconds"`
	} `toml:"admissions"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}
	if config.Admissions.Prefix == "" {
		config.Admissions.Prefix = "EAVI"
	}
	if config.Admissions.StartingNumber < 1 {
		config.Admissions.StartingNumber = 1
	}
	if config.Admissions.CountryCode == "" {
		config.Admissions.CountryCode = "254"
	}
	if config.Admissions.ApprovalMode == "" {
		config.Admissions.ApprovalMode = "manual"
	}
	if config.Admissions.AutoApprovalDelayMin < 1 {
		config.Admissions.AutoApprovalDelayMin = 5
	}
	if config.Admissions.SweepIntervalSec < 1 {
		config.Admissions.SweepIntervalSec = 15
	}
	if config.Admissions.StaggerSec < 1 {
		config.Admissions.StaggerSec = 20
	}

	logger.Debug.Printf("Loaded admissions config: %+v", config.Admissions)

	return &config, nil
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Admissions.SweepIntervalSec) * time.Second
}

func (c *Config) Stagger() time.Duration {
	return time.Duration(c.Admissions.StaggerSec) * time.Second
}

func (c *Config) AutoApprovalDelay() time.Duration {
	return time.Duration(c.Admissions.AutoApprovalDelayMin) * time.Minute
}
