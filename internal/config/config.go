package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type AuthConfig struct {
	JWTSecret               string `yaml:"jwt_secret"`
	AppSecret               string `yaml:"app_secret"`
	SessionTTLMinutes       int    `yaml:"session_ttl_minutes"`
	VerificationExpiryHours int    `yaml:"verification_expiry_hours"`
	ResetExpiryHours        int    `yaml:"reset_expiry_hours"`
	BcryptCost              int    `yaml:"bcrypt_cost"`
	FrontendURL             string `yaml:"frontend_url"`
}

func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

func (a AuthConfig) VerificationExpiry() time.Duration {
	return time.Duration(a.VerificationExpiryHours) * time.Hour
}

func (a AuthConfig) ResetExpiry() time.Duration {
	return time.Duration(a.ResetExpiryHours) * time.Hour
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Auth AuthConfig `yaml:"auth"`
}

func LoadConfig() *Config {
	f, err := os.Open("config/config.yaml")
	if err != nil {
		panic("Failed to open config.yaml: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config.yaml: " + err.Error())
	}

	if cfg.Auth.SessionTTLMinutes <= 0 {
		cfg.Auth.SessionTTLMinutes = 60
	}
	if cfg.Auth.VerificationExpiryHours <= 0 {
		cfg.Auth.VerificationExpiryHours = 24
	}
	if cfg.Auth.ResetExpiryHours <= 0 {
		cfg.Auth.ResetExpiryHours = 1
	}
	if cfg.Auth.BcryptCost <= 0 {
		cfg.Auth.BcryptCost = 10
	}
	return &cfg
}
