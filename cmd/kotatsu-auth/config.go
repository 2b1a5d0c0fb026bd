package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type authConfig struct {
	Type     string `yaml:"type"`
	LoginURL string `yaml:"login_url"`
	Domain   string `yaml:"domain"`
	Cookie   string `yaml:"cookie"`
}

type sourceConfig struct {
	ID    string      `yaml:"id"`
	Title string      `yaml:"title"`
	Auth  *authConfig `yaml:"auth"`
}

type cliConfig struct {
	RedisAddr string         `yaml:"redis_addr"`
	UserAgent string         `yaml:"user_agent"`
	AuditLog  string         `yaml:"audit_log"`
	Debug     bool           `yaml:"debug"`
	Sources   []sourceConfig `yaml:"sources"`
}

func loadConfig(path string) (cliConfig, error) {
	var cfg cliConfig

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if addr := os.Getenv("KOTATSU_REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}
	if agent := os.Getenv("KOTATSU_USER_AGENT"); agent != "" {
		cfg.UserAgent = agent
	}

	for _, src := range cfg.Sources {
		if src.ID == "" {
			return cfg, fmt.Errorf("config: source with empty id")
		}
		if src.Auth != nil {
			switch src.Auth.Type {
			case "cookie":
				if src.Auth.Domain == "" || src.Auth.Cookie == "" {
					return cfg, fmt.Errorf("config: source %s: cookie auth needs domain and cookie", src.ID)
				}
			case "token":
			default:
				return cfg, fmt.Errorf("config: source %s: unknown auth type %q", src.ID, src.Auth.Type)
			}
			if src.Auth.LoginURL == "" {
				return cfg, fmt.Errorf("config: source %s: auth needs login_url", src.ID)
			}
		}
	}

	return cfg, nil
}
