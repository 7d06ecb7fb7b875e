package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:              "5000",
		FrontendURL:       "http://localhost:5173",
		SQLiteDBPath:      "./test.db",
		JWTSecret:         "0123456789abcdef0123456789abcdef",
		JWTTTL:            7 * 24 * time.Hour,
		AMQPExchange:      "fintrack",
		AMQPQueue:         "transaction_events",
		GeminiModel:       "gemini-2.0-flash",
		AdviceCacheTTL:    time.Hour,
		RecurringCronSpec: "0 0 * * *",
		RequestsPerMinute: 120,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "non-numeric port",
			mutate:  func(c *Config) { c.Port = "abc" },
			wantErr: "invalid port 'abc': must be a number",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Port = "70000" },
			wantErr: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.JWTSecret = "" },
			wantErr: "JWT_SECRET must be set",
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.JWTSecret = "short" },
			wantErr: "JWT_SECRET too short",
		},
		{
			name:    "bad amqp scheme",
			mutate:  func(c *Config) { c.AMQPURL = "http://localhost:5672/" },
			wantErr: "invalid AMQP URL scheme 'http'",
		},
		{
			name: "partial google oauth",
			mutate: func(c *Config) {
				c.GoogleClientID = "id"
			},
			wantErr: "must be set together",
		},
		{
			name:    "bad cron spec",
			mutate:  func(c *Config) { c.RecurringCronSpec = "not a cron line" },
			wantErr: "invalid recurring cron spec",
		},
		{
			name:    "zero requests per minute",
			mutate:  func(c *Config) { c.RequestsPerMinute = 0 },
			wantErr: "invalid requests per minute 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.JWTSecret = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "invalid port") || !strings.Contains(msg, "JWT_SECRET") {
		t.Fatalf("expected both errors reported, got %v", err)
	}
}

func TestOAuthEnabled(t *testing.T) {
	cfg := validConfig()
	if cfg.OAuthEnabled() {
		t.Fatalf("expected oauth disabled")
	}
	cfg.GoogleClientID = "id"
	cfg.GoogleClientSecret = "secret"
	cfg.GoogleRedirectURL = "http://localhost:5000/api/auth/google/callback"
	if !cfg.OAuthEnabled() {
		t.Fatalf("expected oauth enabled")
	}
}
