package boot

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env    string `env:"ENV,default=dev"`
	Server struct {
		Port        string `env:"PORT,default=3002"`
		MetricsPort string `env:"METRICS_PORT,default=8081"`
		Origins     string `env:"ALLOWED_ORIGINS,default=*"`
	}
	Chain struct {
		Endpoint         string `env:"PROVIDER,default=ws://127.0.0.1:9944"`
		InviterSeed      string `env:"INVITER_KEY,default=//Alice"`
		InvitingMemberID uint64 `env:"INVITING_MEMBER_ID,default=0"`
		AddressPrefix    uint16 `env:"ADDRESS_PREFIX,default=126"`
	}
	Faucet struct {
		TopUpAmount     uint64 `env:"BALANCE_TOP_UP_AMOUNT"`
		CreditAmount    uint64 `env:"BALANCE_CREDIT"`
		MinHandleLength int    `env:"MIN_HANDLE_LENGTH,default=1"`
		MaxHandleLength int    `env:"MAX_HANDLE_LENGTH,default=100"`
	}
	Throttle struct {
		Enabled                bool `env:"ENABLE_API_THROTTLING"`
		GlobalIntervalHours    int  `env:"GLOBAL_API_LIMIT_INTERVAL_HOURS,default=1"`
		GlobalMaxInInterval    int  `env:"GLOBAL_API_LIMIT_MAX_IN_INTERVAL,default=10"`
		PerIPIntervalHours     int  `env:"PER_IP_API_LIMIT_INTERVAL_HOURS,default=48"`
		PerIPMaxInInterval     int  `env:"PER_IP_API_LIMIT_MAX_IN_INTERVAL,default=1"`
		AuthFailureIntervalMin int  `env:"AUTH_FAILURE_LIMIT_INTERVAL_MINUTES,default=60"`
		AuthFailureMax         int  `env:"AUTH_FAILURE_LIMIT_MAX_IN_INTERVAL,default=5"`
	}
	Captcha struct {
		Secret          string `env:"HCAPTCHA_SECRET"`
		Endpoint        string `env:"HCAPTCHA_ENDPOINT,default=https://hcaptcha.com/siteverify"`
		TokenTTLMinutes int    `env:"HCAPTCHA_TOKEN_TTL_MINUTES,default=30"`
	}
	Auth struct {
		BypassKey string `env:"CAPTCHA_BYPASS_KEY"`
	}
	Alerts struct {
		SendgridAPIKey string `env:"SENDGRID_API_KEY"`
		FromEmail      string `env:"ALERT_FROM_EMAIL"`
		ToEmail        string `env:"ALERT_TO_EMAIL"`
		IntervalHours  int    `env:"EMAIL_ALERTS_LIMIT_INTERVAL_HOURS,default=1"`
		MaxInInterval  int    `env:"EMAIL_ALERTS_LIMIT_MAX_IN_INTERVAL,default=5"`
		SendTestOnBoot bool   `env:"SEND_TEST_ALERT"`
	}
	Store struct {
		DatabasePath string `env:"MEMBER_DB,default=members-created.db"`
	}
}

func Load() (*Config, error) {
	config := &Config{}
	if err := envconfig.Process(context.Background(), config); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "dev"
}

func (c *Config) GlobalLimitInterval() time.Duration {
	return time.Duration(c.Throttle.GlobalIntervalHours) * time.Hour
}

func (c *Config) PerIPLimitInterval() time.Duration {
	return time.Duration(c.Throttle.PerIPIntervalHours) * time.Hour
}

func (c *Config) AuthFailureInterval() time.Duration {
	return time.Duration(c.Throttle.AuthFailureIntervalMin) * time.Minute
}

func (c *Config) AlertInterval() time.Duration {
	return time.Duration(c.Alerts.IntervalHours) * time.Hour
}

func (c *Config) CaptchaTokenTTL() time.Duration {
	return time.Duration(c.Captcha.TokenTTLMinutes) * time.Minute
}
