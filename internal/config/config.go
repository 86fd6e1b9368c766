package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"8800"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Upstream struct {
		BaseURL        string `env:"BASE_URL" envDefault:"http://localhost:8900/api/v1"`
		RequestTimeout int    `env:"REQUEST_TIMEOUT" envDefault:"10"`
	} `envPrefix:"UPSTREAM_"`
	Storage struct {
		Path string `env:"PATH" envDefault:"portal.db"`
	} `envPrefix:"STORAGE_"`
	Bind struct {
		PollInterval int `env:"POLL_INTERVAL" envDefault:"2"` // 秒
	} `envPrefix:"BIND_"`
	Stub struct {
		Port           string `env:"PORT" envDefault:"8900"`
		JWTSecret      string `env:"JWT_SECRET" envDefault:"dev-only-secret"`
		JWTExpiration  int    `env:"JWT_EXPIRATION" envDefault:"1209600"` // 14 天，以秒为单位
		QRTTL          int    `env:"QR_TTL" envDefault:"120"`             // 二维码有效期，以秒为单位
		ScanAfter      int    `env:"SCAN_AFTER" envDefault:"3"`           // 轮询多少次后模拟已扫码
		ConfirmAfter   int    `env:"CONFIRM_AFTER" envDefault:"5"`        // 轮询多少次后模拟确认成功
		InitialAccount struct {
			Phone    string `env:"PHONE" envDefault:"13800000000"`
			Password string `env:"PASSWORD" envDefault:"changeme"`
			Name     string `env:"NAME" envDefault:"王老板"`
		} `envPrefix:"INITIAL_ACCOUNT_"`
	} `envPrefix:"STUB_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
	}

	return cfg, nil
}
