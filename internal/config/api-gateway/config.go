package api_gateway_config

import (
	"time"

	"github.com/crewnow/crewnow/internal/obs"
	pginfra "github.com/crewnow/crewnow/internal/repository/postgres"
	"github.com/crewnow/crewnow/internal/services/fanout"
)

type App struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type WindowCfg struct {
	Timezone  string `mapstructure:"timezone"`
	StartHour int    `mapstructure:"start_hour"`
	EndHour   int    `mapstructure:"end_hour"`
}

type QuotaCfg struct {
	FastWindow   time.Duration `mapstructure:"fast_window"`
	InWindow     int           `mapstructure:"in_window_limit"`
	OutsideLimit int           `mapstructure:"outside_limit"`
}

type TriggerCfg struct {
	// Token guards the internal trigger endpoint; empty disables it.
	Token string `mapstructure:"token"`
}

type FanoutCfg struct {
	BaseURL     string        `mapstructure:"base_url"`
	Workers     int           `mapstructure:"workers"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (lc *Log) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  lc.Level,
		Pretty: lc.Pretty,
		App:    "crewnow/api-gateway",
	}
}

type Config struct {
	App     App               `mapstructure:"app"`
	Server  Server            `mapstructure:"server"`
	DB      pginfra.Config    `mapstructure:"db"`
	Window  WindowCfg         `mapstructure:"window"`
	Quota   QuotaCfg          `mapstructure:"quota"`
	Trigger TriggerCfg        `mapstructure:"trigger"`
	Fanout  FanoutCfg         `mapstructure:"fanout"`
	SMTP    fanout.SMTPConfig `mapstructure:"smtp"`
	Ntfy    fanout.NtfyConfig `mapstructure:"ntfy"`
	OTEL    obs.OTELConfig    `mapstructure:"otel"`
	Log     Log               `mapstructure:"log"`
}
