package momentd_config

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

// WindowCfg pins the daily posting window to a civil timezone.
type WindowCfg struct {
	Timezone  string `mapstructure:"timezone"`
	StartHour int    `mapstructure:"start_hour"`
	EndHour   int    `mapstructure:"end_hour"`
}

type SchedCfg struct {
	TickSpec      string        `mapstructure:"tick_spec"`
	ReminderSpec  string        `mapstructure:"reminder_spec"`
	ReminderDelay time.Duration `mapstructure:"reminder_delay"`
	MetricsAddr   string        `mapstructure:"metrics_addr"`
}

type FanoutCfg struct {
	BaseURL     string        `mapstructure:"base_url"`
	Workers     int           `mapstructure:"workers"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

type KafkaCfg struct {
	Enable  bool     `mapstructure:"enable"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (lc *Log) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  lc.Level,
		Pretty: lc.Pretty,
		App:    "crewnow/momentd",
	}
}

type Config struct {
	App    App               `mapstructure:"app"`
	DB     pginfra.Config    `mapstructure:"db"`
	Window WindowCfg         `mapstructure:"window"`
	Sched  SchedCfg          `mapstructure:"sched"`
	Fanout FanoutCfg         `mapstructure:"fanout"`
	SMTP   fanout.SMTPConfig `mapstructure:"smtp"`
	Ntfy   fanout.NtfyConfig `mapstructure:"ntfy"`
	Kafka  KafkaCfg          `mapstructure:"kafka"`
	OTEL   obs.OTELConfig    `mapstructure:"otel"`
	Log    Log               `mapstructure:"log"`
}
