package auth_gateway_config

import (
	"time"

	"github.com/NordCoder/Placement/internal/obs"
	pg "github.com/NordCoder/Placement/internal/repository/postgres"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Auth struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	Issuer     string        `mapstructure:"issuer"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

type Outbox struct {
	Enable        bool          `mapstructure:"enable"`
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	Wait          time.Duration `mapstructure:"wait"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type Kafka struct {
	Brokers    []string `mapstructure:"brokers"`
	Topic      string   `mapstructure:"topic"`
	Partitions int      `mapstructure:"partitions"`
}

type Config struct {
	App    App       `mapstructure:"app"`
	Server Server    `mapstructure:"server"`
	DB     pg.Config `mapstructure:"db"`
	OTEL   OTEL      `mapstructure:"otel"`
	Log    Log       `mapstructure:"log"`
	Auth   Auth      `mapstructure:"auth"`
	Outbox Outbox    `mapstructure:"outbox"`
	Kafka  Kafka     `mapstructure:"kafka"`
}

func (c *Config) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }

const (
	ErrNoDSN       ErrConfig = "db.dsn is empty"
	ErrNoJWTSecret ErrConfig = "auth.jwt_secret is empty"
	ErrNoBrokers   ErrConfig = "kafka.brokers is empty while outbox is enabled"
	ErrOutboxWait  ErrConfig = "outbox.wait must be positive while outbox is enabled"
)
