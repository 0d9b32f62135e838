// Package config는 YAML 파일, BRIDGE_* 환경 변수, 기본값 순으로 설정을 읽습니다.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/NARUBROWN/bridge/internal/logging"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const EnvPrefix = "BRIDGE"

type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Logging logging.Config `mapstructure:"logging"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
	Events  EventsConfig   `mapstructure:"events"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`

	// ApplicationPath는 레거시 호스트의 가상 경로입니다.
	ApplicationPath        string        `mapstructure:"application_path"`
	EnableGracefulShutdown bool          `mapstructure:"graceful_shutdown"`
	ShutdownTimeout        time.Duration `mapstructure:"shutdown_timeout"`

	// GracePeriod는 코디네이터가 호스티드 서비스를 멈출 때 주는 시간입니다.
	GracePeriod time.Duration `mapstructure:"grace_period"`
	WarmUp      bool          `mapstructure:"warm_up"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type EventsConfig struct {
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

// KafkaConfig는 Brokers가 비어 있으면 비활성입니다.
type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	GroupID     string   `mapstructure:"group_id"`
	Topics      []string `mapstructure:"topics"`
	FromOldest  bool     `mapstructure:"from_oldest"`
}

// RabbitMQConfig는 URL이 비어 있으면 비활성입니다.
type RabbitMQConfig struct {
	URL        string   `mapstructure:"url"`
	Exchange   string   `mapstructure:"exchange"`
	RoutingKey string   `mapstructure:"routing_key"`
	Queue      string   `mapstructure:"queue"`
	Bindings   []string `mapstructure:"bindings"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.application_path", "/")
	v.SetDefault("server.graceful_shutdown", true)
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.grace_period", "10s")
	v.SetDefault("server.warm_up", false)

	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("events.kafka.brokers", []string{})
	v.SetDefault("events.kafka.topic_prefix", "")
	v.SetDefault("events.kafka.group_id", "")
	v.SetDefault("events.kafka.from_oldest", false)
	v.SetDefault("events.kafka.topics", []string{})

	v.SetDefault("events.rabbitmq.url", "")
	v.SetDefault("events.rabbitmq.exchange", "bridge.events")
	v.SetDefault("events.rabbitmq.routing_key", "")
	v.SetDefault("events.rabbitmq.queue", "")
	v.SetDefault("events.rabbitmq.bindings", []string{})
}

// Load는 configPath가 비어 있거나 파일이 없으면 기본값과 환경 변수만 사용합니다.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// 예: BRIDGE_SERVER_ADDRESS=:9090
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("설정 파일을 읽을 수 없습니다: %w", err)
			}
		}
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("설정을 해석할 수 없습니다: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("설정 검증 실패: %w", err)
	}
	return &cfg, nil
}

func Validate(cfg *Config) error {
	var errs []error
	if cfg.Server.Address == "" {
		errs = append(errs, errors.New("server.address가 비어 있습니다"))
	}
	if cfg.Server.ShutdownTimeout < 0 || cfg.Server.GracePeriod < 0 {
		errs = append(errs, errors.New("종료 시간은 음수일 수 없습니다"))
	}
	if !strings.HasPrefix(cfg.Server.ApplicationPath, "/") {
		errs = append(errs, fmt.Errorf("server.application_path는 /로 시작해야 합니다: %q", cfg.Server.ApplicationPath))
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path는 /로 시작해야 합니다: %q", cfg.Metrics.Path))
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	if len(cfg.Events.Kafka.Topics) > 0 && cfg.Events.Kafka.GroupID == "" {
		errs = append(errs, errors.New("events.kafka.topics를 쓰려면 group_id가 필요합니다"))
	}
	if cfg.Events.RabbitMQ.URL != "" && cfg.Events.RabbitMQ.Exchange == "" {
		errs = append(errs, errors.New("events.rabbitmq.exchange가 비어 있습니다"))
	}
	return errors.Join(errs...)
}
