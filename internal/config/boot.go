package config

import "github.com/NARUBROWN/bridge/pkg/boot"

// BootOptions는 설정을 실행 옵션으로 옮깁니다.
// 브로커는 주소가 있을 때만, 소비 설정은 구독 대상이 있을 때만 채워집니다.
func (c Config) BootOptions() boot.Options {
	opts := boot.Options{
		Address:                c.Server.Address,
		ApplicationPath:        c.Server.ApplicationPath,
		EnableGracefulShutdown: c.Server.EnableGracefulShutdown,
		ShutdownTimeout:        c.Server.ShutdownTimeout,
		GracePeriod:            c.Server.GracePeriod,
		WarmUpSingletons:       c.Server.WarmUp,
	}

	if c.Metrics.Enabled {
		opts.Metrics = &boot.MetricsOptions{Path: c.Metrics.Path}
	}

	if k := c.Events.Kafka; len(k.Brokers) > 0 {
		opts.Kafka = &boot.KafkaOptions{
			Brokers: k.Brokers,
			Write:   &boot.KafkaWriteOptions{TopicPrefix: k.TopicPrefix},
		}
		if len(k.Topics) > 0 {
			opts.Kafka.Read = &boot.KafkaReadOptions{
				GroupID:    k.GroupID,
				FromOldest: k.FromOldest,
			}
		}
	}

	if r := c.Events.RabbitMQ; r.URL != "" {
		opts.RabbitMq = &boot.RabbitMqOptions{
			URL: r.URL,
			Write: &boot.RabbitMqWriteOptions{
				Exchange:   r.Exchange,
				RoutingKey: r.RoutingKey,
			},
		}
		if len(r.Bindings) > 0 {
			opts.RabbitMq.Read = &boot.RabbitMqReadOptions{
				Exchange: r.Exchange,
				Queue:    r.Queue,
			}
		}
	}

	return opts
}

// ConsumerTopics는 설정된 브로커에서 구독할 토픽(또는 라우팅 키)을 반환합니다.
func (c Config) ConsumerTopics() []string {
	if len(c.Events.Kafka.Brokers) > 0 {
		return c.Events.Kafka.Topics
	}
	if c.Events.RabbitMQ.URL != "" {
		return c.Events.RabbitMQ.Bindings
	}
	return nil
}
