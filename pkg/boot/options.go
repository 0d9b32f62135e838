package boot

import "time"

type Options struct {
	Address string
	// ApplicationPath는 레거시 호스트의 가상 경로입니다. 비어 있으면 "/"
	ApplicationPath        string
	EnableGracefulShutdown bool
	ShutdownTimeout        time.Duration

	// GracePeriod는 코디네이터가 호스티드 서비스를 멈출 때 주는 시간입니다.
	GracePeriod time.Duration

	// WarmUpSingletons가 켜지면 정의의 싱글톤을 첫 요청의 초기화 단계에서 모두 만듭니다.
	WarmUpSingletons bool

	// nil이면 /metrics를 노출하지 않습니다.
	Metrics *MetricsOptions

	Kafka    *KafkaOptions
	RabbitMq *RabbitMqOptions
}

type MetricsOptions struct {
	Path string
}
