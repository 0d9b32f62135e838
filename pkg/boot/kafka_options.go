package boot

import "time"

/*
Kafka 발행/소비 설정입니다.
Read / Write가 nil이면 해당 방향은 활성화되지 않습니다.
*/
type KafkaOptions struct {
	Brokers []string

	Read  *KafkaReadOptions
	Write *KafkaWriteOptions
}

/*
이벤트 발행 설정입니다.
토픽 이름은 TopicPrefix + 이벤트 이름입니다.
*/
type KafkaWriteOptions struct {
	TopicPrefix string

	// 0이면 kafka-go 기본값(10초)
	WriteTimeout time.Duration
	// 배치를 채우지 못했을 때 전송을 미루는 최대 시간. 0이면 kafka-go 기본값
	BatchTimeout time.Duration
}

/*
이벤트 소비 설정입니다.
컨슈머 그룹 단위로 오프셋을 커밋합니다.
*/
type KafkaReadOptions struct {
	GroupID string

	// 커밋된 오프셋이 없을 때 가장 오래된 메시지부터 읽습니다. 기본은 최신 메시지부터입니다.
	FromOldest bool
	// 0이면 kafka-go 기본값(10초)
	MaxWait time.Duration
}
