// Package metrics는 브리지 요청 처리와 코디네이터 수명에 대한 Prometheus 지표를 제공합니다.
// 모든 메서드는 nil 수신자에서 아무 일도 하지 않습니다.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bridge"

// 요청 결과 라벨 값
const (
	OutcomeHandled  = "handled"
	OutcomeNotFound = "not_found"
	OutcomeDeferred = "deferred"
	OutcomeError    = "error"
)

type Metrics struct {
	// RequestsTotal은 정의와 결과별로 브리지를 통과한 요청 수입니다.
	RequestsTotal *prometheus.CounterVec

	// InFlight는 현재 파이프라인 안에 있는 요청 수입니다.
	InFlight *prometheus.GaugeVec

	// RequestDuration은 pre-execution부터 end-of-request까지의 시간입니다.
	RequestDuration *prometheus.HistogramVec

	CoordinatorsBuilt *prometheus.CounterVec

	// BackgroundStartups는 호스티드 서비스 시작 결과("ok", "failed")별 횟수입니다.
	BackgroundStartups *prometheus.CounterVec

	WebSocketsOpen prometheus.Gauge
}

// New는 지표를 만들고 reg에 등록합니다. reg가 nil이면 등록하지 않습니다.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "total",
			Help:      "Total number of requests bridged into the pipeline",
		}, []string{"definition", "outcome"}),
		InFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "in_flight",
			Help:      "Requests currently executing inside the pipeline",
		}, []string{"definition"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "duration_seconds",
			Help:      "Time from pre-execution to end-of-request",
			Buckets:   prometheus.DefBuckets,
		}, []string{"definition"}),
		CoordinatorsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coordinators",
			Name:      "built_total",
			Help:      "Coordinator build attempts by result",
		}, []string{"definition", "result"}),
		BackgroundStartups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coordinators",
			Name:      "background_startups_total",
			Help:      "Hosted service startups by result",
		}, []string{"definition", "result"}),
		WebSocketsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websockets",
			Name:      "open",
			Help:      "Open upgraded websocket connections",
		}),
	}

	if reg != nil {
		collectors := []prometheus.Collector{
			m.RequestsTotal,
			m.InFlight,
			m.RequestDuration,
			m.CoordinatorsBuilt,
			m.BackgroundStartups,
			m.WebSocketsOpen,
		}
		for _, c := range collectors {
			if err := reg.Register(c); err != nil {
				var already prometheus.AlreadyRegisteredError
				if !errors.As(err, &already) {
					panic(err)
				}
			}
		}
	}

	return m
}

// RequestStarted는 in-flight 게이지를 올리고 끝날 때 호출할 함수를 반환합니다.
func (m *Metrics) RequestStarted(definition string) func(outcome string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.InFlight.WithLabelValues(definition).Inc()
	return func(outcome string) {
		m.InFlight.WithLabelValues(definition).Dec()
		m.RequestsTotal.WithLabelValues(definition, outcome).Inc()
		m.RequestDuration.WithLabelValues(definition).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) CoordinatorBuilt(definition string, err error) {
	if m == nil {
		return
	}
	m.CoordinatorsBuilt.WithLabelValues(definition, result(err)).Inc()
}

func (m *Metrics) BackgroundStartup(definition string, err error) {
	if m == nil {
		return
	}
	m.BackgroundStartups.WithLabelValues(definition, result(err)).Inc()
}

func (m *Metrics) WebSocketOpened() {
	if m == nil {
		return
	}
	m.WebSocketsOpen.Inc()
}

func (m *Metrics) WebSocketClosed() {
	if m == nil {
		return
	}
	m.WebSocketsOpen.Dec()
}

func result(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}
