// Package metrics exposes the bot counters to prometheus and persists them between restarts.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

const (
	namespace = "price_panda"
	subsystem = "telegram_bot"
)

// Store is the persistence used by Load and Save.
type Store interface {
	SaveMetric(metricName string, value float64) error
	SaveMetricWithLabels(metricName, labelKey, labelValue string, value float64) error
	GetMetric(metricName string) (float64, error)
	GetMetricsWithLabels(metricName string) (map[string]map[string]float64, error)
}

type BotMetrics struct {
	Registry *prometheus.Registry

	CommandsProcessed  prometheus.Counter
	MessagesHandled    prometheus.Counter
	CallbacksHandled   prometheus.Counter
	AlertsTriggered    prometheus.Counter
	ChannelsCount      prometheus.Gauge
	ChannelNames       *prometheus.CounterVec
	MessagesPerChannel *prometheus.CounterVec
	QuoteRequests      *prometheus.CounterVec
	ChartRenders       *prometheus.CounterVec

	mu          sync.Mutex
	channelsSet map[int64]string
}

func counter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
}

func counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func New() *BotMetrics {
	m := &BotMetrics{
		Registry:          prometheus.NewRegistry(),
		CommandsProcessed: counter("commands_processed", "The total number of processed commands"),
		MessagesHandled:   counter("messages_handled", "The total number of handled messages"),
		CallbacksHandled:  counter("callbacks_handled", "The total number of handled button presses"),
		AlertsTriggered:   counter("alerts_triggered", "The total number of price alerts delivered"),
		ChannelsCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "channels_count",
			Help:      "The current number of unique channels the bot is operating in",
		}),
		ChannelNames:       counterVec("channel_names", "Tracks channels the bot has interacted with", "chat_id", "chat_name"),
		MessagesPerChannel: counterVec("messages_per_channel", "The total number of messages handled per channel", "chat_id", "chat_name"),
		QuoteRequests:      counterVec("quote_requests", "Quote provider requests by outcome", "provider", "result"),
		ChartRenders:       counterVec("chart_renders", "Chart render requests by outcome", "result"),
		channelsSet:        make(map[int64]string),
	}

	m.Registry.MustRegister(
		m.CommandsProcessed,
		m.MessagesHandled,
		m.CallbacksHandled,
		m.AlertsTriggered,
		m.ChannelsCount,
		m.ChannelNames,
		m.MessagesPerChannel,
		m.QuoteRequests,
		m.ChartRenders,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// MessageHandled counts an incoming message and remembers the chat it came from.
func (m *BotMetrics) MessageHandled(chatID int64, chatName string) {
	m.MessagesHandled.Inc()
	m.trackChannel(chatID, chatName)
	m.MessagesPerChannel.WithLabelValues(strconv.FormatInt(chatID, 10), chatName).Inc()
}

func (m *BotMetrics) CommandProcessed() {
	m.CommandsProcessed.Inc()
}

func (m *BotMetrics) CallbackHandled() {
	m.CallbacksHandled.Inc()
}

func (m *BotMetrics) AlertTriggered() {
	m.AlertsTriggered.Inc()
}

func (m *BotMetrics) QuoteRequest(provider, result string) {
	m.QuoteRequests.WithLabelValues(provider, result).Inc()
}

func (m *BotMetrics) ChartRender(result string) {
	m.ChartRenders.WithLabelValues(result).Inc()
}

func (m *BotMetrics) trackChannel(chatID int64, chatName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.channelsSet[chatID]; !exists {
		m.channelsSet[chatID] = chatName
		m.ChannelsCount.Set(float64(len(m.channelsSet)))

		m.ChannelNames.WithLabelValues(strconv.FormatInt(chatID, 10), chatName).Inc()
	}
}

// Value reads the current value of a counter or gauge.
func Value(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		return metricProto.Gauge.GetValue()
	}
	return 0
}
