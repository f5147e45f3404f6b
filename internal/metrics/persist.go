package metrics

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

type labelledVec struct {
	name   string
	vec    *prometheus.CounterVec
	labels []string
}

func (m *BotMetrics) plainCounters() map[string]prometheus.Counter {
	return map[string]prometheus.Counter{
		"commands_processed": m.CommandsProcessed,
		"messages_handled":   m.MessagesHandled,
		"callbacks_handled":  m.CallbacksHandled,
		"alerts_triggered":   m.AlertsTriggered,
	}
}

// Vectors with two labels are stored as (label_key, label_value); chart_renders keeps its single label in label_key.
func (m *BotMetrics) labelledVecs() []labelledVec {
	return []labelledVec{
		{"messages_per_channel", m.MessagesPerChannel, []string{"chat_id", "chat_name"}},
		{"quote_requests", m.QuoteRequests, []string{"provider", "result"}},
		{"chart_renders", m.ChartRenders, []string{"result"}},
	}
}

// Load restores the counters saved by a previous run.
func (m *BotMetrics) Load(store Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, c := range m.plainCounters() {
		value, err := store.GetMetric(name)
		if err != nil {
			return err
		}
		c.Add(value)
	}

	channels, err := store.GetMetricsWithLabels("channel_names")
	if err != nil {
		return err
	}
	for chatIDStr, names := range channels {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			log.Errorf("Failed to parse chatID %s: %v", chatIDStr, err)
			continue
		}
		for chatName := range names {
			m.ChannelNames.WithLabelValues(chatIDStr, chatName).Add(1)
			m.channelsSet[chatID] = chatName
		}
	}
	m.ChannelsCount.Set(float64(len(m.channelsSet)))

	for _, lv := range m.labelledVecs() {
		values, err := store.GetMetricsWithLabels(lv.name)
		if err != nil {
			return err
		}
		for key, inner := range values {
			for value, v := range inner {
				if len(lv.labels) == 1 {
					lv.vec.WithLabelValues(key).Add(v)
				} else {
					lv.vec.WithLabelValues(key, value).Add(v)
				}
			}
		}
	}

	log.Info("Metrics loaded from database.")
	return nil
}

// Save writes every counter to store, continuing past individual failures.
func (m *BotMetrics) Save(store Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	keep := func(err error) {
		if err != nil {
			log.Errorf("Failed to save metric: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	for name, c := range m.plainCounters() {
		keep(store.SaveMetric(name, Value(c)))
	}
	keep(store.SaveMetric("channels_count", float64(len(m.channelsSet))))

	for chatID, chatName := range m.channelsSet {
		keep(store.SaveMetricWithLabels("channel_names", strconv.FormatInt(chatID, 10), chatName, 1))
	}

	for _, lv := range m.labelledVecs() {
		for _, metricProto := range collect(lv.vec) {
			values := labelValues(metricProto, lv.labels)
			value := ""
			if len(values) > 1 {
				value = values[1]
			}
			keep(store.SaveMetricWithLabels(lv.name, values[0], value, metricProto.GetCounter().GetValue()))
		}
	}

	if firstErr != nil {
		return errors.Wrap(firstErr, "metrics partially saved")
	}
	log.Debug("Metrics saved to database.")
	return nil
}

func collect(c prometheus.Collector) []*dto.Metric {
	metricChan := make(chan prometheus.Metric, 1)
	go func() {
		c.Collect(metricChan)
		close(metricChan)
	}()

	var out []*dto.Metric
	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Errorf("Failed to read metric: %v", err)
			continue
		}
		out = append(out, metricProto)
	}
	return out
}

func labelValues(metricProto *dto.Metric, names []string) []string {
	values := make([]string, len(names))
	for _, label := range metricProto.GetLabel() {
		for i, name := range names {
			if label.GetName() == name {
				values[i] = label.GetValue()
			}
		}
	}
	return values
}
