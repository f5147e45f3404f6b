package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price-panda-bot/internal/database"
)

func TestBotMetrics_ChannelsCountedOnce(t *testing.T) {
	m := New()

	m.MessageHandled(42, "PrivateChat-42")
	m.MessageHandled(42, "PrivateChat-42")
	m.MessageHandled(-100, "Traders")

	assert.Equal(t, 3.0, Value(m.MessagesHandled))
	assert.Equal(t, 2.0, Value(m.ChannelsCount))
	assert.Equal(t, 2.0, Value(m.MessagesPerChannel.WithLabelValues("42", "PrivateChat-42")))
	assert.Equal(t, 1.0, Value(m.ChannelNames.WithLabelValues("42", "PrivateChat-42")))
}

func TestBotMetrics_SaveAndLoad(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	defer db.Close()

	first := New()
	first.MessageHandled(42, "PrivateChat-42")
	first.MessageHandled(-100, "Traders")
	first.CommandProcessed()
	first.CommandProcessed()
	first.CallbackHandled()
	first.AlertTriggered()
	first.QuoteRequest("coinmarketcap", "ok")
	first.QuoteRequest("coinmarketcap", "ok")
	first.QuoteRequest("coinpaprika", "not_found")
	first.ChartRender("cached")
	require.NoError(t, first.Save(db))

	second := New()
	require.NoError(t, second.Load(db))

	assert.Equal(t, 2.0, Value(second.CommandsProcessed))
	assert.Equal(t, 2.0, Value(second.MessagesHandled))
	assert.Equal(t, 1.0, Value(second.CallbacksHandled))
	assert.Equal(t, 1.0, Value(second.AlertsTriggered))
	assert.Equal(t, 2.0, Value(second.ChannelsCount))
	assert.Equal(t, 1.0, Value(second.MessagesPerChannel.WithLabelValues("-100", "Traders")))
	assert.Equal(t, 2.0, Value(second.QuoteRequests.WithLabelValues("coinmarketcap", "ok")))
	assert.Equal(t, 1.0, Value(second.QuoteRequests.WithLabelValues("coinpaprika", "not_found")))
	assert.Equal(t, 1.0, Value(second.ChartRenders.WithLabelValues("cached")))

	// a known channel does not grow the gauge after a restart
	second.MessageHandled(42, "PrivateChat-42")
	assert.Equal(t, 2.0, Value(second.ChannelsCount))
}

func TestBotMetrics_Handler(t *testing.T) {
	m := New()
	m.ChartRender("ok")

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `price_panda_telegram_bot_chart_renders{result="ok"} 1`)
}
