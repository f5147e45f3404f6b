package alert

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price-panda-bot/internal/store"
	"price-panda-bot/internal/telegram"
	"price-panda-bot/internal/types"
)

type fakeQuotes struct {
	mu     sync.Mutex
	prices map[string]float64
	calls  map[string]int
}

func (f *fakeQuotes) Name() string { return "fake" }

func (f *fakeQuotes) FetchQuote(_ context.Context, symbol string) (*types.PriceQuote, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[symbol]++
	p, ok := f.prices[symbol]
	if !ok {
		return nil, false
	}
	return &types.PriceQuote{Symbol: symbol, Name: symbol + " coin", PriceUSD: p}, true
}

func (f *fakeQuotes) FetchHistoricalSeries(context.Context, string) ([]types.Candle, bool) {
	return nil, false
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []telegram.Message
}

func (f *fakeNotifier) SendMessage(m telegram.Message) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return tgbotapi.Message{}, nil
}

type counter struct{ n int }

func (c *counter) AlertTriggered() { c.n++ }

func newStore(t *testing.T) store.UserStore {
	s, err := store.NewFileStore(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)
	return s
}

func TestReached(t *testing.T) {
	rising := types.Alert{Symbol: "BTC", TargetPrice: 70000, ReferencePrice: 60000}
	assert.False(t, Reached(rising, 69999))
	assert.True(t, Reached(rising, 70000))

	falling := types.Alert{Symbol: "BTC", TargetPrice: 50000, ReferencePrice: 60000}
	assert.False(t, Reached(falling, 50001))
	assert.True(t, Reached(falling, 49000))

	legacy := types.Alert{Symbol: "BTC", TargetPrice: 50000}
	assert.False(t, Reached(legacy, 49000))
	assert.True(t, Reached(legacy, 51000))
}

func TestCheckAlerts(t *testing.T) {
	users := newStore(t)
	require.NoError(t, users.SetAlert(1, types.Alert{Symbol: "BTC", TargetPrice: 70000, ReferencePrice: 60000}))
	require.NoError(t, users.SetAlert(1, types.Alert{Symbol: "ETH", TargetPrice: 5000}))
	require.NoError(t, users.SetAlert(2, types.Alert{Symbol: "BTC", TargetPrice: 65000, ReferencePrice: 72000}))
	require.NoError(t, users.SetAlert(2, types.Alert{Symbol: "NOPE", TargetPrice: 1}))

	quotes := &fakeQuotes{prices: map[string]float64{"BTC": 71000, "ETH": 3000}}
	notifier := &fakeNotifier{}
	triggered := &counter{}
	service := NewService(users, quotes, notifier, time.Minute, triggered)

	fired := service.CheckAlerts(context.Background())
	assert.Equal(t, 1, fired)
	assert.Equal(t, 1, triggered.n)
	assert.Equal(t, 1, quotes.calls["BTC"])

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, int64(1), notifier.sent[0].ChatID)
	assert.Contains(t, notifier.sent[0].Text, "🚨 *Price Alert Triggered*")
	assert.Contains(t, notifier.sent[0].Text, "*$70,000.00*")
	assert.Contains(t, notifier.sent[0].Text, "*$71,000.00*")

	remaining, err := users.Alerts(1)
	require.NoError(t, err)
	assert.Equal(t, []types.Alert{{Symbol: "ETH", TargetPrice: 5000}}, remaining)

	remaining, err = users.Alerts(2)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)

	// fired alerts are gone, so a second pass is quiet
	assert.Zero(t, service.CheckAlerts(context.Background()))
}

func TestCheckAlertsSkipsOverlappingRun(t *testing.T) {
	users := newStore(t)
	require.NoError(t, users.SetAlert(1, types.Alert{Symbol: "BTC", TargetPrice: 1}))

	service := NewService(users, &fakeQuotes{prices: map[string]float64{"BTC": 2}}, &fakeNotifier{}, time.Minute, nil)
	service.processing.Lock()
	assert.Zero(t, service.CheckAlerts(context.Background()))
	service.processing.Unlock()

	assert.Equal(t, 1, service.CheckAlerts(context.Background()))
}

func TestStartStopsWithContext(t *testing.T) {
	users := newStore(t)
	require.NoError(t, users.SetAlert(1, types.Alert{Symbol: "BTC", TargetPrice: 1}))
	notifier := &fakeNotifier{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	NewService(users, &fakeQuotes{prices: map[string]float64{"BTC": 2}}, notifier, 10*time.Millisecond, nil).Start(ctx)

	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.sent) == 1
	}, 2*time.Second, 5*time.Millisecond)
}
