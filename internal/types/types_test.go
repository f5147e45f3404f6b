package types

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRecord_HasFavorite(t *testing.T) {
	u := UserRecord{TelegramID: 1, Favorites: []string{"BTC", "ETH"}}
	assert.True(t, u.HasFavorite("ETH"))
	assert.False(t, u.HasFavorite("eth"))
}

func TestUserRecord_ReadsLegacyDocument(t *testing.T) {
	doc := `{"telegramId":42,"alerts":[{"symbol":"BTC","targetPrice":50000}]}`

	var u UserRecord
	require.NoError(t, json.Unmarshal([]byte(doc), &u))
	assert.Equal(t, int64(42), u.TelegramID)
	assert.Nil(t, u.Favorites)
	require.Len(t, u.Alerts, 1)
	assert.Equal(t, 50000.0, u.Alerts[0].TargetPrice)
	assert.Zero(t, u.Alerts[0].ReferencePrice)
	assert.Nil(t, u.Alerts[0].CreatedAt)
	assert.True(t, u.Alerts[0].Created().IsZero())
}

func TestAlert_OmitsMissingCreatedAt(t *testing.T) {
	data, err := json.Marshal(Alert{Symbol: "BTC", TargetPrice: 50000})
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbol":"BTC","targetPrice":50000}`, string(data))

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err = json.Marshal(Alert{Symbol: "BTC", TargetPrice: 50000, CreatedAt: &created})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"createdAt":"2026-03-01T12:00:00Z"`)
}
