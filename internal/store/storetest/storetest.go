// Package storetest holds the behaviour every store.UserStore implementation must share.
package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price-panda-bot/internal/store"
	"price-panda-bot/internal/types"
)

// Run exercises a fresh store from newStore for each case.
func Run(t *testing.T, newStore func(t *testing.T) store.UserStore) {
	t.Run("GetUnknownUser", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(1)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("AddFavoriteIsIdempotent", func(t *testing.T) {
		s := newStore(t)

		added, err := s.AddFavorite(7, "BTC")
		require.NoError(t, err)
		assert.True(t, added)

		added, err = s.AddFavorite(7, "BTC")
		require.NoError(t, err)
		assert.False(t, added)

		favorites, err := s.Favorites(7)
		require.NoError(t, err)
		assert.Equal(t, []string{"BTC"}, favorites)
	})

	t.Run("FavoritesKeepInsertionOrder", func(t *testing.T) {
		s := newStore(t)
		for _, sym := range []string{"ETH", "BTC", "DOGE"} {
			_, err := s.AddFavorite(7, sym)
			require.NoError(t, err)
		}

		favorites, err := s.Favorites(7)
		require.NoError(t, err)
		assert.Equal(t, []string{"ETH", "BTC", "DOGE"}, favorites)
	})

	t.Run("RemoveFavoriteNotPresent", func(t *testing.T) {
		s := newStore(t)
		_, err := s.AddFavorite(7, "BTC")
		require.NoError(t, err)

		removed, err := s.RemoveFavorite(7, "ETH")
		require.NoError(t, err)
		assert.False(t, removed)

		removed, err = s.RemoveFavorite(8, "BTC")
		require.NoError(t, err)
		assert.False(t, removed)

		favorites, err := s.Favorites(7)
		require.NoError(t, err)
		assert.Equal(t, []string{"BTC"}, favorites)
	})

	t.Run("RemoveFavorite", func(t *testing.T) {
		s := newStore(t)
		_, _ = s.AddFavorite(7, "BTC")
		_, _ = s.AddFavorite(7, "ETH")

		removed, err := s.RemoveFavorite(7, "BTC")
		require.NoError(t, err)
		assert.True(t, removed)

		favorites, err := s.Favorites(7)
		require.NoError(t, err)
		assert.Equal(t, []string{"ETH"}, favorites)
	})

	t.Run("SetAlertAppends", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetAlert(7, types.Alert{Symbol: "BTC", TargetPrice: 50000}))
		require.NoError(t, s.SetAlert(7, types.Alert{Symbol: "ETH", TargetPrice: 3000}))
		require.NoError(t, s.SetAlert(7, types.Alert{Symbol: "BTC", TargetPrice: 50000}))

		alerts, err := s.Alerts(7)
		require.NoError(t, err)
		require.Len(t, alerts, 3)
		assert.Equal(t, "BTC", alerts[0].Symbol)
		assert.Equal(t, "ETH", alerts[1].Symbol)
		assert.Equal(t, 3000.0, alerts[1].TargetPrice)
		assert.Equal(t, "BTC", alerts[2].Symbol)
	})

	t.Run("AlertsOfUnknownUser", func(t *testing.T) {
		s := newStore(t)
		alerts, err := s.Alerts(99)
		require.NoError(t, err)
		assert.Empty(t, alerts)
	})

	t.Run("RemoveAlertOutOfBounds", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetAlert(7, types.Alert{Symbol: "BTC", TargetPrice: 1}))

		for _, index := range []int{-1, 1, 5} {
			removed, err := s.RemoveAlert(7, index)
			require.NoError(t, err)
			assert.False(t, removed)
		}

		removed, err := s.RemoveAlert(8, 0)
		require.NoError(t, err)
		assert.False(t, removed)

		alerts, err := s.Alerts(7)
		require.NoError(t, err)
		assert.Len(t, alerts, 1)
	})

	t.Run("RemoveAlertShiftsFollowing", func(t *testing.T) {
		s := newStore(t)
		for i, sym := range []string{"A", "B", "C"} {
			require.NoError(t, s.SetAlert(7, types.Alert{Symbol: sym, TargetPrice: float64(i + 1)}))
		}

		removed, err := s.RemoveAlert(7, 1)
		require.NoError(t, err)
		assert.True(t, removed)

		alerts, err := s.Alerts(7)
		require.NoError(t, err)
		require.Len(t, alerts, 2)
		assert.Equal(t, "A", alerts[0].Symbol)
		assert.Equal(t, "C", alerts[1].Symbol)
	})

	t.Run("UpsertAndUsers", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Upsert(types.UserRecord{
			TelegramID: 3,
			Favorites:  []string{"SOL"},
			Alerts:     []types.Alert{{Symbol: "SOL", TargetPrice: 200, ReferencePrice: 150}},
		}))
		_, err := s.AddFavorite(4, "BTC")
		require.NoError(t, err)

		user, err := s.Get(3)
		require.NoError(t, err)
		assert.Equal(t, []string{"SOL"}, user.Favorites)
		require.Len(t, user.Alerts, 1)
		assert.Equal(t, 150.0, user.Alerts[0].ReferencePrice)

		users, err := s.Users()
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})
}
