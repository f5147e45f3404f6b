// Package store keeps per-user favorites and alerts.
package store

import (
	"github.com/pkg/errors"

	"price-panda-bot/internal/types"
)

var ErrNotFound = errors.New("user not found")

// UserStore is the persistence contract used by the command handlers and the alert evaluator.
// RemoveAlert takes a 0-based index; an out of range index is a no-op reported as removed=false.
type UserStore interface {
	Get(telegramID int64) (*types.UserRecord, error)
	Upsert(record types.UserRecord) error
	Users() ([]types.UserRecord, error)

	AddFavorite(telegramID int64, symbol string) (bool, error)
	RemoveFavorite(telegramID int64, symbol string) (bool, error)
	Favorites(telegramID int64) ([]string, error)

	SetAlert(telegramID int64, alert types.Alert) error
	Alerts(telegramID int64) ([]types.Alert, error)
	RemoveAlert(telegramID int64, index int) (bool, error)

	Close() error
}
