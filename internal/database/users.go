package database

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"price-panda-bot/internal/store"
	"price-panda-bot/internal/types"
)

// UserStore implements store.UserStore on top of the SQLite tables.
type UserStore struct {
	db *DB
}

var _ store.UserStore = (*UserStore)(nil)

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) exists(telegramID int64) (bool, error) {
	var id int64
	err := s.db.conn.QueryRow(`SELECT telegram_id FROM users WHERE telegram_id = ?;`, telegramID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to look up user %d", telegramID)
	}
	return true, nil
}

func (s *UserStore) Get(telegramID int64) (*types.UserRecord, error) {
	ok, err := s.exists(telegramID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, store.ErrNotFound
	}

	favorites, err := s.Favorites(telegramID)
	if err != nil {
		return nil, err
	}
	alerts, err := s.Alerts(telegramID)
	if err != nil {
		return nil, err
	}

	return &types.UserRecord{
		TelegramID: telegramID,
		Favorites:  favorites,
		Alerts:     alerts,
	}, nil
}

func (s *UserStore) Upsert(record types.UserRecord) error {
	tx, err := s.db.conn.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	statements := []struct {
		query string
		args  []interface{}
	}{
		{`INSERT OR IGNORE INTO users (telegram_id) VALUES (?);`, []interface{}{record.TelegramID}},
		{`DELETE FROM favorites WHERE telegram_id = ?;`, []interface{}{record.TelegramID}},
		{`DELETE FROM alerts WHERE telegram_id = ?;`, []interface{}{record.TelegramID}},
	}
	for _, st := range statements {
		if _, err := tx.Exec(st.query, st.args...); err != nil {
			return errors.Wrapf(err, "failed to upsert user %d", record.TelegramID)
		}
	}

	for i, symbol := range record.Favorites {
		_, err := tx.Exec(`INSERT OR IGNORE INTO favorites (telegram_id, symbol, position) VALUES (?, ?, ?);`,
			record.TelegramID, symbol, i+1)
		if err != nil {
			return errors.Wrap(err, "failed to insert favorite")
		}
	}
	for _, alert := range record.Alerts {
		if err := insertAlert(tx, record.TelegramID, alert); err != nil {
			return err
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit user")
}

func (s *UserStore) Users() ([]types.UserRecord, error) {
	rows, err := s.db.conn.Query(`SELECT telegram_id FROM users ORDER BY telegram_id;`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query users")
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "failed to scan row")
		}
		ids = append(ids, id)
	}
	rows.Close()

	users := make([]types.UserRecord, 0, len(ids))
	for _, id := range ids {
		user, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, nil
}

func (s *UserStore) AddFavorite(telegramID int64, symbol string) (bool, error) {
	tx, err := s.db.conn.Begin()
	if err != nil {
		return false, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO users (telegram_id) VALUES (?);`, telegramID); err != nil {
		return false, errors.Wrapf(err, "failed to create user %d", telegramID)
	}

	res, err := tx.Exec(`
	INSERT OR IGNORE INTO favorites (telegram_id, symbol, position)
	VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM favorites WHERE telegram_id = ?));`,
		telegramID, symbol, telegramID)
	if err != nil {
		return false, errors.Wrap(err, "failed to insert favorite")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to insert favorite")
	}

	if err := tx.Commit(); err != nil {
		return false, errors.Wrap(err, "failed to commit favorite")
	}
	return affected > 0, nil
}

func (s *UserStore) RemoveFavorite(telegramID int64, symbol string) (bool, error) {
	res, err := s.db.conn.Exec(`DELETE FROM favorites WHERE telegram_id = ? AND symbol = ?;`, telegramID, symbol)
	if err != nil {
		return false, errors.Wrap(err, "failed to delete favorite")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to delete favorite")
	}
	return affected > 0, nil
}

func (s *UserStore) Favorites(telegramID int64) ([]string, error) {
	rows, err := s.db.conn.Query(`SELECT symbol FROM favorites WHERE telegram_id = ? ORDER BY position;`, telegramID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query favorites for user %d", telegramID)
	}
	defer rows.Close()

	favorites := []string{}
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		favorites = append(favorites, symbol)
	}
	return favorites, rows.Err()
}

func insertAlert(tx *sql.Tx, telegramID int64, alert types.Alert) error {
	var createdAt int64
	if alert.CreatedAt != nil {
		createdAt = alert.CreatedAt.Unix()
	}
	_, err := tx.Exec(`
	INSERT INTO alerts (telegram_id, symbol, target_price, reference_price, created_at)
	VALUES (?, ?, ?, ?, ?);`,
		telegramID, alert.Symbol, alert.TargetPrice, alert.ReferencePrice, createdAt)
	return errors.Wrap(err, "failed to insert alert")
}

func (s *UserStore) SetAlert(telegramID int64, alert types.Alert) error {
	tx, err := s.db.conn.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO users (telegram_id) VALUES (?);`, telegramID); err != nil {
		return errors.Wrapf(err, "failed to create user %d", telegramID)
	}
	if err := insertAlert(tx, telegramID, alert); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "failed to commit alert")
}

func (s *UserStore) Alerts(telegramID int64) ([]types.Alert, error) {
	query := `
	SELECT symbol, target_price, reference_price, created_at
	FROM alerts
	WHERE telegram_id = ?
	ORDER BY id;`

	rows, err := s.db.conn.Query(query, telegramID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query alerts for user %d", telegramID)
	}
	defer rows.Close()

	alerts := []types.Alert{}
	for rows.Next() {
		var alert types.Alert
		var createdAt int64
		if err := rows.Scan(&alert.Symbol, &alert.TargetPrice, &alert.ReferencePrice, &createdAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		if createdAt > 0 {
			created := time.Unix(createdAt, 0).UTC()
			alert.CreatedAt = &created
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// RemoveAlert deletes the index-th alert of the user in insertion order.
func (s *UserStore) RemoveAlert(telegramID int64, index int) (bool, error) {
	if index < 0 {
		return false, nil
	}

	var id int64
	err := s.db.conn.QueryRow(`SELECT id FROM alerts WHERE telegram_id = ? ORDER BY id LIMIT 1 OFFSET ?;`,
		telegramID, index).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to find alert")
	}

	if _, err := s.db.conn.Exec(`DELETE FROM alerts WHERE id = ?;`, id); err != nil {
		return false, errors.Wrap(err, "failed to delete alert")
	}
	return true, nil
}

// Close is a no-op: the connection belongs to DB, which also serves metric persistence.
func (s *UserStore) Close() error {
	return nil
}
