package store

import (
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"price-panda-bot/internal/types"
)

type document struct {
	Users []types.UserRecord `json:"users"`
}

// FileStore keeps every user in one JSON document and rewrites it on each mutation.
// The mutex serialises read-modify-write cycles so concurrent commands cannot drop each other's updates.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates the backing file with an empty users array when it does not exist yet.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrapf(err, "could not create data directory %s", dir)
			}
		}
		if err := s.write(&document{Users: []types.UserRecord{}}); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// read never fails: a missing or corrupt file is treated as an empty store.
func (s *FileStore) read() *document {
	doc := &document{Users: []types.UserRecord{}}

	data, err := os.ReadFile(s.path)
	if err != nil {
		log.WithField("path", s.path).Debugf("user store unreadable, starting empty: %v", err)
		return doc
	}

	if err := json.Unmarshal(data, doc); err != nil || doc.Users == nil {
		log.WithField("path", s.path).Errorf("user store corrupt, resetting to empty: %v", err)
		return &document{Users: []types.UserRecord{}}
	}
	return doc
}

func (s *FileStore) write(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not encode user store")
	}

	tmpFile := s.path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		os.Remove(tmpFile)
		return errors.Wrap(err, "could not write user store")
	}
	if err := os.Rename(tmpFile, s.path); err != nil {
		os.Remove(tmpFile)
		return errors.Wrap(err, "could not replace user store")
	}
	return nil
}

func find(doc *document, telegramID int64) int {
	for i := range doc.Users {
		if doc.Users[i].TelegramID == telegramID {
			return i
		}
	}
	return -1
}

// mutate runs fn against the user's record (a fresh one when absent) and saves it when fn reports a change.
func (s *FileStore) mutate(telegramID int64, fn func(u *types.UserRecord) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	index := find(doc, telegramID)

	var user types.UserRecord
	if index >= 0 {
		user = doc.Users[index]
	} else {
		user = types.UserRecord{TelegramID: telegramID}
	}

	if !fn(&user) {
		return nil
	}

	if index >= 0 {
		doc.Users[index] = user
	} else {
		doc.Users = append(doc.Users, user)
	}
	return s.write(doc)
}

func (s *FileStore) Get(telegramID int64) (*types.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	index := find(doc, telegramID)
	if index < 0 {
		return nil, ErrNotFound
	}
	user := doc.Users[index]
	return &user, nil
}

func (s *FileStore) Upsert(record types.UserRecord) error {
	return s.mutate(record.TelegramID, func(u *types.UserRecord) bool {
		*u = record
		return true
	})
}

func (s *FileStore) Users() ([]types.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read().Users, nil
}

func (s *FileStore) AddFavorite(telegramID int64, symbol string) (bool, error) {
	added := false
	err := s.mutate(telegramID, func(u *types.UserRecord) bool {
		if u.HasFavorite(symbol) {
			return false
		}
		u.Favorites = append(u.Favorites, symbol)
		added = true
		return true
	})
	return added, err
}

func (s *FileStore) RemoveFavorite(telegramID int64, symbol string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	index := find(doc, telegramID)
	if index < 0 {
		return false, nil
	}

	user := &doc.Users[index]
	for i, f := range user.Favorites {
		if f == symbol {
			user.Favorites = append(user.Favorites[:i], user.Favorites[i+1:]...)
			return true, s.write(doc)
		}
	}
	return false, nil
}

func (s *FileStore) Favorites(telegramID int64) ([]string, error) {
	user, err := s.Get(telegramID)
	if errors.Is(err, ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if user.Favorites == nil {
		return []string{}, nil
	}
	return user.Favorites, nil
}

func (s *FileStore) SetAlert(telegramID int64, alert types.Alert) error {
	return s.mutate(telegramID, func(u *types.UserRecord) bool {
		u.Alerts = append(u.Alerts, alert)
		return true
	})
}

func (s *FileStore) Alerts(telegramID int64) ([]types.Alert, error) {
	user, err := s.Get(telegramID)
	if errors.Is(err, ErrNotFound) {
		return []types.Alert{}, nil
	}
	if err != nil {
		return nil, err
	}
	if user.Alerts == nil {
		return []types.Alert{}, nil
	}
	return user.Alerts, nil
}

func (s *FileStore) RemoveAlert(telegramID int64, index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	userIndex := find(doc, telegramID)
	if userIndex < 0 {
		return false, nil
	}

	user := &doc.Users[userIndex]
	if index < 0 || index >= len(user.Alerts) {
		return false, nil
	}
	user.Alerts = append(user.Alerts[:index], user.Alerts[index+1:]...)
	return true, s.write(doc)
}

func (s *FileStore) Close() error {
	return nil
}
