package localdb

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ichi0g0y/fortune-wheel/internal/shared/logger"
)

// SetupKVStoreTable creates the key/value table backing the eligibility record.
func SetupKVStoreTable(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv_store (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		logger.Error("Failed to create kv_store table", zap.Error(err))
		return fmt.Errorf("failed to create kv_store table: %w", err)
	}
	return nil
}

// KVStore is a string key/value store on the kv_store table. It satisfies eligibility.Store.
type KVStore struct {
	db *sql.DB
}

// NewKVStore uses db, or DBClient at call time when db is nil.
func NewKVStore(db *sql.DB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) conn() (*sql.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	if db := GetDB(); db != nil {
		return db, nil
	}
	return nil, errNotInitialized
}

func (s *KVStore) Get(key string) (string, bool, error) {
	db, err := s.conn()
	if err != nil {
		return "", false, err
	}

	var value string
	err = db.QueryRow(`SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		logger.Error("Failed to read kv_store", zap.Error(err), zap.String("key", key))
		return "", false, fmt.Errorf("failed to read kv_store: %w", err)
	}
	return value, true, nil
}

func (s *KVStore) Set(key, value string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		logger.Error("Failed to write kv_store", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to write kv_store: %w", err)
	}
	return nil
}

func (s *KVStore) Delete(key string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	if _, err := db.Exec(`DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		logger.Error("Failed to delete kv_store key", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to delete kv_store key: %w", err)
	}
	return nil
}
