package localdb

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ichi0g0y/fortune-wheel/internal/shared/logger"
)

var DBClient *sql.DB

var errNotInitialized = fmt.Errorf("database not initialized")

func SetupDB(dbPath string) (*sql.DB, error) {
	if DBClient != nil {
		return DBClient, nil
	}

	// WALモードとBusy Timeoutを設定（HTTPハンドラとフレームドライバが同時に書き込むため）
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// SQLiteは単一ライターなので接続プールを1に制限
	db.SetMaxOpenConns(1)

	// settingsテーブル（env.LoadEnvのベース値）
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		setting_type TEXT NOT NULL DEFAULT 'normal',
		is_required BOOLEAN NOT NULL DEFAULT false,
		description TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		logger.Error("Failed to create settings table", zap.Error(err))
		_ = db.Close()
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	if err := SetupKVStoreTable(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := SetupSpinHistoryTable(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	DBClient = db
	return db, nil
}

// GetDB は現在のデータベース接続を返します
func GetDB() *sql.DB {
	return DBClient
}

// Close closes the shared connection and clears DBClient.
func Close() error {
	if DBClient == nil {
		return nil
	}
	err := DBClient.Close()
	DBClient = nil
	return err
}
