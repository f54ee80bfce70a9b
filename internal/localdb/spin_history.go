package localdb

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ichi0g0y/fortune-wheel/internal/shared/logger"
	"github.com/ichi0g0y/fortune-wheel/internal/types"
)

// SetupSpinHistoryTable creates the spin_history table.
func SetupSpinHistoryTable(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS spin_history (
			id TEXT PRIMARY KEY,
			segment_index INTEGER NOT NULL,
			label TEXT NOT NULL,
			color TEXT NOT NULL,
			terminal_angle REAL NOT NULL,
			total_rotation REAL NOT NULL,
			duration_ms INTEGER NOT NULL,
			spun_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		logger.Error("Failed to create spin_history table", zap.Error(err))
		return fmt.Errorf("failed to create spin_history table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_spin_history_spun_at ON spin_history(spun_at DESC)`); err != nil {
		logger.Warn("Failed to create spin_history index", zap.Error(err))
	}

	return nil
}

// SaveSpinHistory saves one finished spin.
func SaveSpinHistory(record types.SpinRecord) error {
	db := GetDB()
	if db == nil {
		return errNotInitialized
	}

	if record.ID == "" {
		return fmt.Errorf("spin id is required")
	}
	if record.SpunAt.IsZero() {
		record.SpunAt = time.Now()
	}

	_, err := db.Exec(`
		INSERT INTO spin_history (
			id, segment_index, label, color, terminal_angle, total_rotation, duration_ms, spun_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.SegmentIndex,
		record.Label,
		record.Color,
		record.TerminalAngle,
		record.TotalRotation,
		record.DurationMS,
		record.SpunAt,
	)
	if err != nil {
		logger.Error("Failed to save spin history", zap.Error(err), zap.String("id", record.ID))
		return fmt.Errorf("failed to save spin history: %w", err)
	}

	return nil
}

// GetSpinHistory returns spins ordered by latest first. limit <= 0 returns everything.
func GetSpinHistory(limit int) ([]types.SpinRecord, error) {
	db := GetDB()
	if db == nil {
		return []types.SpinRecord{}, errNotInitialized
	}

	query := `
		SELECT id, segment_index, label, color, terminal_angle, total_rotation, duration_ms, spun_at
		FROM spin_history
		ORDER BY spun_at DESC, rowid DESC
	`

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = db.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = db.Query(query)
	}
	if err != nil {
		logger.Error("Failed to get spin history", zap.Error(err))
		return []types.SpinRecord{}, fmt.Errorf("failed to get spin history: %w", err)
	}
	defer rows.Close()

	history := []types.SpinRecord{}
	for rows.Next() {
		var item types.SpinRecord
		if err := rows.Scan(
			&item.ID,
			&item.SegmentIndex,
			&item.Label,
			&item.Color,
			&item.TerminalAngle,
			&item.TotalRotation,
			&item.DurationMS,
			&item.SpunAt,
		); err != nil {
			logger.Error("Failed to scan spin history", zap.Error(err))
			continue
		}
		history = append(history, item)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error iterating spin history", zap.Error(err))
		return []types.SpinRecord{}, fmt.Errorf("failed to iterate spin history: %w", err)
	}

	return history, nil
}

// DeleteSpinHistory deletes one spin by id.
func DeleteSpinHistory(id string) error {
	db := GetDB()
	if db == nil {
		return errNotInitialized
	}

	_, err := db.Exec(`DELETE FROM spin_history WHERE id = ?`, id)
	if err != nil {
		logger.Error("Failed to delete spin history", zap.Error(err), zap.String("id", id))
		return fmt.Errorf("failed to delete spin history: %w", err)
	}

	return nil
}

// HistoryRecorder saves finished spins through SaveSpinHistory.
type HistoryRecorder struct{}

func (HistoryRecorder) SaveSpin(record types.SpinRecord) error {
	return SaveSpinHistory(record)
}
