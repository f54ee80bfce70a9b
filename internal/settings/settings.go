package settings

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ichi0g0y/fortune-wheel/internal/shared/logger"
)

type SettingType string

const (
	SettingTypeNormal SettingType = "normal"
	SettingTypeSecret SettingType = "secret"
)

type Setting struct {
	Key         string      `json:"key"`
	Value       string      `json:"value"`
	Type        SettingType `json:"type"`
	Required    bool        `json:"required"`
	Description string      `json:"description"`
	UpdatedAt   time.Time   `json:"updated_at"`
	HasValue    bool        `json:"has_value"`
}

var ErrUnknownSetting = errors.New("unknown setting key")

type SettingsManager struct {
	db *sql.DB
}

func NewSettingsManager(db *sql.DB) *SettingsManager {
	return &SettingsManager{db: db}
}

// 設定の定義
var DefaultSettings = map[string]Setting{
	"TIMEZONE": {
		Key: "TIMEZONE", Value: "", Type: SettingTypeNormal, Required: false,
		Description: "IANA timezone used for the once-per-day check (empty = system local)",
	},
	"WHEEL_FRAME_RATE": {
		Key: "WHEEL_FRAME_RATE", Value: "60", Type: SettingTypeNormal, Required: false,
		Description: "Animation ticks per second (1-240)",
	},
	"WHEEL_IMAGE_SIZE": {
		Key: "WHEEL_IMAGE_SIZE", Value: "400", Type: SettingTypeNormal, Required: false,
		Description: "Side length of the PNG snapshot in pixels (64-2048)",
	},
	"WHEEL_SOUND_ENABLED": {
		Key: "WHEEL_SOUND_ENABLED", Value: "true", Type: SettingTypeNormal, Required: false,
		Description: "Play tick and fanfare sounds in the terminal client",
	},
	"PUBLIC_URL": {
		Key: "PUBLIC_URL", Value: "", Type: SettingTypeNormal, Required: false,
		Description: "Externally reachable URL of the overlay page (used for the QR code)",
	},
}

// CRUD操作
func (sm *SettingsManager) GetSetting(key string) (string, error) {
	var value string
	err := sm.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		// デフォルト値を返す
		if defaultSetting, exists := DefaultSettings[key]; exists {
			return defaultSetting.Value, nil
		}
		return "", fmt.Errorf("setting not found: %s", key)
	}
	return value, err
}

func (sm *SettingsManager) SetSetting(key, value string) error {
	defaultSetting, exists := DefaultSettings[key]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}

	_, err := sm.db.Exec(`
		INSERT INTO settings (key, value, setting_type, is_required, description)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`,
		key, value,
		string(defaultSetting.Type),
		defaultSetting.Required,
		defaultSetting.Description,
	)
	if err != nil {
		logger.Error("Failed to save setting", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

func (sm *SettingsManager) GetAllSettings() (map[string]Setting, error) {
	rows, err := sm.db.Query(`
		SELECT key, value, setting_type, is_required, description, updated_at
		FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]Setting)
	for rows.Next() {
		var s Setting
		var settingType string
		var description sql.NullString
		if err := rows.Scan(&s.Key, &s.Value, &settingType, &s.Required, &description, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Type = SettingType(settingType)
		s.Description = description.String
		s.HasValue = s.Value != ""
		settings[s.Key] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// DBにない設定はデフォルト値で補完
	for key, defaultSetting := range DefaultSettings {
		if _, exists := settings[key]; !exists {
			defaultSetting.HasValue = defaultSetting.Value != ""
			settings[key] = defaultSetting
		}
	}

	return settings, nil
}

// Values returns key → value for every stored or default setting. env.LoadEnv uses it as the base
// environment.
func (sm *SettingsManager) Values() (map[string]string, error) {
	all, err := sm.GetAllSettings()
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(all))
	for key, s := range all {
		values[key] = s.Value
	}
	return values, nil
}

// UpdateSettings validates every entry before writing any of them.
func (sm *SettingsManager) UpdateSettings(updates map[string]string) error {
	for key, value := range updates {
		if _, exists := DefaultSettings[key]; !exists {
			return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
		}
		if err := ValidateSetting(key, value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}

	for key, value := range updates {
		if err := sm.SetSetting(key, value); err != nil {
			return err
		}
	}
	logger.Info("Settings updated", zap.Int("count", len(updates)))
	return nil
}

// バリデーション
func ValidateSetting(key, value string) error {
	switch key {
	case "TIMEZONE":
		if value != "" {
			if _, err := time.LoadLocation(value); err != nil {
				return fmt.Errorf("invalid timezone: %v", err)
			}
		}
	case "WHEEL_FRAME_RATE":
		if val, err := strconv.Atoi(value); err != nil || val < 1 || val > 240 {
			return fmt.Errorf("must be integer between 1 and 240")
		}
	case "WHEEL_IMAGE_SIZE":
		if val, err := strconv.Atoi(value); err != nil || val < 64 || val > 2048 {
			return fmt.Errorf("must be integer between 64 and 2048")
		}
	case "WHEEL_SOUND_ENABLED":
		if value != "true" && value != "false" {
			return fmt.Errorf("must be 'true' or 'false'")
		}
	case "PUBLIC_URL":
		if value != "" && !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("must start with http:// or https://")
		}
	}
	return nil
}

func (sm *SettingsManager) InitializeDefaultSettings() error {
	for key, setting := range DefaultSettings {
		// 既に設定が存在する場合はスキップ
		var existingKey string
		if err := sm.db.QueryRow("SELECT key FROM settings WHERE key = ?", key).Scan(&existingKey); err == nil {
			continue
		}

		if err := sm.SetSetting(key, setting.Value); err != nil {
			return fmt.Errorf("failed to initialize setting %s: %w", key, err)
		}
	}
	return nil
}
