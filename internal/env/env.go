package env

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ichi0g0y/fortune-wheel/internal/localdb"
	"github.com/ichi0g0y/fortune-wheel/internal/settings"
	"github.com/ichi0g0y/fortune-wheel/internal/shared/logger"
)

type EnvValue struct {
	ServerPort     int      `env:"SERVER_PORT" envDefault:"8080"`
	DebugMode      bool     `env:"DEBUG_MODE" envDefault:"false"`
	DataDir        string   `env:"WHEEL_DATA_DIR"`
	SegmentsFile   string   `env:"WHEEL_SEGMENTS_FILE"`
	Timezone       string   `env:"TIMEZONE"`
	FrameRate      int      `env:"WHEEL_FRAME_RATE" envDefault:"60"`
	ImageSize      int      `env:"WHEEL_IMAGE_SIZE" envDefault:"400"`
	PublicURL      string   `env:"PUBLIC_URL"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	SoundEnabled   bool     `env:"WHEEL_SOUND_ENABLED" envDefault:"true"`
}

var Value EnvValue

// DotEnvPath is the file LoadEnv reads before parsing. A missing file is ignored.
var DotEnvPath = ".env"

// LoadEnv rebuilds Value from DB settings overlaid by the process environment.
// localdb.SetupDB must run before LoadEnv so stored settings are visible.
func LoadEnv() {
	loadDotEnv()

	base := map[string]string{}
	if db := localdb.GetDB(); db != nil {
		values, err := settings.NewSettingsManager(db).Values()
		if err != nil {
			logger.Warn("Failed to read settings from database", zap.Error(err))
		} else {
			base = values
		}
	}

	value, err := Parse(base, os.Environ())
	if err != nil {
		logger.Error("Failed to parse environment, using defaults", zap.Error(err))
		value, _ = Parse(nil, nil)
	}
	Value = value

	logger.Debug("Environment loaded",
		zap.Int("server_port", Value.ServerPort),
		zap.Bool("debug_mode", Value.DebugMode),
		zap.String("timezone", Value.Timezone),
		zap.Int("frame_rate", Value.FrameRate))
}

// godotenvは既存の環境変数を上書きしないので、何度呼んでも同じ結果になる
func loadDotEnv() {
	if err := godotenv.Load(DotEnvPath); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to load .env file", zap.String("path", DotEnvPath), zap.Error(err))
	}
}

// ShadowedKeys returns the keys that the process environment or .env sets to a non-empty value.
// A stored setting for such a key never reaches Value.
func ShadowedKeys(keys []string) []string {
	loadDotEnv()

	var shadowed []string
	for _, key := range keys {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			shadowed = append(shadowed, key)
		}
	}
	sort.Strings(shadowed)
	return shadowed
}

// Parse builds an EnvValue from base overlaid by environ ("KEY=VALUE" entries). Empty values are
// treated as unset so defaults apply.
func Parse(base map[string]string, environ []string) (EnvValue, error) {
	merged := make(map[string]string, len(base)+len(environ))
	for k, v := range base {
		if v != "" {
			merged[k] = v
		}
	}
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || v == "" {
			continue
		}
		merged[k] = v
	}

	var value EnvValue
	if err := env.ParseWithOptions(&value, env.Options{Environment: merged}); err != nil {
		return EnvValue{}, fmt.Errorf("failed to parse env: %w", err)
	}

	if value.FrameRate <= 0 {
		value.FrameRate = 60
	}
	if value.ImageSize <= 0 {
		value.ImageSize = 400
	}
	return value, nil
}

// Location returns the configured timezone, or time.Local when unset or invalid.
func (v EnvValue) Location() *time.Location {
	if v.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(v.Timezone)
	if err != nil {
		logger.Warn("Invalid TIMEZONE, using local time", zap.String("timezone", v.Timezone), zap.Error(err))
		return time.Local
	}
	return loc
}

// FrameInterval is the tick period for WHEEL_FRAME_RATE.
func (v EnvValue) FrameInterval() time.Duration {
	if v.FrameRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(v.FrameRate)
}
