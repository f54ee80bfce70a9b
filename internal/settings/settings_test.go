package settings

import (
	"errors"
	"path/filepath"
	"testing"
	_ "time/tzdata"

	"github.com/ichi0g0y/fortune-wheel/internal/localdb"
)

func setupSettings(t *testing.T) *SettingsManager {
	t.Helper()

	if localdb.DBClient != nil {
		_ = localdb.DBClient.Close()
		localdb.DBClient = nil
	}

	db, err := localdb.SetupDB(filepath.Join(t.TempDir(), "local.db"))
	if err != nil {
		t.Fatalf("SetupDB failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
		localdb.DBClient = nil
	})
	return NewSettingsManager(db)
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	sm := setupSettings(t)

	rate, err := sm.GetSetting("WHEEL_FRAME_RATE")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if rate != "60" {
		t.Fatalf("unexpected default frame rate: got=%q want=%q", rate, "60")
	}

	if err := sm.InitializeDefaultSettings(); err != nil {
		t.Fatalf("InitializeDefaultSettings failed: %v", err)
	}

	if err := sm.UpdateSettings(map[string]string{"WHEEL_FRAME_RATE": "30", "TIMEZONE": "Asia/Tokyo"}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	values, err := sm.Values()
	if err != nil {
		t.Fatalf("Values failed: %v", err)
	}
	if values["WHEEL_FRAME_RATE"] != "30" {
		t.Fatalf("unexpected frame rate: got=%q want=%q", values["WHEEL_FRAME_RATE"], "30")
	}
	if values["TIMEZONE"] != "Asia/Tokyo" {
		t.Fatalf("unexpected timezone: got=%q want=%q", values["TIMEZONE"], "Asia/Tokyo")
	}
	if values["WHEEL_IMAGE_SIZE"] != "400" {
		t.Fatalf("missing default must be filled: got=%q", values["WHEEL_IMAGE_SIZE"])
	}

	// InitializeDefaultSettings must not overwrite saved values.
	if err := sm.InitializeDefaultSettings(); err != nil {
		t.Fatalf("InitializeDefaultSettings failed: %v", err)
	}
	if rate, _ := sm.GetSetting("WHEEL_FRAME_RATE"); rate != "30" {
		t.Fatalf("saved value was overwritten: got=%q", rate)
	}
}

func TestUpdateSettingsRejectsInvalidBatch(t *testing.T) {
	sm := setupSettings(t)

	err := sm.UpdateSettings(map[string]string{"WHEEL_FRAME_RATE": "30", "WHEEL_IMAGE_SIZE": "10"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if rate, _ := sm.GetSetting("WHEEL_FRAME_RATE"); rate != "60" {
		t.Fatalf("invalid batch must not be partially applied: got=%q", rate)
	}

	if err := sm.UpdateSettings(map[string]string{"CLIENT_SECRET": "x"}); !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("unexpected error: got=%v want=%v", err, ErrUnknownSetting)
	}
}

func TestValidateSetting(t *testing.T) {
	tests := []struct {
		key, value string
		ok         bool
	}{
		{"TIMEZONE", "", true},
		{"TIMEZONE", "Asia/Seoul", true},
		{"TIMEZONE", "Mars/Olympus", false},
		{"WHEEL_FRAME_RATE", "60", true},
		{"WHEEL_FRAME_RATE", "0", false},
		{"WHEEL_FRAME_RATE", "fast", false},
		{"WHEEL_IMAGE_SIZE", "2048", true},
		{"WHEEL_IMAGE_SIZE", "4096", false},
		{"WHEEL_SOUND_ENABLED", "false", true},
		{"WHEEL_SOUND_ENABLED", "yes", false},
		{"PUBLIC_URL", "https://example.com/wheel", true},
		{"PUBLIC_URL", "example.com", false},
	}

	for _, tt := range tests {
		err := ValidateSetting(tt.key, tt.value)
		if (err == nil) != tt.ok {
			t.Fatalf("ValidateSetting(%s, %q): got err=%v want ok=%v", tt.key, tt.value, err, tt.ok)
		}
	}
}
