package webserver

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ichi0g0y/fortune-wheel/internal/env"
	"github.com/ichi0g0y/fortune-wheel/internal/localdb"
	"github.com/ichi0g0y/fortune-wheel/internal/settings"
	"github.com/ichi0g0y/fortune-wheel/internal/shared/logger"
)

func handleSettings(w http.ResponseWriter, r *http.Request) {
	db := localdb.GetDB()
	if db == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "database not initialized")
		return
	}
	sm := settings.NewSettingsManager(db)

	switch r.Method {
	case http.MethodGet:
		all, err := sm.GetAllSettings()
		if err != nil {
			logger.Error("Failed to get settings", zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "failed to get settings")
			return
		}
		writeJSON(w, http.StatusOK, all)

	case http.MethodPut:
		var updates map[string]string
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		keys := make([]string, 0, len(updates))
		for key := range updates {
			keys = append(keys, key)
		}
		if shadowed := env.ShadowedKeys(keys); len(shadowed) > 0 {
			logger.Warn("Rejected settings update shadowed by environment", zap.Strings("keys", shadowed))
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"error":           "settings are overridden by environment variables",
				"shadowed_by_env": shadowed,
			})
			return
		}

		if err := sm.UpdateSettings(updates); err != nil {
			logger.Warn("Rejected settings update", zap.Error(err))
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		// 保存後にenv.Valueを再構築
		env.LoadEnv()

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":          true,
			"restart_required": restartRequired(updates),
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// 起動時にだけ読まれる設定
var restartKeys = []string{"TIMEZONE", "WHEEL_FRAME_RATE"}

func restartRequired(updates map[string]string) bool {
	for _, key := range restartKeys {
		if _, ok := updates[key]; ok {
			return true
		}
	}
	return false
}
