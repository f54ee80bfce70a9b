package main

import (
	"go.uber.org/zap"

	"github.com/ichi0g0y/fortune-wheel/internal/eligibility"
	"github.com/ichi0g0y/fortune-wheel/internal/env"
	"github.com/ichi0g0y/fortune-wheel/internal/localdb"
	"github.com/ichi0g0y/fortune-wheel/internal/roulette"
	"github.com/ichi0g0y/fortune-wheel/internal/settings"
	"github.com/ichi0g0y/fortune-wheel/internal/shared/logger"
	"github.com/ichi0g0y/fortune-wheel/internal/wheel"
)

// initializeSettings writes default settings rows so the settings API lists every key.
func initializeSettings() {
	db := localdb.GetDB()
	if db == nil {
		return
	}
	if err := settings.NewSettingsManager(db).InitializeDefaultSettings(); err != nil {
		logger.Warn("Failed to initialize default settings", zap.Error(err))
	}
}

func loadTable() *wheel.Table {
	table, err := wheel.LoadTableOrDefault(env.Value.SegmentsFile)
	if err != nil {
		logger.Warn("Failed to load segment file, using default segments",
			zap.String("path", env.Value.SegmentsFile), zap.Error(err))
	}
	logger.Info("Wheel segments", zap.Int("segments", table.Count()))
	return table
}

func buildSession() (*roulette.Session, error) {
	loc := env.Value.Location()
	logger.Info("Eligibility timezone", zap.String("timezone", loc.String()))

	return roulette.NewSession(roulette.Options{
		Table:   loadTable(),
		Gate:    eligibility.NewGate(localdb.NewKVStore(localdb.GetDB()), loc),
		History: localdb.HistoryRecorder{},
	})
}
