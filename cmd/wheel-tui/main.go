package main

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/ichi0g0y/fortune-wheel/internal/audio"
	"github.com/ichi0g0y/fortune-wheel/internal/eligibility"
	"github.com/ichi0g0y/fortune-wheel/internal/env"
	"github.com/ichi0g0y/fortune-wheel/internal/localdb"
	"github.com/ichi0g0y/fortune-wheel/internal/roulette"
	"github.com/ichi0g0y/fortune-wheel/internal/shared/logger"
	"github.com/ichi0g0y/fortune-wheel/internal/shared/paths"
	"github.com/ichi0g0y/fortune-wheel/internal/wheel"
)

func main() {
	if err := paths.EnsureDataDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	// 画面はtcellが占有するのでログはファイルへ
	if err := logger.InitFile(paths.GetLogPath(), false); err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var store eligibility.Store
	var history roulette.HistoryRecorder
	if _, err := localdb.SetupDB(paths.GetDBPath()); err != nil {
		logger.Warn("Failed to open database, today's spin will not be remembered", zap.Error(err))
		store = eligibility.NewMemoryStore()
	} else {
		defer localdb.Close()
		store = localdb.NewKVStore(localdb.GetDB())
		history = localdb.HistoryRecorder{}
	}

	// env.LoadEnv must run after DB initialization.
	env.LoadEnv()
	if env.Value.DebugMode {
		if err := logger.InitFile(paths.GetLogPath(), true); err != nil {
			fmt.Fprintf(os.Stderr, "failed to reopen log file: %v\n", err)
		}
	}

	table, err := wheel.LoadTableOrDefault(env.Value.SegmentsFile)
	if err != nil {
		logger.Warn("Failed to load segment file, using default segments",
			zap.String("path", env.Value.SegmentsFile), zap.Error(err))
	}

	sound := audio.NewSoundManager(env.Value.SoundEnabled)
	if err := sound.Initialize(); err != nil {
		// 音が出なくても遊べる
		logger.Warn("Audio initialization failed", zap.Error(err))
	}
	defer sound.Cleanup()

	screen, err := tcell.NewScreen()
	if err != nil {
		logger.Error("Failed to create screen", zap.Error(err))
		fmt.Fprintf(os.Stderr, "failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		logger.Error("Failed to initialize screen", zap.Error(err))
		fmt.Fprintf(os.Stderr, "failed to initialize screen: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	a, err := newApp(screen, appConfig{
		table:   table,
		gate:    eligibility.NewGate(store, env.Value.Location()),
		history: history,
		sound:   sound,
	})
	if err != nil {
		screen.Fini()
		logger.Error("Failed to start wheel", zap.Error(err))
		fmt.Fprintf(os.Stderr, "failed to start wheel: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Terminal wheel started", zap.Int("segments", table.Count()))
	a.run(env.Value.FrameInterval())
	logger.Info("Terminal wheel stopped")
}
