package main

import (
	"errors"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/ichi0g0y/fortune-wheel/internal/audio"
	"github.com/ichi0g0y/fortune-wheel/internal/eligibility"
	"github.com/ichi0g0y/fortune-wheel/internal/render"
	"github.com/ichi0g0y/fortune-wheel/internal/render/term"
	"github.com/ichi0g0y/fortune-wheel/internal/roulette"
	"github.com/ichi0g0y/fortune-wheel/internal/shared/logger"
	"github.com/ichi0g0y/fortune-wheel/internal/spin"
	"github.com/ichi0g0y/fortune-wheel/internal/wheel"
)

const (
	statusRows = 2
	helpText   = "[space] spin  [r] reset today  [q] quit"
)

var (
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleHelp   = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

type app struct {
	screen   tcell.Screen
	surface  *term.Surface
	renderer *render.Renderer
	resolver *wheel.Resolver
	session  *roulette.Session
	sound    *audio.SoundManager

	// segment under the pointer on the previous frame, for the tick sound
	lastIndex int
	notice    string
}

type appConfig struct {
	table    *wheel.Table
	gate     *eligibility.Gate
	clock    spin.Clock
	planner  *spin.Planner
	history  roulette.HistoryRecorder
	sound    *audio.SoundManager
	interval time.Duration
}

func newApp(screen tcell.Screen, cfg appConfig) (*app, error) {
	a := &app{
		screen:    screen,
		surface:   term.New(screen, statusRows),
		renderer:  render.NewRenderer(cfg.table),
		resolver:  wheel.NewResolver(cfg.table),
		sound:     cfg.sound,
		lastIndex: -1,
	}
	if a.sound == nil {
		a.sound = audio.NewSoundManager(false)
	}

	session, err := roulette.NewSession(roulette.Options{
		Table:    cfg.table,
		Gate:     cfg.gate,
		Planner:  cfg.planner,
		Clock:    cfg.clock,
		History:  cfg.history,
		Renderer: roulette.RenderFunc(a.onFrame),
		OnResult: a.onResult,
	})
	if err != nil {
		return nil, err
	}
	a.session = session
	return a, nil
}

func (a *app) onFrame(frame spin.Frame) {
	idx := a.resolver.Index(frame.Angle)
	if a.lastIndex >= 0 && idx != a.lastIndex {
		a.sound.PlayTick()
	}
	a.lastIndex = idx
}

func (a *app) onResult(result roulette.Result) {
	a.sound.PlayFanfare()
	a.notice = ""
	if result.RecordError != "" {
		a.notice = "Could not save today's spin: " + result.RecordError
	}
}

func (a *app) spin() {
	if _, err := a.session.Spin(); err != nil {
		switch {
		case errors.Is(err, roulette.ErrSpinInProgress):
			// 回転中の入力は無視
		case errors.Is(err, eligibility.ErrAlreadySpunToday):
			a.notice = roulette.MessageDoneToday
		default:
			logger.Error("Failed to start spin", zap.Error(err))
			a.notice = "Failed to start spin"
		}
		return
	}
	a.notice = ""
}

func (a *app) reset() {
	if err := a.session.ResetEligibility(); err != nil {
		logger.Warn("Failed to reset eligibility", zap.Error(err))
		a.notice = "Reset failed"
		return
	}
	a.notice = "Today's spin has been reset"
}

// handleEvent returns false when the app should exit.
func (a *app) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyEnter:
			a.spin()
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				a.spin()
			case 'r':
				a.reset()
			}
		}
	case *tcell.EventResize:
		a.screen.Sync()
	}
	a.draw()
	return true
}

func (a *app) draw() {
	a.renderer.Draw(a.surface, a.session.Angle())

	w, h := a.screen.Size()
	status := a.session.Status()
	line := status.Message
	if a.notice != "" {
		line = a.notice
	}
	a.drawLine(h-statusRows, w, line, styleStatus)
	a.drawLine(h-statusRows+1, w, helpText, styleHelp)

	a.screen.Show()
}

func (a *app) drawLine(y, width int, text string, style tcell.Style) {
	if y < 0 {
		return
	}
	runes := []rune(text)
	start := (width - len(runes)) / 2
	if start < 0 {
		start = 0
	}
	for x := 0; x < width; x++ {
		a.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault)
	}
	for i, r := range runes {
		if start+i >= width {
			break
		}
		a.screen.SetContent(start+i, y, r, nil, style)
	}
}

// run is the event loop: key events from a polling goroutine, frames from a ticker.
func (a *app) run(interval time.Duration) {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}

	eventChan := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)

	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventChan <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.draw()
	for {
		select {
		case ev := <-eventChan:
			if !a.handleEvent(ev) {
				return
			}
		case <-ticker.C:
			if _, ok := a.session.Tick(); ok {
				a.draw()
			}
		}
	}
}
