package webserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/ichi0g0y/fortune-wheel/internal/eligibility"
	"github.com/ichi0g0y/fortune-wheel/internal/env"
	"github.com/ichi0g0y/fortune-wheel/internal/localdb"
	"github.com/ichi0g0y/fortune-wheel/internal/render"
	"github.com/ichi0g0y/fortune-wheel/internal/render/raster"
	"github.com/ichi0g0y/fortune-wheel/internal/roulette"
	"github.com/ichi0g0y/fortune-wheel/internal/shared/logger"
	"github.com/ichi0g0y/fortune-wheel/internal/spin"
	"github.com/ichi0g0y/fortune-wheel/internal/types"
	"github.com/ichi0g0y/fortune-wheel/internal/wheel"
)

const (
	minImageSize = 64
	maxImageSize = 2048
	qrImageSize  = 256
)

var (
	sessionMu    sync.RWMutex
	wheelSession *roulette.Session
)

// SetSession registers the session the wheel handlers operate on.
func SetSession(s *roulette.Session) {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	wheelSession = s
}

func currentSession() *roulette.Session {
	sessionMu.RLock()
	defer sessionMu.RUnlock()
	return wheelSession
}

type spinResponse struct {
	Accepted bool              `json:"accepted"`
	Reason   string            `json:"reason,omitempty"`
	Plan     *planResponse     `json:"plan,omitempty"`
	Status   types.WheelStatus `json:"status"`
}

type planResponse struct {
	StartAngle    float64 `json:"start_angle"`
	TotalRotation float64 `json:"total_rotation"`
	DurationMS    int64   `json:"duration_ms"`
	TerminalAngle float64 `json:"terminal_angle"`
}

func newPlanResponse(p spin.Plan) *planResponse {
	return &planResponse{
		StartAngle:    p.StartAngle,
		TotalRotation: p.TotalRotation,
		DurationMS:    p.Duration.Milliseconds(),
		TerminalAngle: p.TerminalAngle(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"error": msg})
}

// requireSession writes 503 when the server was started without a session.
func requireSession(w http.ResponseWriter) (*roulette.Session, bool) {
	s := currentSession()
	if s == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "wheel is not ready")
		return nil, false
	}
	return s, true
}

func handleWheel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := requireSession(w)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"segments": s.Table().Segments(),
		"arc":      s.Table().Arc(),
		"pointer":  wheel.PointerAngle,
		"status":   s.Status(),
	})
}

func handleWheelSpin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := requireSession(w)
	if !ok {
		return
	}

	plan, err := s.Spin()
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, spinResponse{
			Accepted: true,
			Plan:     newPlanResponse(plan),
			Status:   s.Status(),
		})
	case errors.Is(err, roulette.ErrSpinInProgress):
		writeJSON(w, http.StatusOK, spinResponse{
			Accepted: false,
			Reason:   err.Error(),
			Status:   s.Status(),
		})
	case errors.Is(err, eligibility.ErrAlreadySpunToday):
		writeJSON(w, http.StatusConflict, spinResponse{
			Accepted: false,
			Reason:   roulette.MessageDoneToday,
			Status:   s.Status(),
		})
	default:
		logger.Error("Failed to start spin", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to start spin")
	}
}

func handleWheelStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := requireSession(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Status())
}

func handleWheelReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := requireSession(w)
	if !ok {
		return
	}

	if err := s.ResetEligibility(); err != nil {
		logger.Error("Failed to reset spin eligibility", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to reset eligibility")
		return
	}
	writeJSON(w, http.StatusOK, s.Status())
}

// handleWheelImage renders the wheel to PNG at ?angle= (radians) or the current rotation.
func handleWheelImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := requireSession(w)
	if !ok {
		return
	}

	angle := s.Angle()
	if v := r.URL.Query().Get("angle"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "Invalid angle", http.StatusBadRequest)
			return
		}
		angle = wheel.Normalize(parsed)
	}

	size := 0
	if v := r.URL.Query().Get("size"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid size", http.StatusBadRequest)
			return
		}
		size = parsed
	}
	size = imageSize(size)

	surface, err := raster.New(size)
	if err != nil {
		logger.Error("Failed to create raster surface", zap.Error(err))
		http.Error(w, "Failed to render wheel", http.StatusInternalServerError)
		return
	}
	render.NewRenderer(s.Table()).Draw(surface, angle)

	var buf bytes.Buffer
	if err := surface.EncodePNG(&buf); err != nil {
		logger.Error("Failed to encode wheel PNG", zap.Error(err))
		http.Error(w, "Failed to render wheel", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// imageSize falls back to WHEEL_IMAGE_SIZE for a missing or out-of-range request.
// WHEEL_IMAGE_SIZE from the environment skips settings validation, so it is clamped too.
func imageSize(requested int) int {
	if requested >= minImageSize && requested <= maxImageSize {
		return requested
	}
	size := env.Value.ImageSize
	if size < minImageSize {
		return minImageSize
	}
	if size > maxImageSize {
		return maxImageSize
	}
	return size
}

// handleWheelQR serves a QR code pointing at the overlay page.
func handleWheelQR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target := strings.TrimSpace(env.Value.PublicURL)
	if target == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		target = scheme + "://" + r.Host + "/"
	}

	png, err := qrcode.Encode(target, qrcode.Medium, qrImageSize)
	if err != nil {
		logger.Error("Failed to encode QR code", zap.Error(err), zap.String("url", target))
		http.Error(w, "Failed to create QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func handleWheelHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	history, err := localdb.GetSpinHistory(limit)
	if err != nil {
		http.Error(w, "Failed to get spin history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

// handleWheelHistoryItem handles DELETE /api/wheel/history/{id}.
func handleWheelHistoryItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/wheel/history/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Invalid history id", http.StatusBadRequest)
		return
	}

	if err := localdb.DeleteSpinHistory(id); err != nil {
		http.Error(w, "Failed to delete spin history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
