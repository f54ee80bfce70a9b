package webserver

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ichi0g0y/fortune-wheel/internal/broadcast"
	"github.com/ichi0g0y/fortune-wheel/internal/eligibility"
	"github.com/ichi0g0y/fortune-wheel/internal/env"
	"github.com/ichi0g0y/fortune-wheel/internal/localdb"
	"github.com/ichi0g0y/fortune-wheel/internal/roulette"
	"github.com/ichi0g0y/fortune-wheel/internal/settings"
	"github.com/ichi0g0y/fortune-wheel/internal/spin"
	"github.com/ichi0g0y/fortune-wheel/internal/types"
	"github.com/ichi0g0y/fortune-wheel/internal/wheel"
)

func setupWheelAPITest(t *testing.T) (*roulette.Session, *spin.ManualClock) {
	t.Helper()

	if localdb.DBClient != nil {
		_ = localdb.DBClient.Close()
		localdb.DBClient = nil
	}

	dbPath := filepath.Join(t.TempDir(), "local.db")
	db, err := localdb.SetupDB(dbPath)
	if err != nil {
		t.Fatalf("SetupDB failed: %v", err)
	}

	clock := spin.NewManualClock(time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC))
	session, err := roulette.NewSession(roulette.Options{
		Table:   wheel.DefaultTable(),
		Gate:    eligibility.NewGate(localdb.NewKVStore(db), time.UTC),
		Planner: spin.NewPlanner(func() float64 { return 0.25 }),
		Clock:   clock,
		Events:  broadcast.Func(func(string, interface{}) {}),
		History: localdb.HistoryRecorder{},
	})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	SetSession(session)

	t.Cleanup(func() {
		SetSession(nil)
		_ = db.Close()
		localdb.DBClient = nil
	})
	return session, clock
}

func finishSpin(t *testing.T, s *roulette.Session, clock *spin.ManualClock) {
	t.Helper()
	for i := 0; i < 1000 && s.Running(); i++ {
		clock.Advance(50 * time.Millisecond)
		s.Tick()
	}
	if s.Running() {
		t.Fatalf("spin did not finish")
	}
}

func postSpin(t *testing.T) (*httptest.ResponseRecorder, spinResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/wheel/spin", nil)
	rec := httptest.NewRecorder()
	handleWheelSpin(rec, req)

	var resp spinResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode spin response: %v body=%s", err, rec.Body.String())
	}
	return rec, resp
}

func TestHandleWheelSpin_Lifecycle(t *testing.T) {
	session, clock := setupWheelAPITest(t)

	rec, resp := postSpin(t)
	if rec.Code != http.StatusOK || !resp.Accepted {
		t.Fatalf("first spin must be accepted: code=%d body=%s", rec.Code, rec.Body.String())
	}
	if resp.Plan == nil || resp.Plan.DurationMS < 5000 || resp.Plan.DurationMS >= 8000 {
		t.Fatalf("unexpected plan: %+v", resp.Plan)
	}
	if resp.Status.State != roulette.StatusSpinning {
		t.Fatalf("unexpected state: got=%s want=%s", resp.Status.State, roulette.StatusSpinning)
	}

	rec, resp = postSpin(t)
	if rec.Code != http.StatusOK || resp.Accepted {
		t.Fatalf("spin while running must be ignored: code=%d body=%s", rec.Code, rec.Body.String())
	}

	finishSpin(t, session, clock)

	rec, resp = postSpin(t)
	if rec.Code != http.StatusConflict || resp.Accepted {
		t.Fatalf("second spin on the same day must conflict: code=%d body=%s", rec.Code, rec.Body.String())
	}
	if resp.Status.State != roulette.StatusDoneToday {
		t.Fatalf("unexpected state: got=%s want=%s", resp.Status.State, roulette.StatusDoneToday)
	}

	statusRec := httptest.NewRecorder()
	handleWheelStatus(statusRec, httptest.NewRequest(http.MethodGet, "/api/wheel/status", nil))
	var status types.WheelStatus
	if err := json.Unmarshal(statusRec.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status.LastResult == nil || !strings.Contains(status.Message, status.LastResult.Label) {
		t.Fatalf("status must announce the result: %+v", status)
	}

	resetRec := httptest.NewRecorder()
	handleWheelReset(resetRec, httptest.NewRequest(http.MethodPost, "/api/wheel/reset", nil))
	if resetRec.Code != http.StatusOK {
		t.Fatalf("reset status mismatch: got=%d want=%d", resetRec.Code, http.StatusOK)
	}
	if got := session.Status().State; got != roulette.StatusReady {
		t.Fatalf("unexpected state after reset: got=%s want=%s", got, roulette.StatusReady)
	}
}

func TestHandleWheelHistory_ListAndDelete(t *testing.T) {
	session, clock := setupWheelAPITest(t)

	if _, err := session.Spin(); err != nil {
		t.Fatalf("Spin failed: %v", err)
	}
	finishSpin(t, session, clock)

	rec := httptest.NewRecorder()
	handleWheelHistory(rec, httptest.NewRequest(http.MethodGet, "/api/wheel/history?limit=10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("history status mismatch: got=%d want=%d", rec.Code, http.StatusOK)
	}

	var body struct {
		History []types.SpinRecord `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if len(body.History) != 1 {
		t.Fatalf("unexpected history length: got=%d want=1", len(body.History))
	}

	delRec := httptest.NewRecorder()
	handleWheelHistoryItem(delRec, httptest.NewRequest(http.MethodDelete, "/api/wheel/history/"+body.History[0].ID, nil))
	if delRec.Code != http.StatusOK {
		t.Fatalf("delete status mismatch: got=%d want=%d", delRec.Code, http.StatusOK)
	}

	remaining, err := localdb.GetSpinHistory(0)
	if err != nil {
		t.Fatalf("GetSpinHistory failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("history was not deleted: %+v", remaining)
	}

	badRec := httptest.NewRecorder()
	handleWheelHistory(badRec, httptest.NewRequest(http.MethodGet, "/api/wheel/history?limit=abc", nil))
	if badRec.Code != http.StatusBadRequest {
		t.Fatalf("invalid limit status mismatch: got=%d want=%d", badRec.Code, http.StatusBadRequest)
	}
}

func TestHandleWheelImage(t *testing.T) {
	setupWheelAPITest(t)

	rec := httptest.NewRecorder()
	handleWheelImage(rec, httptest.NewRequest(http.MethodGet, "/api/wheel/image.png?angle=1.5&size=128", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("image status mismatch: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type: %q", ct)
	}

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 128 || b.Dy() != 128 {
		t.Fatalf("unexpected image size: %v", b)
	}

	badRec := httptest.NewRecorder()
	handleWheelImage(badRec, httptest.NewRequest(http.MethodGet, "/api/wheel/image.png?angle=north", nil))
	if badRec.Code != http.StatusBadRequest {
		t.Fatalf("invalid angle status mismatch: got=%d want=%d", badRec.Code, http.StatusBadRequest)
	}
}

func TestImageSize_FallsBackToConfiguredSize(t *testing.T) {
	saved := env.Value
	t.Cleanup(func() { env.Value = saved })

	env.Value.ImageSize = 300
	cases := []struct {
		requested int
		want      int
	}{
		{requested: 0, want: 300},
		{requested: 128, want: 128},
		{requested: 10, want: 300},
		{requested: 100000, want: 300},
	}
	for _, tc := range cases {
		if got := imageSize(tc.requested); got != tc.want {
			t.Fatalf("imageSize(%d): got=%d want=%d", tc.requested, got, tc.want)
		}
	}

	env.Value.ImageSize = 5000
	if got := imageSize(0); got != maxImageSize {
		t.Fatalf("oversized configured size must clamp: got=%d want=%d", got, maxImageSize)
	}
}

func TestHandleWheelQR(t *testing.T) {
	rec := httptest.NewRecorder()
	handleWheelQR(rec, httptest.NewRequest(http.MethodGet, "http://localhost:8080/api/wheel/qr.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("qr status mismatch: got=%d want=%d", rec.Code, http.StatusOK)
	}
	if _, err := png.Decode(bytes.NewReader(rec.Body.Bytes())); err != nil {
		t.Fatalf("failed to decode QR PNG: %v", err)
	}
}

func TestHandleWheel_WithoutSession(t *testing.T) {
	SetSession(nil)

	rec := httptest.NewRecorder()
	handleWheelSpin(rec, httptest.NewRequest(http.MethodPost, "/api/wheel/spin", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status mismatch: got=%d want=%d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestHandleWheel_SegmentsAndMethod(t *testing.T) {
	setupWheelAPITest(t)

	rec := httptest.NewRecorder()
	handleWheel(rec, httptest.NewRequest(http.MethodGet, "/api/wheel", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got=%d want=%d", rec.Code, http.StatusOK)
	}

	var body struct {
		Segments []wheel.Segment `json:"segments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode wheel: %v", err)
	}
	if len(body.Segments) != 8 {
		t.Fatalf("unexpected segment count: got=%d want=8", len(body.Segments))
	}

	getRec := httptest.NewRecorder()
	handleWheelSpin(getRec, httptest.NewRequest(http.MethodGet, "/api/wheel/spin", nil))
	if getRec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status mismatch: got=%d want=%d", getRec.Code, http.StatusMethodNotAllowed)
	}
}

func putSettings(t *testing.T, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	handleSettings(rec, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(body)))

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode settings response: %v body=%s", err, rec.Body.String())
	}
	return rec, resp
}

func TestHandleSettings_GetAndPut(t *testing.T) {
	setupWheelAPITest(t)
	env.DotEnvPath = filepath.Join(t.TempDir(), "missing.env")
	t.Cleanup(func() { env.DotEnvPath = ".env" })
	t.Setenv("WHEEL_IMAGE_SIZE", "")
	t.Setenv("WHEEL_FRAME_RATE", "")

	getRec := httptest.NewRecorder()
	handleSettings(getRec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	if getRec.Code != http.StatusOK {
		t.Fatalf("GET status mismatch: got=%d want=%d", getRec.Code, http.StatusOK)
	}

	putRec, resp := putSettings(t, `{"WHEEL_IMAGE_SIZE":"500"}`)
	if putRec.Code != http.StatusOK {
		t.Fatalf("PUT status mismatch: got=%d want=%d body=%s", putRec.Code, http.StatusOK, putRec.Body.String())
	}
	if resp["restart_required"] != false {
		t.Fatalf("image size applies without restart: got=%v", resp["restart_required"])
	}
	if env.Value.ImageSize != 500 {
		t.Fatalf("env.Value not rebuilt after PUT: got=%d want=500", env.Value.ImageSize)
	}

	rateRec, rateResp := putSettings(t, `{"WHEEL_FRAME_RATE":"30"}`)
	if rateRec.Code != http.StatusOK {
		t.Fatalf("PUT status mismatch: got=%d want=%d body=%s", rateRec.Code, http.StatusOK, rateRec.Body.String())
	}
	if rateResp["restart_required"] != true {
		t.Fatalf("frame rate is read at startup: got=%v want=true", rateResp["restart_required"])
	}

	badRec := httptest.NewRecorder()
	handleSettings(badRec, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(`{"WHEEL_FRAME_RATE":"0"}`)))
	if badRec.Code != http.StatusBadRequest {
		t.Fatalf("invalid PUT status mismatch: got=%d want=%d", badRec.Code, http.StatusBadRequest)
	}
}

func TestHandleSettings_PutShadowedByEnvironment(t *testing.T) {
	setupWheelAPITest(t)
	env.DotEnvPath = filepath.Join(t.TempDir(), "missing.env")
	t.Cleanup(func() { env.DotEnvPath = ".env" })
	t.Setenv("WHEEL_IMAGE_SIZE", "300")
	env.LoadEnv()

	rec, resp := putSettings(t, `{"WHEEL_IMAGE_SIZE":"500","WHEEL_SOUND_ENABLED":"false"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status mismatch: got=%d want=%d body=%s", rec.Code, http.StatusConflict, rec.Body.String())
	}
	shadowed, _ := resp["shadowed_by_env"].([]interface{})
	if len(shadowed) != 1 || shadowed[0] != "WHEEL_IMAGE_SIZE" {
		t.Fatalf("unexpected shadowed keys: got=%v want=[WHEEL_IMAGE_SIZE]", resp["shadowed_by_env"])
	}

	stored, err := settings.NewSettingsManager(localdb.GetDB()).GetSetting("WHEEL_SOUND_ENABLED")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if stored != "true" {
		t.Fatalf("rejected PUT must not write any setting: got=%q want=%q", stored, "true")
	}
	if env.Value.ImageSize != 300 {
		t.Fatalf("unexpected image size: got=%d want=300", env.Value.ImageSize)
	}
}

func TestNewHandler_CORSAndStaticPage(t *testing.T) {
	handler := NewHandler([]string{"*"})

	req := httptest.NewRequest(http.MethodOptions, "/api/wheel/spin", nil)
	req.Header.Set("Origin", "http://overlay.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("preflight must set Access-Control-Allow-Origin")
	}

	pageRec := httptest.NewRecorder()
	handler.ServeHTTP(pageRec, httptest.NewRequest(http.MethodGet, "/", nil))
	if pageRec.Code != http.StatusOK {
		t.Fatalf("page status mismatch: got=%d want=%d", pageRec.Code, http.StatusOK)
	}
	if !strings.Contains(pageRec.Body.String(), "/api/wheel/spin") {
		t.Fatalf("overlay page must call the spin endpoint")
	}
}
