package webserver

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ichi0g0y/fortune-wheel/internal/broadcast"
	"github.com/ichi0g0y/fortune-wheel/internal/roulette"
	"github.com/ichi0g0y/fortune-wheel/internal/shared/logger"
	"github.com/ichi0g0y/fortune-wheel/internal/version"
)

//go:embed static
var staticAssets embed.FS

var httpServer *http.Server

// NewMux registers every route on a fresh ServeMux.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()

	RegisterWebSocketRoute(mux)
	RegisterWheelRoutes(mux)

	mux.HandleFunc("/api/settings", handleSettings)
	mux.HandleFunc("/status", handleStatus)

	staticFS, err := fs.Sub(staticAssets, "static")
	if err != nil {
		// embedされたディレクトリなので通常は起こらない
		logger.Error("Failed to open embedded overlay assets", zap.Error(err))
		return mux
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	return mux
}

// NewHandler wraps the mux with CORS for the given origins ("*" allows all).
func NewHandler(allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           60 * 15,
	})(NewMux())
}

func StartWebServer(port int, session *roulette.Session, allowedOrigins []string) error {
	// セッションのイベントをWebSocketへ流す
	broadcast.SetBroadcaster(wsBroadcaster{})
	SetSession(session)

	addr := fmt.Sprintf(":%d", port)
	logger.Info("Starting web server", zap.String("address", addr))

	httpServer = &http.Server{
		Addr:         addr,
		Handler:      NewHandler(allowedOrigins),
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 起動直後のバインドエラーだけ待って確認する
	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			logger.Error("Failed to start web server", zap.Error(err))
			return fmt.Errorf("failed to start web server on port %d: %w", port, err)
		}
	case <-time.After(100 * time.Millisecond):
	}

	return nil
}

// Shutdown gracefully shuts down the web server
func Shutdown() {
	if httpServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown web server gracefully", zap.Error(err))
	} else {
		logger.Info("Web server shutdown complete")
	}
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"version":   version.String(),
		"ws_client": ClientCount(),
	}
	if s := currentSession(); s != nil {
		resp["wheel"] = s.Status()
	}
	writeJSON(w, http.StatusOK, resp)
}
