package webserver

import "net/http"

// RegisterWheelRoutes はホイール関連のルートを登録
func RegisterWheelRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/wheel", handleWheel)
	mux.HandleFunc("/api/wheel/spin", handleWheelSpin)
	mux.HandleFunc("/api/wheel/status", handleWheelStatus)
	mux.HandleFunc("/api/wheel/reset", handleWheelReset)
	mux.HandleFunc("/api/wheel/image.png", handleWheelImage)
	mux.HandleFunc("/api/wheel/qr.png", handleWheelQR)
	mux.HandleFunc("/api/wheel/history", handleWheelHistory)
	mux.HandleFunc("/api/wheel/history/", handleWheelHistoryItem)
}
