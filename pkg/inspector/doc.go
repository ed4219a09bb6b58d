// Package inspector exposes a vigil.Coordinator to debugging tools
// over WebSocket.
//
// A connected tool sends commands ("watchTypes", "watchRecords",
// "release") and receives one JSON frame per diff category with a
// per-session sequence number. Subscriptions live for the lifetime of
// the connection; closing it releases every watch the session held.
//
//	srv := inspector.NewServer(co)
//	http.ListenAndServe(":6390", srv.Handler())
//
// Routes: GET /inspect (WebSocket upgrade), GET /healthz, and
// GET /metrics when a metrics handler is installed.
package inspector
