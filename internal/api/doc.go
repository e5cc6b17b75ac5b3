// Package api serves the wireless mesh HTTP API and the WebSocket event
// stream.
//
// Routes live under /api/v1. Commands map onto mesh.Service.Execute and
// answer with the recorded event; rejections come back as 409 or 404 with
// the failure signal as the message. /health and /metrics are served
// without authentication.
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use.
package api
