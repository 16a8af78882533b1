/*
Package handler provides the HTTP handler for WebSocket connection upgrading.

This file contains HandleWebSocket, which rate limits the handshake, resolves
the caller's verified identity from the session cookie, upgrades the
connection, and registers it with the Hub. The identity is bound at
establishment time and never re-verified per event.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"dmchat/internal/app/chat"
	"dmchat/internal/pkg/auth/jwt"
	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/limiter"
	"dmchat/internal/pkg/logx"
	"dmchat/internal/pkg/resp"
)

// wsCloseCodeDuplicate is a custom WebSocket close code (4000-4999 range)
// signalling that this exact connection was already registered. The client
// may retry the handshake.
const wsCloseCodeDuplicate = 4001

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			logx.Warn("WebSocket connection rejected: No verified identity.")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Hub, conn, identity.ID)

		go client.WritePump()

		if customErr := deps.Hub.Register(client); customErr != nil {
			closeMessage := websocket.FormatCloseMessage(wsCloseCodeDuplicate, customErr.Message)
			_ = conn.WriteMessage(websocket.CloseMessage, closeMessage)

			// Stop the write pump; an unregistered client has no read pump
			// cleanup to do it.
			client.Close()
			_ = conn.Close()
			return
		}

		logx.Info("WebSocket connection established", "user_id", identity.ID)

		client.ReadPump()
	}
}
