package api

import (
	"errors"
	"syscall"

	"github.com/gofiber/contrib/websocket"

	"github.com/carrot-nav/controller/domain/navigation"
	customlog "github.com/carrot-nav/controller/pkg/log"
)

// TelemetryWebSocketHandler streams every published velocity command to
// the connected client as JSON. The client side is read-only; incoming
// messages are drained just to detect the close handshake.
func TelemetryWebSocketHandler(conn *websocket.Conn, logger customlog.Logger, nav *navigation.Service) {
	logger.Infof("Telemetry WebSocket connected: %s", conn.RemoteAddr())

	commands := nav.Subscribe()
	defer nav.Unsubscribe(commands)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Errorf("Telemetry WS read error: %v", err)
				} else if err != websocket.ErrCloseSent && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
					logger.Infof("Telemetry WS connection closed: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case cmd, ok := <-commands:
			if !ok {
				logger.Infof("Telemetry stream closed, dropping WebSocket: %s", conn.RemoteAddr())
				return
			}
			if err := conn.WriteJSON(cmd); err != nil {
				logger.Warnf("Failed to write telemetry frame: %v", err)
				return
			}
		case <-done:
			logger.Infof("Telemetry WebSocket disconnected: %s", conn.RemoteAddr())
			return
		}
	}
}
