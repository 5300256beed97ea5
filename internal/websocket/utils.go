package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// An idle admin connection is dropped after readWait without a message
	// or pong.
	readWait       = 5 * time.Minute
	maxMessageSize = 4 << 10
)

// Prepare bounds inbound messages and extends the read deadline on pongs.
func Prepare(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})
}

// WriteTyped sends one event with a write deadline.
func WriteTyped(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

// WriteError sends an error event.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{Event: EventError, Error: errMsg})
}

// ReadJSON decodes the next client message, failing after readWait of silence.
func ReadJSON(conn *websocket.Conn, v any) error {
	if err := conn.SetReadDeadline(time.Now().Add(readWait)); err != nil {
		return err
	}
	return conn.ReadJSON(v)
}
