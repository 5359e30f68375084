// Package socket implements the bridge's event socket: a WebSocket
// endpoint that exchanges JSON frames with web clients.
//
// Every frame has the shape {"event": ..., "ack": ..., "data": ...}.
// A client that wants a reply sets a non-zero ack id; the reply is sent
// back under the same event name and ack id.
package socket

import "encoding/json"

// Client events
const (
	EventGetPrinter   = "getPrinter"
	EventCheckPrinter = "checkPrinter"
	EventPrintData    = "printData"
)

// Server push events
const (
	EventLocalIP = "localIP"
	EventError   = "error"
)

// Frame is one message on the socket
type Frame struct {
	Event string          `json:"event"`
	Ack   uint64          `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Reply is the acknowledgement payload every client event receives
type Reply struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	List       any    `json:"list,omitempty"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
	JobID      string `json:"jobId,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Ack   uint64 `json:"ack,omitempty"`
	Data  any    `json:"data,omitempty"`
}
