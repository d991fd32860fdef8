package topo

import "encoding/json"

// QueryRequest is the JSON-line envelope sent to a node's control socket
// (spec §4.6 "opaque to this layer" — nsnetsim wraps it but never
// interprets the daemon-specific payload inside Body).
type QueryRequest struct {
	Command string          `json:"command"`
	Body    json.RawMessage `json:"body,omitempty"`
}

// QueryResponse is the matching envelope returned by a node's control
// socket. Error is set instead of Body when the daemon reported a
// command-level failure; it never surfaces a DaemonUnready condition,
// which is raised as a Go error before any line is read (internal/daemon
// supervisor.go).
type QueryResponse struct {
	Body  json.RawMessage `json:"body,omitempty"`
	Error string          `json:"error,omitempty"`
}

// EncodeQuery marshals a command and opaque body into the wire form a
// Queryable node's Query method sends down its control socket.
func EncodeQuery(command string, body interface{}) ([]byte, error) {
	var raw json.RawMessage
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(QueryRequest{Command: command, Body: raw})
}

// DecodeResponse unmarshals a control socket's line-delimited reply.
func DecodeResponse(line []byte) (QueryResponse, error) {
	var resp QueryResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return QueryResponse{}, err
	}
	return resp, nil
}
