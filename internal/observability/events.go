package observability

// EventEnvelope is the wire form of a client lifecycle event published to the
// events exchange. EventType groups events under a routing key family
// (ws_events); EventName is the specific transition, e.g. ws_connect,
// ws_reconnect, ws_disconnect.
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// BuildHeaders correlates a published event with the request id and trace
// that produced it. Empty values are left out of the headers.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
