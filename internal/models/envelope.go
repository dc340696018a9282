package models

import (
	"encoding/json"
	"maps"
	"time"
)

// Status tags an [Envelope] as a success or a failure.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Envelope is the response wrapper produced by every outward-facing operation.
//
// A success envelope carries a payload and a timestamp; an error envelope carries an error label and a message.
// Payload keys are flattened into the top-level JSON object next to the tag.
type Envelope struct {
	status    Status
	label     string
	message   string
	fields    map[string]any
	timestamp time.Time
}

// Success wraps payload in a success envelope stamped with ts.
func Success(payload map[string]any, ts time.Time) Envelope {
	return Envelope{status: StatusSuccess, fields: maps.Clone(payload), timestamp: ts}
}

// Failure returns an error envelope with a short label and a human readable message.
func Failure(label, message string) Envelope {
	return Envelope{status: StatusError, label: label, message: message}
}

// With returns a copy of the envelope with an extra top-level field.
func (e Envelope) With(key string, value any) Envelope {
	fields := maps.Clone(e.fields)
	if fields == nil {
		fields = make(map[string]any, 1)
	}
	fields[key] = value
	e.fields = fields
	return e
}

// Status reports whether the envelope is a success or an error.
func (e Envelope) Status() Status {
	return e.status
}

// IsSuccess is shorthand for Status() == StatusSuccess.
func (e Envelope) IsSuccess() bool {
	return e.status == StatusSuccess
}

// Label is the short error label, empty on success.
func (e Envelope) Label() string {
	return e.label
}

func (e Envelope) Message() string {
	return e.message
}

// Field returns the top-level field k, or nil when absent.
func (e Envelope) Field(k string) any {
	return e.fields[k]
}

// MarshalJSON flattens the envelope into a single JSON object.
func (e Envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.fields)+3)
	for k, v := range e.fields {
		out[k] = v
	}

	out["status"] = e.status
	switch e.status {
	case StatusSuccess:
		out["timestamp"] = e.timestamp
	default:
		out["error"] = e.label
		out["message"] = e.message
	}

	return json.Marshal(out)
}
