package ipc

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// MessageKind identifies the type of an envelope. The set is closed; any
// other value on the wire is ignored by the dispatcher.
type MessageKind string

// Envelope kinds exchanged with the parent.
const (
	// KindReady is sent by the child once at startup.
	KindReady MessageKind = "ready"

	// KindLoad carries a load descriptor from the parent.
	KindLoad MessageKind = "load"

	// KindLoaded is sent by the child after the extension is loaded.
	KindLoaded MessageKind = "loaded"

	// KindStart instructs the child to start the loaded extension.
	KindStart MessageKind = "start"

	// KindError reports a non-fatal error to the parent.
	KindError MessageKind = "error"
)

// Valid reports whether k is one of the defined kinds.
func (k MessageKind) Valid() bool {
	switch k {
	case KindReady, KindLoad, KindLoaded, KindStart, KindError:
		return true
	default:
		return false
	}
}

// Envelope is a single typed message. Data is kind-specific and may be empty.
type Envelope struct {
	ID   MessageKind     `json:"id"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ParseEnvelope decodes a raw wire message into an Envelope.
// Returns false for malformed JSON, a missing id, or an unrecognized kind;
// such messages are dropped by the caller without error.
func ParseEnvelope(raw []byte) (Envelope, bool) {
	if !gjson.ValidBytes(raw) {
		return Envelope{}, false
	}

	id := gjson.GetBytes(raw, "id")
	if !id.Exists() {
		return Envelope{}, false
	}

	kind := MessageKind(id.String())
	if !kind.Valid() {
		return Envelope{}, false
	}

	env := Envelope{ID: kind}
	if data := gjson.GetBytes(raw, "data"); data.Exists() {
		env.Data = json.RawMessage(data.Raw)
	}
	return env, true
}
