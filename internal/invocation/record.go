package invocation

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"brane-view/internal/value"
)

// Status is the lifecycle state reported by brane-api.
type Status string

const (
	StatusCreated   Status = "created"
	StatusStarted   Status = "started"
	StatusRunning   Status = "running"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"
	StatusStopped   Status = "stopped"
	StatusHalted    Status = "halted"
	StatusSuspended Status = "suspended"
	StatusResuming  Status = "resuming"
)

// Terminal reports whether no further snapshots are expected for the invocation.
func (s Status) Terminal() bool {
	switch s {
	case StatusComplete, StatusError, StatusStopped:
		return true
	default:
		return false
	}
}

// Record is one observed snapshot of an invocation.
// Timestamps are kept as received; "" means the lifecycle event has not happened.
type Record struct {
	ID           string
	Status       Status
	Created      string
	Started      string
	Stopped      string
	Instructions json.RawMessage
	ReturnValue  *value.Value
}

// wireRecord accepts both the structured field names and the string-encoded
// `instructions_json`/`return_json` columns served by brane-api.
type wireRecord struct {
	ID               json.RawMessage `json:"id"`
	UUID             string          `json:"uuid"`
	Status           json.RawMessage `json:"status"`
	Created          json.RawMessage `json:"created"`
	Started          json.RawMessage `json:"started"`
	Stopped          json.RawMessage `json:"stopped"`
	Instructions     json.RawMessage `json:"instructions"`
	InstructionsJSON json.RawMessage `json:"instructions_json"`
	ReturnValue      json.RawMessage `json:"return_value"`
	ReturnJSON       json.RawMessage `json:"return_json"`
}

var errRecordNotObject = errors.New("invocation record must be a JSON object")

func (r *Record) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errRecordNotObject
	}
	var w wireRecord
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return err
	}

	*r = Record{
		ID:      recordID(w.ID, w.UUID),
		Status:  Status(scalarText(w.Status)),
		Created: scalarText(w.Created),
		Started: scalarText(w.Started),
		Stopped: scalarText(w.Stopped),
	}

	switch {
	case !isNull(w.Instructions):
		r.Instructions = append(json.RawMessage(nil), w.Instructions...)
	case !isNull(w.InstructionsJSON):
		raw := json.RawMessage(scalarText(w.InstructionsJSON))
		if json.Valid(raw) {
			r.Instructions = raw
		} else {
			log.WithField("id", r.ID).Warn("dropping unparsable instructions_json")
		}
	}

	retRaw := w.ReturnValue
	if isNull(retRaw) && !isNull(w.ReturnJSON) {
		retRaw = json.RawMessage(scalarText(w.ReturnJSON))
	}
	if !isNull(retRaw) {
		var v value.Value
		if err := json.Unmarshal(retRaw, &v); err != nil {
			log.WithField("id", r.ID).Warnf("dropping unparsable return value: %v", err)
		} else {
			r.ReturnValue = &v
		}
	}
	return nil
}

type recordOut struct {
	ID           string          `json:"id,omitempty"`
	Status       Status          `json:"status"`
	Created      string          `json:"created,omitempty"`
	Started      string          `json:"started,omitempty"`
	Stopped      string          `json:"stopped,omitempty"`
	Instructions json.RawMessage `json:"instructions,omitempty"`
	ReturnValue  *value.Value    `json:"return_value,omitempty"`
}

// MarshalJSON writes the structured form; string-encoded columns are never emitted.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordOut{
		ID:           r.ID,
		Status:       r.Status,
		Created:      r.Created,
		Started:      r.Started,
		Stopped:      r.Stopped,
		Instructions: r.Instructions,
		ReturnValue:  r.ReturnValue,
	})
}

func recordID(raw json.RawMessage, uuid string) string {
	if uuid = strings.TrimSpace(uuid); uuid != "" {
		return uuid
	}
	if isNull(raw) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return string(bytes.TrimSpace(raw))
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// scalarText returns the string a field holds, or its raw JSON text when it
// is some other kind of value, so that later parsing fails visibly instead of
// the whole record being rejected.
func scalarText(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	return string(bytes.TrimSpace(raw))
}
