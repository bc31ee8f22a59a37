package invocation

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// MimeType is the bundle key the Brane kernel publishes invocations under.
const MimeType = "application/vnd.brane.invocation+json"

// Jupyter message types carrying invocation bundles.
const (
	MsgDisplayData       = "display_data"
	MsgUpdateDisplayData = "update_display_data"
)

var (
	// ErrInvalidFragment means the input is not a JSON object.
	ErrInvalidFragment = errors.New("fragment is not a JSON object")
	// ErrNoInvocation means no invocation record could be located in the fragment.
	ErrNoInvocation = errors.New("fragment carries no invocation")
)

// mimePath is MimeType escaped for gjson paths.
const mimePath = `application/vnd\.brane\.invocation+json`

// Fragment is one document fragment addressed to a display.
type Fragment struct {
	DisplayID string
	Update    bool
	Record    Record
}

// ParseFragment locates the invocation inside a display message, a mime
// bundle, an `{"invocation": …}` wrapper, or a bare record.
func ParseFragment(data []byte) (Fragment, error) {
	if !gjson.ValidBytes(data) {
		return Fragment{}, ErrInvalidFragment
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Fragment{}, ErrInvalidFragment
	}

	inv := firstObject(root,
		"content.data."+mimePath+".invocation",
		"data."+mimePath+".invocation",
		mimePath+".invocation",
		"invocation",
	)
	if !inv.Exists() {
		if !root.Get("status").Exists() {
			return Fragment{}, ErrNoInvocation
		}
		inv = root
	}

	var rec Record
	if err := json.Unmarshal([]byte(inv.Raw), &rec); err != nil {
		return Fragment{}, fmt.Errorf("decode invocation: %w", err)
	}

	msgType := firstString(root, "msg_type", "header.msg_type")
	displayID := firstString(root, "content.transient.display_id", "transient.display_id", "display_id")
	if displayID == "" {
		displayID = rec.ID
	}
	if displayID == "" {
		displayID = uuid.NewString()
	}
	// Journal lines carry "kind" instead of a Jupyter msg_type.
	update := msgType == MsgUpdateDisplayData || root.Get("kind").Str == "update"
	return Fragment{
		DisplayID: displayID,
		Update:    update,
		Record:    rec,
	}, nil
}

func firstObject(root gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := root.Get(p); r.IsObject() {
			return r
		}
	}
	return gjson.Result{}
}

func firstString(root gjson.Result, paths ...string) string {
	for _, p := range paths {
		if r := root.Get(p); r.Type == gjson.String && r.Str != "" {
			return r.Str
		}
	}
	return ""
}
