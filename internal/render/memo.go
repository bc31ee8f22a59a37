package render

import "brane-view/internal/invocation"

// Signature derives the change-detection key of a record. Two records with
// the same signature render identically as far as the controller cares.
type Signature func(invocation.Record) string

// StatusSignature keys records by status only, so volatile fields such as
// timestamps never trigger a repaint on their own.
func StatusSignature(rec invocation.Record) string {
	return string(rec.Status)
}

// Memo is a size-one change-detection cache.
type Memo struct {
	key Signature
	sig string
	set bool
}

// NewMemo returns an empty memo; nil key falls back to StatusSignature.
func NewMemo(key Signature) *Memo {
	if key == nil {
		key = StatusSignature
	}
	return &Memo{key: key}
}

// Changed reports whether rec differs from the last stored signature and
// stores the new one when it does. The first call always reports true.
func (m *Memo) Changed(rec invocation.Record) bool {
	sig := m.key(rec)
	if m.set && sig == m.sig {
		return false
	}
	m.sig = sig
	m.set = true
	return true
}

// Reset forgets the stored signature.
func (m *Memo) Reset() {
	m.sig = ""
	m.set = false
}
