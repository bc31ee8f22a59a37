package invocation

import (
	"encoding/json"
	"fmt"
	"time"

	"brane-view/internal/i18n"
	"brane-view/internal/value"
)

// Info is the metadata block of the presentation model.
type Info struct {
	Status  string `json:"status"`
	Created string `json:"created"`
	Started string `json:"started"`
	Stopped string `json:"stopped"`
}

// Model is the display-ready projection of one Record.
type Model struct {
	ID              string          `json:"id,omitempty"`
	InProgress      bool            `json:"inProgress"`
	FormattedOutput string          `json:"formattedOutput"`
	Info            Info            `json:"info"`
	Instructions    json.RawMessage `json:"instructions,omitempty"`

	// Issues lists the field-level problems that were recovered from while
	// projecting. They never affect the other fields.
	Issues []error `json:"-"`
}

// Projector turns records into presentation models for one observer.
type Projector struct {
	Location *time.Location
	Language i18n.Language
}

// NewProjector returns a projector for loc (time.Local when nil) and lang.
func NewProjector(loc *time.Location, lang i18n.Language) Projector {
	if loc == nil {
		loc = time.Local
	}
	return Projector{Location: loc, Language: i18n.Normalize(string(lang))}
}

// Project derives the presentation model using the local zone and the default language.
func Project(rec Record) Model {
	return NewProjector(nil, i18n.DefaultLanguage).Project(rec)
}

// Project derives a fresh model from rec. It has no side effects; the return
// value is decoded at most once.
func (p Projector) Project(rec Record) Model {
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	layout := p.Language.DateTimeLayout()

	m := Model{
		ID:           rec.ID,
		InProgress:   rec.Status != StatusComplete,
		Instructions: rec.Instructions,
		Info:         Info{Status: string(rec.Status)},
	}

	if rec.ReturnValue != nil {
		out, err := value.DecodeStrict(*rec.ReturnValue)
		if err != nil {
			out = value.Dump(*rec.ReturnValue)
			m.Issues = append(m.Issues, fmt.Errorf("return value: %w", err))
		}
		m.FormattedOutput = out
	}

	fields := []struct {
		name string
		raw  string
		dst  *string
	}{
		{name: "created", raw: rec.Created, dst: &m.Info.Created},
		{name: "started", raw: rec.Started, dst: &m.Info.Started},
		{name: "stopped", raw: rec.Stopped, dst: &m.Info.Stopped},
	}
	for _, f := range fields {
		out, err := formatTimestamp(f.raw, loc, layout)
		if err != nil {
			m.Issues = append(m.Issues, fmt.Errorf("%s: %w", f.name, err))
		}
		*f.dst = out
	}
	return m
}
