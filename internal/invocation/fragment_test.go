package invocation

import (
	"encoding/json"
	"testing"

	"brane-view/internal/value"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const displayMessage = `{
  "msg_type": "update_display_data",
  "content": {
    "data": {
      "application/vnd.brane.invocation+json": {
        "invocation": {
          "uuid": "0f5e6a0c-4c41-4a8e-9d3c-b7a55c7f2a10",
          "status": "complete",
          "created": "2021-03-04T17:05:09Z",
          "started": "2021-03-04T17:05:10Z",
          "stopped": "2021-03-04T17:05:12Z",
          "instructions_json": "[{\"variant\":\"act\",\"name\":\"add\"}]",
          "return_json": "{\"v\":\"integer\",\"c\":3}"
        }
      }
    },
    "metadata": {},
    "transient": {"display_id": "display-7"}
  }
}`

func TestParseFragmentDisplayMessage(t *testing.T) {
	frag, err := ParseFragment([]byte(displayMessage))
	require.NoError(t, err)

	assert.Equal(t, "display-7", frag.DisplayID)
	assert.True(t, frag.Update)
	assert.Equal(t, "0f5e6a0c-4c41-4a8e-9d3c-b7a55c7f2a10", frag.Record.ID)
	assert.Equal(t, StatusComplete, frag.Record.Status)
	assert.JSONEq(t, `[{"variant":"act","name":"add"}]`, string(frag.Record.Instructions))
	require.NotNil(t, frag.Record.ReturnValue)
	assert.Equal(t, "3", value.Decode(*frag.Record.ReturnValue))
}

func TestParseFragmentShapes(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		displayID string
		update    bool
	}{
		{
			name:      "mime bundle",
			raw:       `{"application/vnd.brane.invocation+json":{"invocation":{"id":12,"status":"running"}}}`,
			displayID: "12",
		},
		{
			name:      "invocation wrapper",
			raw:       `{"invocation":{"id":"abc","status":"created"}}`,
			displayID: "abc",
		},
		{
			name:      "bare record",
			raw:       `{"id":"abc","status":"created"}`,
			displayID: "abc",
		},
		{
			name:      "display data without msg type wrapper",
			raw:       `{"data":{"application/vnd.brane.invocation+json":{"invocation":{"status":"created"}}},"transient":{"display_id":"d1"}}`,
			displayID: "d1",
		},
		{
			name:      "first display",
			raw:       `{"msg_type":"display_data","content":{"data":{"application/vnd.brane.invocation+json":{"invocation":{"status":"created"}}},"transient":{"display_id":"d2"}}}`,
			displayID: "d2",
		},
		{
			name:      "journal line",
			raw:       `{"display_id":"d3","kind":"update","ts":"2021-03-04T17:05:09Z","invocation":{"status":"running"}}`,
			displayID: "d3",
			update:    true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frag, err := ParseFragment([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.displayID, frag.DisplayID)
			assert.Equal(t, tc.update, frag.Update)
		})
	}
}

func TestParseFragmentGeneratesDisplayID(t *testing.T) {
	frag, err := ParseFragment([]byte(`{"invocation":{"status":"created"}}`))
	require.NoError(t, err)
	_, err = uuid.Parse(frag.DisplayID)
	assert.NoError(t, err)
}

func TestParseFragmentErrors(t *testing.T) {
	_, err := ParseFragment([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidFragment)

	_, err = ParseFragment([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrInvalidFragment)

	_, err = ParseFragment([]byte(`{"msg_type":"stream","content":{"text":"hi"}}`))
	assert.ErrorIs(t, err, ErrNoInvocation)
}

func TestRecordUnmarshalStructuredFields(t *testing.T) {
	raw := `{
	  "id": "inv",
	  "status": "complete",
	  "instructions": [{"variant":"var","get":[],"set":[]}],
	  "return_value": {"v":"boolean","c":true}
	}`
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	require.NotNil(t, rec.ReturnValue)
	assert.Equal(t, "true", value.Decode(*rec.ReturnValue))
	assert.JSONEq(t, `[{"variant":"var","get":[],"set":[]}]`, string(rec.Instructions))
}

func TestRecordUnmarshalDegradesBadFields(t *testing.T) {
	raw := `{
	  "id": 5,
	  "status": "running",
	  "created": 1614877509,
	  "instructions_json": "{not json",
	  "return_json": "\"just a string\""
	}`
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.Equal(t, "5", rec.ID)
	assert.Nil(t, rec.Instructions)
	assert.Nil(t, rec.ReturnValue)
	assert.Equal(t, "1614877509", rec.Created)

	m := Project(rec)
	assert.Equal(t, "", m.Info.Created)
	assert.Len(t, m.Issues, 1)
}

func TestRecordMarshalRoundTrip(t *testing.T) {
	ret := value.NewUnicode("done")
	rec := Record{
		ID:           "inv",
		Status:       StatusComplete,
		Created:      "2021-03-04T17:05:09Z",
		Instructions: json.RawMessage(`[]`),
		ReturnValue:  &ret,
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec.ID, back.ID)
	assert.Equal(t, rec.Status, back.Status)
	assert.Equal(t, rec.Created, back.Created)
	require.NotNil(t, back.ReturnValue)
	assert.Equal(t, "done", value.Decode(*back.ReturnValue))
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusComplete.Terminal())
	assert.True(t, StatusError.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.False(t, StatusCreated.Terminal())
}
