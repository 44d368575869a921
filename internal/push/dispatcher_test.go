package push

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatchRoutesByTag(t *testing.T) {
	d := NewDispatcher()
	var progress, other int
	d.Handle("bulk_progress", func(json.RawMessage) { progress++ })
	d.Handle("system_stats", func(json.RawMessage) { other++ })

	d.Dispatch([]byte(`{"event": "bulk_progress", "data": {"trigger_id": 1}}`))
	d.Dispatch([]byte(`{"event": "bulk_progress", "data": {"trigger_id": 2}}`))
	d.Dispatch([]byte(`{"event": "system_stats", "data": {}}`))

	assert.Equal(t, 2, progress)
	assert.Equal(t, 1, other)
}

func TestDispatchIgnoresUnrelatedTags(t *testing.T) {
	d := NewDispatcher()
	var calls int
	d.Handle("bulk_progress", func(json.RawMessage) { calls++ })

	d.Dispatch([]byte(`{"event": "profile_updated", "data": {}}`))
	d.Dispatch([]byte(`{"event": "settings_updated", "data": {}}`))

	assert.Equal(t, 0, calls)
}

func TestDispatchDropsMalformedFrames(t *testing.T) {
	d := NewDispatcher()
	var calls int
	d.Handle("bulk_progress", func(json.RawMessage) { calls++ })

	assert.NotPanics(t, func() {
		d.Dispatch([]byte(`not json at all`))
		d.Dispatch([]byte(`{"data": {"trigger_id": 1}}`)) // missing event tag
		d.Dispatch([]byte(``))
	})
	assert.Equal(t, 0, calls)
}

func TestDispatchDeliversPayloadToHandler(t *testing.T) {
	d := NewDispatcher()
	var got json.RawMessage
	d.Handle("bulk_progress", func(data json.RawMessage) { got = data })

	d.Dispatch([]byte(`{"event": "bulk_progress", "data": {"sent": 45, "failed": 2}}`))

	var payload struct {
		Sent   int `json:"sent"`
		Failed int `json:"failed"`
	}
	assert.NoError(t, json.Unmarshal(got, &payload))
	assert.Equal(t, 45, payload.Sent)
	assert.Equal(t, 2, payload.Failed)
}
