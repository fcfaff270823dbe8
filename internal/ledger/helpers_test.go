package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalMeta(t *testing.T) {
	t.Run("nil becomes empty object", func(t *testing.T) {
		assert.Equal(t, json.RawMessage(`{}`), marshalMeta(nil))
	})

	t.Run("map marshals to json", func(t *testing.T) {
		got := marshalMeta(map[string]any{"roundId": int64(42)})

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(got, &decoded))
		assert.Equal(t, float64(42), decoded["roundId"])
	})

	t.Run("unmarshalable value falls back to empty object", func(t *testing.T) {
		assert.Equal(t, json.RawMessage(`{}`), marshalMeta(make(chan int)))
	})

	t.Run("struct meta keeps field names", func(t *testing.T) {
		meta := struct {
			BetID  int64  `json:"betId"`
			Choice string `json:"choice"`
		}{BetID: 7, Choice: "1-2-3-4#5"}

		got := marshalMeta(meta)
		assert.JSONEq(t, `{"betId":7,"choice":"1-2-3-4#5"}`, string(got))
	})
}

func TestEnsureJSON(t *testing.T) {
	t.Run("empty data returns empty object", func(t *testing.T) {
		assert.Equal(t, json.RawMessage(`{}`), ensureJSON(nil))
		assert.Equal(t, json.RawMessage(`{}`), ensureJSON(json.RawMessage{}))
	})

	t.Run("valid data passes through", func(t *testing.T) {
		data := json.RawMessage(`{"codeId":"abc"}`)
		assert.Equal(t, data, ensureJSON(data))
	})
}
