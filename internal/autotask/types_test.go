package autotask

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemOK(t *testing.T) {
	t.Run("unwraps item envelope", func(t *testing.T) {
		item, ok := ItemOK(json.RawMessage(`{"item":{"id":7,"title":"x"}}`))
		assert.True(t, ok)
		assert.JSONEq(t, `{"id":7,"title":"x"}`, string(item))
	})

	t.Run("null item means no entity", func(t *testing.T) {
		_, ok := ItemOK(json.RawMessage(`{"item":null}`))
		assert.False(t, ok)
	})

	t.Run("bare document passes through", func(t *testing.T) {
		item, ok := ItemOK(json.RawMessage(`{"id":7}`))
		assert.True(t, ok)
		assert.JSONEq(t, `{"id":7}`, string(item))
	})
}

func TestCreatedID(t *testing.T) {
	t.Run("from itemId", func(t *testing.T) {
		assert.Equal(t, int64(42), CreatedID(json.RawMessage(`{"itemId":42}`)))
	})

	t.Run("from item envelope", func(t *testing.T) {
		assert.Equal(t, int64(42), CreatedID(json.RawMessage(`{"item":{"id":42}}`)))
	})

	t.Run("absent", func(t *testing.T) {
		assert.Equal(t, int64(0), CreatedID(json.RawMessage(`{"success":true}`)))
	})
}
