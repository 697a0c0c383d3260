package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	msg, err := encode(Event{Key: "index", Value: map[string]int{"documents": 2}})
	require.NoError(t, err)
	assert.Equal(t, []byte("index"), msg.Key)
	assert.JSONEq(t, `{"documents":2}`, string(msg.Value))
}

func TestEncodeRejectsUnmarshalable(t *testing.T) {
	_, err := encode(Event{Key: "x", Value: make(chan int)})
	assert.Error(t, err)
}
