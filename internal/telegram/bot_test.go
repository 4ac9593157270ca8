package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallbackPayload(t *testing.T) {
	assert.Equal(t, "cat:abc-123", callbackPayload("\fpick|cat:abc-123"))
	assert.Equal(t, "confirm:yes", callbackPayload("\fpick|confirm:yes"))
	// Data without framing passes through untouched.
	assert.Equal(t, "confirm:no", callbackPayload("confirm:no"))
	assert.Equal(t, "", callbackPayload(""))
}
