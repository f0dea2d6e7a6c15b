package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		code     int
		expected ErrorType
	}{
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{418, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.code), func(t *testing.T) {
			err := FromStatusCode(tt.code)
			assert.Equal(t, tt.expected, err.Type)
			assert.Equal(t, tt.code, err.Code)
		})
	}
}

func TestTypeOf(t *testing.T) {
	wrapped := fmt.Errorf("fetching match: %w", New(ErrorTypeParsing, 200, "bad json"))

	assert.Equal(t, ErrorTypeParsing, TypeOf(wrapped))
	assert.True(t, IsType(wrapped, ErrorTypeParsing))
	assert.False(t, IsType(wrapped, ErrorTypeNetwork))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(fmt.Errorf("plain")))
}

func TestErrorString(t *testing.T) {
	err := New(ErrorTypeNetwork, 0, "dial %s", "tcp")
	assert.Equal(t, "network error (code 0): dial tcp", err.Error())
}
