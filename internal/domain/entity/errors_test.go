package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "required field error",
			field:    "search_phrase",
			message:  "search phrase is required",
			expected: "validation error on field 'search_phrase': search phrase is required",
		},
		{
			name:     "empty message",
			field:    "url",
			message:  "",
			expected: "validation error on field 'url': ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ValidationError{
				Field:   tt.field,
				Message: tt.message,
			}

			assert.Equal(t, tt.expected, err.Error())
			assert.True(t, errors.Is(err, ErrValidationFailed))
		})
	}
}

func TestInvalidDeltaError_Error(t *testing.T) {
	err := &InvalidDeltaError{Value: "1.5", Reason: "must be an integer"}

	assert.Equal(t, `invalid month delta "1.5": must be an integer`, err.Error())
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
