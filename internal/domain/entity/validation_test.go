package entity

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid https URL", url: "https://apnews.com", wantErr: false},
		{name: "valid http URL with path", url: "http://example.com/search?q=x", wantErr: false},
		{name: "valid URL with port", url: "http://127.0.0.1:8080", wantErr: false},
		{name: "empty URL", url: "", wantErr: true},
		{name: "ftp scheme", url: "ftp://example.com", wantErr: true},
		{name: "missing host", url: "https://", wantErr: true},
		{name: "too long", url: "https://example.com/" + strings.Repeat("a", maxURLLength), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSearchPhrase(t *testing.T) {
	assert.NoError(t, ValidateSearchPhrase("climate change"))

	err := ValidateSearchPhrase("   ")
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Equal(t, "search_phrase", vErr.Field)

	assert.Error(t, ValidateSearchPhrase(strings.Repeat("x", maxPhraseLength+1)))
}
