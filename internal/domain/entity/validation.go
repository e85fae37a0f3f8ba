package entity

import (
	"fmt"
	"net/url"
	"strings"
)

// maxURLLength defines the maximum allowed length for URLs.
const maxURLLength = 2048

// maxPhraseLength bounds the search phrase placed into the search URL.
const maxPhraseLength = 256

// ValidateURL validates the format of a site or image URL.
// It checks that the URL is well-formed, uses HTTP/HTTPS scheme, and has a valid host.
// Returns a ValidationError if the URL is invalid or empty.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	return nil
}

// ValidateSearchPhrase checks that the phrase is usable as a search query.
func ValidateSearchPhrase(phrase string) error {
	trimmed := strings.TrimSpace(phrase)
	if trimmed == "" {
		return &ValidationError{Field: "search_phrase", Message: "search phrase is required"}
	}
	if len(trimmed) > maxPhraseLength {
		return &ValidationError{
			Field:   "search_phrase",
			Message: fmt.Sprintf("search phrase must not exceed %d characters", maxPhraseLength),
		}
	}
	return nil
}
