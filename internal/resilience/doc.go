// Package resilience provides the fault tolerance building blocks used by the scraper.
//
// Subpackages:
//   - retry: exponential backoff with jitter, pluggable classification of errors
//   - circuitbreaker: gobreaker wrapper used by the image downloader
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.ImageDownloadConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return fetchImage()
//	})
//
//	err := retry.WithPolicy(ctx, retry.SessionConfig(), classify, nil, func(attempt int) error {
//	    return runPipeline(attempt)
//	})
package resilience
