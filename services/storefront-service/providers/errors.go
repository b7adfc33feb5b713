package providers

import "fmt"

// TransportError is a network failure, timeout or non-2xx answer from a
// provider. It is always safe to show as retryable.
type TransportError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BusinessError is a well-formed provider answer that rejects the request.
// Message is the provider's own text.
type BusinessError struct {
	Provider string
	Code     int
	Message  string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("%s rejected request (code %d): %s", e.Provider, e.Code, e.Message)
}
