package orch

import "fmt"

// TransportError reports a non-200 reply or a failed round trip.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Request failed: %v", e.Err)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError reports a 200 reply whose body is not JSON.
type MalformedResponseError struct {
	Body string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	body := e.Body
	if len(body) > 300 {
		body = body[:300]
	}
	return fmt.Sprintf("Malformed response: %v: %s", e.Err, body)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
