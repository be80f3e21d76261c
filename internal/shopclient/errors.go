package shopclient

import (
	"fmt"
	"net/http"
)

// NetworkError reports a request that never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("shopclient: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is a response with a non-2xx status or success=false. Message
// holds the server's own wording and stays empty when it sent none.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("shopclient: status %d: %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("shopclient: status %d: %s", e.Status, e.Message)
}

func serverError(status int, message string) *ServerError {
	return &ServerError{Status: status, Message: message}
}
