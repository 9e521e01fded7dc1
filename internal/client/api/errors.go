package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnreachable оборачивает сетевые ошибки и таймауты: сервер недоступен,
// ответа нет. Синхронизация трактует её как "попробовать в следующем цикле".
var ErrUnreachable = errors.New("server unreachable")

// StatusError: сервер ответил, но не 2xx
type StatusError struct {
	Message string // поле error из тела ответа, если было
	Code    int
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded with status %d", e.Code)
	}
	return fmt.Sprintf("server responded with status %d: %s", e.Code, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// IsRejected reports a 4xx answer: the server understood and refused the request.
func IsRejected(err error) bool {
	code := StatusCode(err)
	return code >= http.StatusBadRequest && code < http.StatusInternalServerError
}

// IsInvalidRecord reports a rejection of the submitted record itself: the same
// payload will never be accepted. Auth failures, conflicts and throttling are
// not included.
func IsInvalidRecord(err error) bool {
	switch StatusCode(err) {
	case http.StatusBadRequest,
		http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType,
		http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// IsRetryable reports errors worth retrying later: no answer at all or a 5xx.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrUnreachable) {
		return true
	}
	return StatusCode(err) >= http.StatusInternalServerError
}
