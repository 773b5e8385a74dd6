package types

import "time"

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope is the uniform failure shape: a status classification, a
// human-readable message, and the time the failure was observed.
type ErrorEnvelope struct {
	Error     APIError  `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}
