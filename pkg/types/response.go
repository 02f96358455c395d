package types

// ErrorEnvelope is the body of every non-2xx API response.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// MessageEnvelope is returned by mutations that have no entity to echo.
type MessageEnvelope struct {
	Message string `json:"message"`
}
