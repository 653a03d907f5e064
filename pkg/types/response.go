package types

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// DeleteResult is the body returned after a successful removal.
type DeleteResult struct {
	Success bool `json:"success"`
}
