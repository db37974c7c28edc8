package models

// APIStatus is the status field of an API envelope.
type APIStatus string

const (
	APIStatusOK       APIStatus = "ok"
	APIStatusError    APIStatus = "error"
	APIStatusRecorded APIStatus = "recorded"
)

// APIResponse is the JSON envelope of every API response.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

func envelope(status APIStatus, message string, result interface{}) APIResponse {
	return APIResponse{Status: string(status), Message: message, Result: result}
}

// Success wraps a read result.
func Success(result interface{}) APIResponse {
	return envelope(APIStatusOK, "", result)
}

// SuccessWithMessage wraps a result with a human-readable note, e.g. after signup.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return envelope(APIStatusOK, message, result)
}

// Error carries a client-facing failure message and no result.
func Error(message string) APIResponse {
	return envelope(APIStatusError, message, nil)
}

// Recorded acknowledges a write, optionally returning the stored row.
func Recorded(result interface{}) APIResponse {
	return envelope(APIStatusRecorded, "", result)
}
