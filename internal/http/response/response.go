package response

import (
	"encoding/json"
	"net/http"

	"github.com/authcraft/account-service/pkg/logger"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

// Envelope is the response body shape for every endpoint:
// {status, message} plus an optional data payload.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func write(w http.ResponseWriter, statusCode int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// Success writes a 200 {status:"success", message} response.
func Success(w http.ResponseWriter, message string) {
	write(w, http.StatusOK, Envelope{Status: StatusSuccess, Message: message})
}

// SuccessWithData writes a 200 success response carrying a data payload.
func SuccessWithData(w http.ResponseWriter, message string, data interface{}) {
	write(w, http.StatusOK, Envelope{Status: StatusSuccess, Message: message, Data: data})
}

// Fail writes a {status:"fail", message} response. Most business-rule
// failures go out as 200; the OTP endpoints use 401.
func Fail(w http.ResponseWriter, statusCode int, message string) {
	write(w, statusCode, Envelope{Status: StatusFail, Message: message})
}
