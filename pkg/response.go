package pkg

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

var ContentType = struct {
	JSON string
	Text string
}{
	JSON: "application/json",
	Text: "text/plain",
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the uniform shape of every API response.
type Envelope struct {
	Msg        string `json:"msg"`
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
}

func WriteSuccess(w http.ResponseWriter, msg string, statusCode int, data any) {
	WriteEnvelope(w, Envelope{
		Msg:        msg,
		Status:     StatusSuccess,
		StatusCode: statusCode,
		Data:       data,
	})
}

func WriteError(w http.ResponseWriter, msg string, statusCode int, errMsg string) {
	WriteEnvelope(w, Envelope{
		Msg:        msg,
		Status:     StatusError,
		StatusCode: statusCode,
		Error:      errMsg,
	})
}

func WriteEnvelope(w http.ResponseWriter, envelope Envelope) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		log.Errorf("failed to marshal response envelope [%s]: %s", envelope.Msg, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, payload, envelope.StatusCode)
}

func WriteResponse(w http.ResponseWriter, contentType, message string, statusCode int) {
	WriteResponseBytes(w, contentType, []byte(message), statusCode)
}

func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode int) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(statusCode)

	if _, err := w.Write(message); err != nil {
		log.Errorf("failed to write response [%s]: %s", message, err)
	}
}
