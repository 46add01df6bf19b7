package utils

import (
	"encoding/json"
	"net/http"
)

// envelope is the uniform body for the settlement REST surface.
type envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// JSON writes a success envelope around data.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, envelope{Status: "success", Data: data})
}

// Error writes an error envelope carrying msg.
func Error(w http.ResponseWriter, status int, msg string) {
	write(w, status, envelope{Status: "error", Message: msg})
}
