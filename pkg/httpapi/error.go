package httpapi

import (
	"encoding/json"
	"net/http"
)

// Pagination mirrors the paging block the backend attaches to list responses.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
}

// Envelope is the response wrapper used by every backend endpoint.
// All fields are optional on the wire.
type Envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data,omitempty"`
	Message    string          `json:"message,omitempty"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

// WriteData writes a successful envelope around data.
func WriteData(w http.ResponseWriter, status int, data any, pagination *Pagination) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return WriteJSON(w, status, &Envelope{
		Success:    true,
		Data:       raw,
		Pagination: pagination,
	})
}

// WriteError writes a failed envelope carrying message.
func WriteError(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, &Envelope{
		Success: false,
		Message: message,
	})
}
