package utils

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/username/inversure/backend/src/logger"
)

// SendJSONError writes a JSON body of the form {"error": message} with the
// given status code.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(map[string]string{"error": message})
	if err != nil {
		logger.L.Error("Failed to encode JSON error response", "originalMessage", message, "statusCode", statusCode, "encodeError", err)
	}
}

// SendJSON marshals payload and writes it with the given status code.
func SendJSON(w http.ResponseWriter, payload interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("Failed to encode JSON response", "statusCode", statusCode, "encodeError", err)
	}
}

// GenerateETag produces a strong entity tag for any JSON-serializable value.
// Two values with identical JSON encodings share a tag, which is what lets
// callers skip redundant writes.
func GenerateETag(data interface{}) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal data for ETag generation: %w", err)
	}
	hash := sha256.Sum256(jsonData)
	return fmt.Sprintf("\"%x\"", hash), nil
}
