package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/username/inversure/backend/src/utils"
)

// Define a custom type for context keys to avoid collisions.
// This type is unexported, making it unique to this package.
type contextKey string

const userIDContextKey contextKey = "userID"

func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	utils.SendJSONError(w, message, statusCode)
}

// GetUserIDFromContext retrieves the authenticated user's ID placed in
// the request context by AuthMiddleware.
func GetUserIDFromContext(r *http.Request) (int64, error) {
	userID, ok := r.Context().Value(userIDContextKey).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in request context")
	}
	return userID, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s '%s'", name, raw)
	}
	return id, nil
}

// effectiveMethod resolves the X-HTTP-Method-Override header. Some
// proxies only let POST through, so PATCH and DELETE may arrive as a
// POST carrying the intended verb in the header.
func effectiveMethod(r *http.Request) string {
	if r.Method == http.MethodPost {
		if override := r.Header.Get("X-HTTP-Method-Override"); override == http.MethodPatch || override == http.MethodDelete {
			return override
		}
	}
	return r.Method
}
