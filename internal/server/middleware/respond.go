package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/iudanet/fieldkeeper/pkg/api"
)

// writeError отвечает JSON-ошибкой в формате api.ErrorResponse
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: message})
}
