package wshandler

import (
	"encoding/json"
	"net/http"

	"github.com/hpyride/hpyride/internal/adapter/http/ws/dto"
	ws "github.com/hpyride/hpyride/pkg/wsHub"
)

func errorResponse(conn *ws.Conn, message any) error {
	return conn.Send(dto.ServerMessage{
		Type:  dto.TypeError,
		Error: message,
	})
}

func failedValidationResponse(conn *ws.Conn, errors map[string]string) error {
	return errorResponse(conn, errors)
}

// httpError answers a request that was not upgraded.
func httpError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
