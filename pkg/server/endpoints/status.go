package endpoints

import (
	"net/http"
	"os"

	"github.com/youcash/permission-hub/pkg/server"
	"github.com/youcash/permission-hub/pkg/server/store"
)

// StatusResponse represents the response from the /status endpoint
type StatusResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// RegisterStatusEndpoints registers the status endpoint. Status requires
// no auth so load balancers and the wait command can poll it.
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/status", handleStatus(s.Health)).Methods("GET")
}

func handleStatus(healthStore store.HealthStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := os.Getenv("PERMHUB_VERSION_DISPLAY")
		if version == "" {
			version = "0.1.0"
		}

		resp := StatusResponse{Status: "ok", Version: version, Database: "ok"}
		code := http.StatusOK
		if err := healthStore.CheckConnectivity(); err != nil {
			resp.Status = "error"
			resp.Database = "unreachable"
			code = http.StatusServiceUnavailable
		}
		respondWithJSON(w, code, resp)
	}
}
