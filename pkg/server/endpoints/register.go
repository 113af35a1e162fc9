package endpoints

import (
	"github.com/youcash/permission-hub/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterAuthEndpoints(srv)
	RegisterTablePermissionEndpoints(srv)
	RegisterColumnPermissionEndpoints(srv)
	RegisterRowPermissionEndpoints(srv)
	RegisterQuotaEndpoints(srv)
	RegisterDirectoryUserEndpoints(srv)
	RegisterStatusEndpoints(srv)
}
