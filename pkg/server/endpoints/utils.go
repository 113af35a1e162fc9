package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/youcash/permission-hub/pkg/audit"
	"github.com/youcash/permission-hub/pkg/reconcile"
	"github.com/youcash/permission-hub/pkg/server/middleware"
	"github.com/youcash/permission-hub/pkg/server/store"
	"github.com/youcash/permission-hub/pkg/sync"
)

// auditActor returns the authenticated username and client address for
// audit events.
func auditActor(r *http.Request) (string, string) {
	username := "-"
	if identity, ok := middleware.IdentityFromContext(r.Context()); ok {
		username = identity.Username
	}
	return username, r.RemoteAddr
}

// auditPermission emits the audit event for one permission change.
// ErrNothingToRevoke counts as success: the desired state held already.
func auditPermission(r *http.Request, operation, kind, database, table, subject, principal string, err error) {
	if errors.Is(err, reconcile.ErrNothingToRevoke) {
		err = nil
	}
	username, ip := auditActor(r)
	audit.Log(audit.PermissionEvent{
		Username:     username,
		ClientIP:     ip,
		Operation:    operation,
		Kind:         kind,
		Database:     database,
		Table:        table,
		Subject:      subject,
		Principal:    principal,
		Success:      err == nil,
		ErrorMessage: errMessage(err),
	})
}

// principalLabel names the principal of a record for audit messages.
func principalLabel(userName, roleName string) string {
	if userName != "" {
		return "user " + userName
	}
	return "role " + roleName
}

func errMessage(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}

func respondWithError(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, map[string]interface{}{"error": payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// decodeJSON decodes the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// pathID extracts the {id} route variable as a uint.
func pathID(r *http.Request) (uint, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// filterFromQuery builds a listing filter from the request's query string.
func filterFromQuery(r *http.Request) store.PermissionFilter {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	return store.PermissionFilter{
		Database: q.Get("db_name"),
		Table:    q.Get("table_name"),
		Column:   q.Get("col_name"),
		UserName: q.Get("user_name"),
		RoleName: q.Get("role_name"),
		Page:     page,
		PageSize: pageSize,
	}
}

// respondStoreError maps store errors onto HTTP statuses. Reports whether
// it wrote a response.
func respondStoreError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, store.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicate):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, err.Error())
	}
	return true
}

// respondSyncError maps reconciliation failures onto HTTP statuses.
// Validation rejections are the caller's fault; everything else means the
// policy authority could not be updated and the local write was rolled
// back.
func respondSyncError(w http.ResponseWriter, err error) {
	var batchErr *sync.PartialBatchError
	switch {
	case reconcile.IsValidation(err):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &batchErr):
		respondWithJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":  batchErr.Error(),
			"failed": batchErr.Failed,
		})
	default:
		respondWithError(w, http.StatusBadGateway, err.Error())
	}
}

func principalsFor(userName, roleName string) reconcile.PrincipalSet {
	var p reconcile.PrincipalSet
	if userName != "" {
		p.Users = []string{userName}
	}
	if roleName != "" {
		p.Roles = []string{roleName}
	}
	return p
}
