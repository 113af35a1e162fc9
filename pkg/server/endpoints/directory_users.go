package endpoints

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-multierror"

	"github.com/youcash/permission-hub/pkg/audit"
	"github.com/youcash/permission-hub/pkg/directory"
	"github.com/youcash/permission-hub/pkg/model"
	"github.com/youcash/permission-hub/pkg/quota"
	"github.com/youcash/permission-hub/pkg/reconcile"
	"github.com/youcash/permission-hub/pkg/server"
	"github.com/youcash/permission-hub/pkg/sync"
)

// readerRole is granted select on every personal database so auditors can
// inspect user data without individual grants.
const readerRole = "only_read"

// createDirectoryUserRequest holds everything the provisioning flow
// needs. Password empty means one is generated.
type createDirectoryUserRequest struct {
	Username       string  `json:"username"`
	Password       string  `json:"password,omitempty"`
	DepartmentName string  `json:"department_name"`
	RoleName       string  `json:"role_name,omitempty"`
	QuotaGB        float64 `json:"hdfs_quota,omitempty"`
	Description    string  `json:"description,omitempty"`
}

// directoryUserResponse carries the provisioned record plus the cleartext
// password, which is never returned again after creation.
type directoryUserResponse struct {
	model.DirectoryUser
	Password string `json:"password"`
}

// RegisterDirectoryUserEndpoints registers account provisioning. Create
// builds the LDAP account, its role memberships, the personal database
// grants and the storage quota; delete tears all of that down again.
func RegisterDirectoryUserEndpoints(s *server.Server) {
	api := s.Router.PathPrefix("/api/v1/directory-users").Subrouter()
	api.Use(s.Auth.Middleware)

	api.HandleFunc("", handleListDirectoryUsers(s)).Methods("GET")
	api.HandleFunc("", handleCreateDirectoryUser(s)).Methods("POST")
	api.HandleFunc("/batch", handleImportDirectoryUsers(s)).Methods("POST")
	api.HandleFunc("/{id}", handleGetDirectoryUser(s)).Methods("GET")
	api.HandleFunc("/{id}", handleDeleteDirectoryUser(s)).Methods("DELETE")
	api.HandleFunc("/{id}/password", handleResetDirectoryUserPassword(s)).Methods("POST")
}

// accountName derives the directory account name from the requested
// username and department: the department's first two characters are
// appended as a suffix.
func accountName(username, department string) string {
	if department == "" {
		return username
	}
	prefix := []rune(department)
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return username + "_" + string(prefix)
}

func handleListDirectoryUsers(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.DirectoryUsers.List(filterFromQuery(r))
		if respondStoreError(w, err) {
			return
		}
		respondWithJSON(w, http.StatusOK, page)
	}
}

func handleGetDirectoryUser(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		user, err := s.DirectoryUsers.ByID(id)
		if respondStoreError(w, err) {
			return
		}
		respondWithJSON(w, http.StatusOK, user)
	}
}

func handleCreateDirectoryUser(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createDirectoryUserRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		resp, err := provisionDirectoryUser(r.Context(), s, req)
		auditAccount(r, "provision", accountName(req.Username, req.DepartmentName), req.DepartmentName, err)
		if err != nil {
			switch {
			case errors.Is(err, directory.ErrUserExists):
				respondWithError(w, http.StatusConflict, err.Error())
			case reconcile.IsValidation(err) || errors.Is(err, errBadProvisionRequest):
				respondWithError(w, http.StatusBadRequest, err.Error())
			default:
				respondWithError(w, http.StatusBadGateway, err.Error())
			}
			return
		}
		respondWithJSON(w, http.StatusCreated, resp)
	}
}

var errBadProvisionRequest = errors.New("username and department_name are required")

func auditAccount(r *http.Request, operation, account, department string, err error) {
	username, ip := auditActor(r)
	audit.Log(audit.AccountEvent{
		Username:     username,
		ClientIP:     ip,
		Operation:    operation,
		Account:      account,
		Department:   department,
		Success:      err == nil,
		ErrorMessage: errMessage(err),
	})
}

// provisionDirectoryUser runs the full account setup: the LDAP entry,
// role memberships on the authority, the personal database grants, and
// the storage quota. On any failure the LDAP account and local record are
// removed again so a retry starts clean.
func provisionDirectoryUser(ctx context.Context, s *server.Server, req createDirectoryUserRequest) (*directoryUserResponse, error) {
	if req.Username == "" || req.DepartmentName == "" {
		return nil, errBadProvisionRequest
	}

	account := accountName(req.Username, req.DepartmentName)
	roles := []string{req.DepartmentName}
	if req.RoleName != "" && req.RoleName != req.DepartmentName {
		roles = append(roles, req.RoleName)
	}
	quotaGB := req.QuotaGB
	if quotaGB <= 0 {
		quotaGB = s.Config.DefaultQuotaGB
	}

	acct, err := s.Directory.CreateUser(ctx, account, req.Password, []string{req.DepartmentName})
	if err != nil {
		return nil, err
	}

	cleanup := func() {
		_ = s.Directory.DeleteUser(ctx, account)
	}

	for _, service := range s.Config.Ranger.Services {
		for _, role := range roles {
			members := reconcile.PrincipalSet{Users: []string{account}}
			if _, err := s.Roles.EnsureMembership(ctx, service, role, members); err != nil {
				cleanup()
				return nil, fmt.Errorf("ensuring membership of %q in role %q: %w", account, role, err)
			}
		}
	}

	// The personal database: full access for the owner, read access for
	// the reader role.
	ownerGrant := sync.Record{
		Name: "directory-user/" + account + "/owner",
		Intent: reconcile.AccessIntent{
			Database:   account,
			Table:      "*",
			Accesses:   []string{"all"},
			Principals: reconcile.PrincipalSet{Users: []string{account}},
		},
	}
	readerGrant := sync.Record{
		Name: "directory-user/" + account + "/reader",
		Intent: reconcile.AccessIntent{
			Database:   account,
			Table:      "*",
			Accesses:   []string{"select"},
			Principals: reconcile.PrincipalSet{Roles: []string{readerRole}},
		},
	}
	for _, rec := range []sync.Record{ownerGrant, readerGrant} {
		if err := s.Orchestrator.SyncOne(ctx, reconcile.OpGrant, rec); err != nil {
			cleanup()
			return nil, err
		}
	}

	if err := s.QuotaEnforcer.Apply(ctx, quota.Change{Database: account, QuotaGB: quotaGB}); err != nil {
		cleanup()
		return nil, err
	}

	user := &model.DirectoryUser{
		Username:       account,
		Password:       base64.StdEncoding.EncodeToString([]byte(acct.Password)),
		RoleName:       req.RoleName,
		DepartmentName: req.DepartmentName,
		QuotaGB:        quotaGB,
		Description:    req.Description,
	}
	if err := s.DirectoryUsers.Create(user); err != nil {
		cleanup()
		return nil, err
	}

	return &directoryUserResponse{DirectoryUser: *user, Password: acct.Password}, nil
}

func handleDeleteDirectoryUser(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		user, err := s.DirectoryUsers.ByID(id)
		if respondStoreError(w, err) {
			return
		}
		if err := s.DirectoryUsers.Delete(id); respondStoreError(w, err) {
			return
		}

		// Teardown is best effort: every step is attempted even when an
		// earlier one fails, and the failures are reported together.
		var merr *multierror.Error
		if err := s.Directory.DeleteUser(r.Context(), user.Username); err != nil &&
			!errors.Is(err, directory.ErrUserNotFound) {
			merr = multierror.Append(merr, err)
		}
		for _, service := range s.Config.Ranger.Services {
			if err := s.Roles.RemovePrincipalFromAllRoles(r.Context(), service, user.Username); err != nil {
				merr = multierror.Append(merr, err)
			}
		}
		if err := s.Purger.PurgePrincipal(r.Context(), "user", user.Username); err != nil {
			merr = multierror.Append(merr, err)
		}

		err = merr.ErrorOrNil()
		auditAccount(r, "deprovision", user.Username, user.DepartmentName, err)
		if err != nil {
			respondWithJSON(w, http.StatusBadGateway, map[string]interface{}{
				"deleted": id,
				"error":   err.Error(),
			})
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
	}
}

func handleResetDirectoryUserPassword(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		user, err := s.DirectoryUsers.ByID(id)
		if respondStoreError(w, err) {
			return
		}

		var req struct {
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Password == "" {
			respondWithError(w, http.StatusBadRequest, "A password is required")
			return
		}

		if err := s.Directory.SetPassword(r.Context(), user.Username, req.Password); err != nil {
			if errors.Is(err, directory.ErrUserNotFound) {
				respondWithError(w, http.StatusNotFound, err.Error())
				return
			}
			respondWithError(w, http.StatusBadGateway, err.Error())
			return
		}

		user.Password = base64.StdEncoding.EncodeToString([]byte(req.Password))
		if err := s.DirectoryUsers.Update(user); respondStoreError(w, err) {
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"username": user.Username})
	}
}

func handleImportDirectoryUsers(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reqs []createDirectoryUserRequest
		if err := decodeJSON(r, &reqs); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if len(reqs) == 0 {
			respondWithError(w, http.StatusBadRequest, "Empty batch")
			return
		}

		var (
			created []directoryUserResponse
			failed  []string
			merr    *multierror.Error
		)
		for _, req := range reqs {
			resp, err := provisionDirectoryUser(r.Context(), s, req)
			auditAccount(r, "provision", accountName(req.Username, req.DepartmentName), req.DepartmentName, err)
			if err != nil {
				failed = append(failed, req.Username)
				merr = multierror.Append(merr, fmt.Errorf("%s: %w", req.Username, err))
				continue
			}
			created = append(created, *resp)
		}

		if len(failed) > 0 {
			respondWithJSON(w, http.StatusBadGateway, map[string]interface{}{
				"imported": len(created),
				"items":    created,
				"failed":   failed,
				"error":    merr.Error(),
			})
			return
		}
		respondWithJSON(w, http.StatusCreated, map[string]interface{}{
			"imported": len(created),
			"items":    created,
		})
	}
}
