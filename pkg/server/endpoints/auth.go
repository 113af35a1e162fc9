package endpoints

import (
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/youcash/permission-hub/pkg/audit"
	"github.com/youcash/permission-hub/pkg/model"
	"github.com/youcash/permission-hub/pkg/server"
	"github.com/youcash/permission-hub/pkg/server/middleware"
	"github.com/youcash/permission-hub/pkg/server/store"
)

// LoginResponse is returned by the /login endpoint.
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

// RegisterAuthEndpoints registers login, register and whoami.
func RegisterAuthEndpoints(s *server.Server) {
	auth := s.Router.PathPrefix("/api/v1/auth").Subrouter()
	auth.HandleFunc("/login", handleLogin(s)).Methods("POST")
	auth.HandleFunc("/register", handleRegister(s)).Methods("POST")

	whoami := s.Router.PathPrefix("/api/v1/whoami").Subrouter()
	whoami.Use(s.Auth.Middleware)
	whoami.HandleFunc("", handleWhoami()).Methods("GET")
}

func handleLogin(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds credentialsRequest
		if err := decodeJSON(r, &creds); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		user, err := s.AdminUsers.ByUsername(creds.Username)
		if errors.Is(err, store.ErrNotFound) {
			auditLogin(r, creds.Username, false, "unknown user")
			respondWithError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !user.IsActive {
			auditLogin(r, creds.Username, false, "account is disabled")
			respondWithError(w, http.StatusUnauthorized, "Account is disabled")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
			auditLogin(r, creds.Username, false, "invalid password")
			respondWithError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}

		token, err := s.Auth.IssueToken(user.Username, user.IsAdmin)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		auditLogin(r, user.Username, true, "")
		respondWithJSON(w, http.StatusOK, LoginResponse{
			Token:    token,
			Username: user.Username,
			IsAdmin:  user.IsAdmin,
		})
	}
}

func auditLogin(r *http.Request, username string, success bool, reason string) {
	audit.Log(audit.AuthenticateEvent{
		Username:     username,
		ClientIP:     r.RemoteAddr,
		Success:      success,
		ErrorMessage: reason,
	})
}

func handleRegister(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds credentialsRequest
		if err := decodeJSON(r, &creds); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if creds.Username == "" || creds.Password == "" {
			respondWithError(w, http.StatusBadRequest, "Username and password are required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		user := &model.AdminUser{
			Username:     creds.Username,
			PasswordHash: string(hash),
			IsActive:     true,
			IsAdmin:      creds.IsAdmin,
		}
		if err := s.AdminUsers.Create(user); respondStoreError(w, err) {
			return
		}

		respondWithJSON(w, http.StatusCreated, user)
	}
}

func handleWhoami() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Unable to determine identity")
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"username": identity.Username,
			"is_admin": identity.IsAdmin,
		})
	}
}
