package endpoints

import (
	"net/http"

	"github.com/youcash/permission-hub/pkg/audit"
	"github.com/youcash/permission-hub/pkg/model"
	"github.com/youcash/permission-hub/pkg/quota"
	"github.com/youcash/permission-hub/pkg/server"
)

// RegisterQuotaEndpoints registers CRUD for per-database storage quotas.
// Create and update push the new limit to the filesystem; delete only
// removes the record, the limit last applied stays in effect.
func RegisterQuotaEndpoints(s *server.Server) {
	api := s.Router.PathPrefix("/api/v1/hdfs-quotas").Subrouter()
	api.Use(s.Auth.Middleware)

	api.HandleFunc("", handleListQuotas(s)).Methods("GET")
	api.HandleFunc("", handleCreateQuota(s)).Methods("POST")
	api.HandleFunc("/{id}", handleGetQuota(s)).Methods("GET")
	api.HandleFunc("/{id}", handleUpdateQuota(s)).Methods("PUT")
	api.HandleFunc("/{id}", handleDeleteQuota(s)).Methods("DELETE")
}

func handleListQuotas(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.Quotas.List(filterFromQuery(r))
		if respondStoreError(w, err) {
			return
		}
		respondWithJSON(w, http.StatusOK, page)
	}
}

func handleGetQuota(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		q, err := s.Quotas.ByID(id)
		if respondStoreError(w, err) {
			return
		}
		respondWithJSON(w, http.StatusOK, q)
	}
}

func handleCreateQuota(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q model.HdfsQuota
		if err := decodeJSON(r, &q); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		q.ID = 0
		if q.Database == "" {
			respondWithError(w, http.StatusBadRequest, "A database name is required")
			return
		}
		if q.QuotaGB <= 0 {
			respondWithError(w, http.StatusBadRequest, "Quota must be positive")
			return
		}
		if err := s.Quotas.Create(&q); respondStoreError(w, err) {
			return
		}

		change := quota.Change{Database: q.Database, QuotaGB: q.QuotaGB}
		err := s.QuotaEnforcer.Apply(r.Context(), change)
		auditQuota(r, q, err)
		if err != nil {
			_ = s.Quotas.Delete(q.ID)
			respondWithError(w, http.StatusBadGateway, err.Error())
			return
		}
		respondWithJSON(w, http.StatusCreated, q)
	}
}

func auditQuota(r *http.Request, q model.HdfsQuota, err error) {
	username, ip := auditActor(r)
	audit.Log(audit.QuotaEvent{
		Username:     username,
		ClientIP:     ip,
		Database:     q.Database,
		QuotaGB:      q.QuotaGB,
		Success:      err == nil,
		ErrorMessage: errMessage(err),
	})
}

func handleUpdateQuota(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		prev, err := s.Quotas.ByID(id)
		if respondStoreError(w, err) {
			return
		}

		var q model.HdfsQuota
		if err := decodeJSON(r, &q); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		q.ID = id
		q.CreatedAt = prev.CreatedAt
		if q.QuotaGB <= 0 {
			respondWithError(w, http.StatusBadRequest, "Quota must be positive")
			return
		}
		if err := s.Quotas.Update(&q); respondStoreError(w, err) {
			return
		}

		change := quota.Change{Database: q.Database, QuotaGB: q.QuotaGB}
		err = s.QuotaEnforcer.Apply(r.Context(), change)
		auditQuota(r, q, err)
		if err != nil {
			old := *prev
			_ = s.Quotas.Update(&old)
			respondWithError(w, http.StatusBadGateway, err.Error())
			return
		}
		respondWithJSON(w, http.StatusOK, q)
	}
}

func handleDeleteQuota(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		if err := s.Quotas.Delete(id); respondStoreError(w, err) {
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
	}
}
