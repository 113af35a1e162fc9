package endpoints

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/youcash/permission-hub/pkg/model"
	"github.com/youcash/permission-hub/pkg/reconcile"
	"github.com/youcash/permission-hub/pkg/server"
	"github.com/youcash/permission-hub/pkg/sync"
)

// RegisterColumnPermissionEndpoints registers CRUD and batch import for
// column mask grants.
func RegisterColumnPermissionEndpoints(s *server.Server) {
	api := s.Router.PathPrefix("/api/v1/column-permissions").Subrouter()
	api.Use(s.Auth.Middleware)

	api.HandleFunc("", handleListColumnPermissions(s)).Methods("GET")
	api.HandleFunc("", handleCreateColumnPermission(s)).Methods("POST")
	api.HandleFunc("/batch", handleImportColumnPermissions(s)).Methods("POST")
	api.HandleFunc("/{id}", handleGetColumnPermission(s)).Methods("GET")
	api.HandleFunc("/{id}", handleUpdateColumnPermission(s)).Methods("PUT")
	api.HandleFunc("/{id}", handleDeleteColumnPermission(s)).Methods("DELETE")
}

func columnIntent(p model.ColumnPermission) reconcile.MaskIntent {
	return reconcile.MaskIntent{
		Database:   p.Database,
		Table:      p.Table,
		Columns:    []string{p.Column},
		MaskType:   p.MaskType,
		Principals: principalsFor(p.UserName, p.RoleName),
	}
}

func columnRecord(s *server.Server, p model.ColumnPermission) sync.Record {
	id := p.ID
	return sync.Record{
		Name:     fmt.Sprintf("column-permission/%d", id),
		Intent:   columnIntent(p),
		Rollback: func() error { return s.ColumnPermissions.Delete(id) },
	}
}

func handleListColumnPermissions(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.ColumnPermissions.List(filterFromQuery(r))
		if respondStoreError(w, err) {
			return
		}
		respondWithJSON(w, http.StatusOK, page)
	}
}

func handleGetColumnPermission(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		p, err := s.ColumnPermissions.ByID(id)
		if respondStoreError(w, err) {
			return
		}
		respondWithJSON(w, http.StatusOK, p)
	}
}

func handleCreateColumnPermission(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p model.ColumnPermission
		if err := decodeJSON(r, &p); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		p.ID = 0

		if err := columnIntent(p).Validate(reconcile.OpGrant); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.ColumnPermissions.Create(&p); respondStoreError(w, err) {
			return
		}

		err := s.Orchestrator.SyncOne(r.Context(), reconcile.OpGrant, columnRecord(s, p))
		auditPermission(r, "grant", "column", p.Database, p.Table, p.Column, principalLabel(p.UserName, p.RoleName), err)
		if err != nil {
			respondSyncError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, p)
	}
}

func handleUpdateColumnPermission(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		prev, err := s.ColumnPermissions.ByID(id)
		if respondStoreError(w, err) {
			return
		}

		var p model.ColumnPermission
		if err := decodeJSON(r, &p); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		p.ID = id
		p.CreateTime = prev.CreateTime

		if err := columnIntent(p).Validate(reconcile.OpGrant); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.ColumnPermissions.Update(&p); respondStoreError(w, err) {
			return
		}

		old := *prev
		revoke := sync.Record{
			Name:     fmt.Sprintf("column-permission/%d", id),
			Intent:   columnIntent(old),
			Rollback: func() error { return s.ColumnPermissions.Update(&old) },
		}
		if err := s.Orchestrator.SyncOne(r.Context(), reconcile.OpRevoke, revoke); err != nil &&
			!errors.Is(err, reconcile.ErrNothingToRevoke) {
			respondSyncError(w, err)
			return
		}

		grant := sync.Record{
			Name:     fmt.Sprintf("column-permission/%d", id),
			Intent:   columnIntent(p),
			Rollback: func() error { return s.ColumnPermissions.Update(&old) },
		}
		err = s.Orchestrator.SyncOne(r.Context(), reconcile.OpGrant, grant)
		auditPermission(r, "grant", "column", p.Database, p.Table, p.Column, principalLabel(p.UserName, p.RoleName), err)
		if err != nil {
			respondSyncError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, p)
	}
}

func handleDeleteColumnPermission(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		prev, err := s.ColumnPermissions.ByID(id)
		if respondStoreError(w, err) {
			return
		}
		if err := s.ColumnPermissions.Delete(id); respondStoreError(w, err) {
			return
		}

		record := *prev
		rec := sync.Record{
			Name:   fmt.Sprintf("column-permission/%d", id),
			Intent: columnIntent(record),
			Rollback: func() error {
				return s.ColumnPermissions.Create(&record)
			},
		}
		err = s.Orchestrator.SyncOne(r.Context(), reconcile.OpRevoke, rec)
		auditPermission(r, "revoke", "column", record.Database, record.Table, record.Column, principalLabel(record.UserName, record.RoleName), err)
		if errors.Is(err, reconcile.ErrNothingToRevoke) {
			respondWithJSON(w, http.StatusOK, map[string]interface{}{
				"deleted": id,
				"warning": err.Error(),
			})
			return
		}
		if err != nil {
			respondSyncError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
	}
}

func handleImportColumnPermissions(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var items []model.ColumnPermission
		if err := decodeJSON(r, &items); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if len(items) == 0 {
			respondWithError(w, http.StatusBadRequest, "Empty batch")
			return
		}
		for i := range items {
			items[i].ID = 0
			if err := columnIntent(items[i]).Validate(reconcile.OpGrant); err != nil {
				respondWithError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		recs := make([]sync.Record, 0, len(items))
		for i := range items {
			if err := s.ColumnPermissions.Create(&items[i]); err != nil {
				for _, rec := range recs {
					if rbErr := rec.Rollback(); rbErr != nil {
						s.Logger.Error("batch rollback of local record failed", "record", rec.Name, "error", rbErr)
					}
				}
				if !respondStoreError(w, err) {
					respondWithError(w, http.StatusInternalServerError, err.Error())
				}
				return
			}
			recs = append(recs, columnRecord(s, items[i]))
		}

		if err := s.Orchestrator.SyncBatch(r.Context(), reconcile.OpGrant, recs); err != nil {
			respondSyncError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, map[string]interface{}{
			"imported": len(items),
			"items":    items,
		})
	}
}
