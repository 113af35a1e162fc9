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

// RegisterRowPermissionEndpoints registers CRUD and batch import for row
// filter grants.
func RegisterRowPermissionEndpoints(s *server.Server) {
	api := s.Router.PathPrefix("/api/v1/row-permissions").Subrouter()
	api.Use(s.Auth.Middleware)

	api.HandleFunc("", handleListRowPermissions(s)).Methods("GET")
	api.HandleFunc("", handleCreateRowPermission(s)).Methods("POST")
	api.HandleFunc("/batch", handleImportRowPermissions(s)).Methods("POST")
	api.HandleFunc("/{id}", handleGetRowPermission(s)).Methods("GET")
	api.HandleFunc("/{id}", handleUpdateRowPermission(s)).Methods("PUT")
	api.HandleFunc("/{id}", handleDeleteRowPermission(s)).Methods("DELETE")
}

func rowIntent(p model.RowPermission) reconcile.RowFilterIntent {
	return reconcile.RowFilterIntent{
		Database:   p.Database,
		Table:      p.Table,
		FilterExpr: p.RowFilter,
		Principals: principalsFor(p.UserName, p.RoleName),
	}
}

func rowRecord(s *server.Server, p model.RowPermission) sync.Record {
	id := p.ID
	return sync.Record{
		Name:     fmt.Sprintf("row-permission/%d", id),
		Intent:   rowIntent(p),
		Rollback: func() error { return s.RowPermissions.Delete(id) },
	}
}

func handleListRowPermissions(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.RowPermissions.List(filterFromQuery(r))
		if respondStoreError(w, err) {
			return
		}
		respondWithJSON(w, http.StatusOK, page)
	}
}

func handleGetRowPermission(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		p, err := s.RowPermissions.ByID(id)
		if respondStoreError(w, err) {
			return
		}
		respondWithJSON(w, http.StatusOK, p)
	}
}

func handleCreateRowPermission(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p model.RowPermission
		if err := decodeJSON(r, &p); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		p.ID = 0

		if err := rowIntent(p).Validate(reconcile.OpGrant); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.RowPermissions.Create(&p); respondStoreError(w, err) {
			return
		}

		err := s.Orchestrator.SyncOne(r.Context(), reconcile.OpGrant, rowRecord(s, p))
		auditPermission(r, "grant", "row", p.Database, p.Table, p.RowFilter, principalLabel(p.UserName, p.RoleName), err)
		if err != nil {
			respondSyncError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, p)
	}
}

func handleUpdateRowPermission(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		prev, err := s.RowPermissions.ByID(id)
		if respondStoreError(w, err) {
			return
		}

		var p model.RowPermission
		if err := decodeJSON(r, &p); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		p.ID = id
		p.CreateTime = prev.CreateTime

		if err := rowIntent(p).Validate(reconcile.OpGrant); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.RowPermissions.Update(&p); respondStoreError(w, err) {
			return
		}

		old := *prev
		revoke := sync.Record{
			Name:     fmt.Sprintf("row-permission/%d", id),
			Intent:   rowIntent(old),
			Rollback: func() error { return s.RowPermissions.Update(&old) },
		}
		if err := s.Orchestrator.SyncOne(r.Context(), reconcile.OpRevoke, revoke); err != nil &&
			!errors.Is(err, reconcile.ErrNothingToRevoke) {
			respondSyncError(w, err)
			return
		}

		grant := sync.Record{
			Name:     fmt.Sprintf("row-permission/%d", id),
			Intent:   rowIntent(p),
			Rollback: func() error { return s.RowPermissions.Update(&old) },
		}
		err = s.Orchestrator.SyncOne(r.Context(), reconcile.OpGrant, grant)
		auditPermission(r, "grant", "row", p.Database, p.Table, p.RowFilter, principalLabel(p.UserName, p.RoleName), err)
		if err != nil {
			respondSyncError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, p)
	}
}

func handleDeleteRowPermission(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		prev, err := s.RowPermissions.ByID(id)
		if respondStoreError(w, err) {
			return
		}
		if err := s.RowPermissions.Delete(id); respondStoreError(w, err) {
			return
		}

		record := *prev
		rec := sync.Record{
			Name:   fmt.Sprintf("row-permission/%d", id),
			Intent: rowIntent(record),
			Rollback: func() error {
				return s.RowPermissions.Create(&record)
			},
		}
		err = s.Orchestrator.SyncOne(r.Context(), reconcile.OpRevoke, rec)
		auditPermission(r, "revoke", "row", record.Database, record.Table, record.RowFilter, principalLabel(record.UserName, record.RoleName), err)
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

func handleImportRowPermissions(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var items []model.RowPermission
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
			if err := rowIntent(items[i]).Validate(reconcile.OpGrant); err != nil {
				respondWithError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		recs := make([]sync.Record, 0, len(items))
		for i := range items {
			if err := s.RowPermissions.Create(&items[i]); err != nil {
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
			recs = append(recs, rowRecord(s, items[i]))
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
