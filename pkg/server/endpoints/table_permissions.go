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

// RegisterTablePermissionEndpoints registers CRUD and batch import for
// plain table access grants.
func RegisterTablePermissionEndpoints(s *server.Server) {
	api := s.Router.PathPrefix("/api/v1/table-permissions").Subrouter()
	api.Use(s.Auth.Middleware)

	api.HandleFunc("", handleListTablePermissions(s)).Methods("GET")
	api.HandleFunc("", handleCreateTablePermission(s)).Methods("POST")
	api.HandleFunc("/batch", handleImportTablePermissions(s)).Methods("POST")
	api.HandleFunc("/{id}", handleGetTablePermission(s)).Methods("GET")
	api.HandleFunc("/{id}", handleUpdateTablePermission(s)).Methods("PUT")
	api.HandleFunc("/{id}", handleDeleteTablePermission(s)).Methods("DELETE")
}

// tableIntent maps a stored record onto the grant it represents. Table
// records always carry plain select access.
func tableIntent(p model.TablePermission) reconcile.AccessIntent {
	return reconcile.AccessIntent{
		Database:   p.Database,
		Table:      p.Table,
		Accesses:   []string{"select"},
		Principals: principalsFor(p.UserName, p.RoleName),
	}
}

func tableRecord(s *server.Server, p model.TablePermission) sync.Record {
	id := p.ID
	return sync.Record{
		Name:     fmt.Sprintf("table-permission/%d", id),
		Intent:   tableIntent(p),
		Rollback: func() error { return s.TablePermissions.Delete(id) },
	}
}

func handleListTablePermissions(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.TablePermissions.List(filterFromQuery(r))
		if respondStoreError(w, err) {
			return
		}
		respondWithJSON(w, http.StatusOK, page)
	}
}

func handleGetTablePermission(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		p, err := s.TablePermissions.ByID(id)
		if respondStoreError(w, err) {
			return
		}
		respondWithJSON(w, http.StatusOK, p)
	}
}

func handleCreateTablePermission(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p model.TablePermission
		if err := decodeJSON(r, &p); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		p.ID = 0

		if err := tableIntent(p).Validate(reconcile.OpGrant); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.TablePermissions.Create(&p); respondStoreError(w, err) {
			return
		}

		err := s.Orchestrator.SyncOne(r.Context(), reconcile.OpGrant, tableRecord(s, p))
		auditPermission(r, "grant", "table", p.Database, p.Table, "", principalLabel(p.UserName, p.RoleName), err)
		if err != nil {
			respondSyncError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, p)
	}
}

func handleUpdateTablePermission(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		prev, err := s.TablePermissions.ByID(id)
		if respondStoreError(w, err) {
			return
		}

		var p model.TablePermission
		if err := decodeJSON(r, &p); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		p.ID = id
		p.CreateTime = prev.CreateTime

		if err := tableIntent(p).Validate(reconcile.OpGrant); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.TablePermissions.Update(&p); respondStoreError(w, err) {
			return
		}

		// Retract the grant the old record stood for before granting the
		// new one. A missing old grant is not an error here. Either sync
		// failing restores the old local record, so the stored intent never
		// drifts ahead of the authority.
		old := *prev
		revoke := sync.Record{
			Name:     fmt.Sprintf("table-permission/%d", id),
			Intent:   tableIntent(old),
			Rollback: func() error { return s.TablePermissions.Update(&old) },
		}
		if err := s.Orchestrator.SyncOne(r.Context(), reconcile.OpRevoke, revoke); err != nil &&
			!errors.Is(err, reconcile.ErrNothingToRevoke) {
			respondSyncError(w, err)
			return
		}

		grant := sync.Record{
			Name:     fmt.Sprintf("table-permission/%d", id),
			Intent:   tableIntent(p),
			Rollback: func() error { return s.TablePermissions.Update(&old) },
		}
		err = s.Orchestrator.SyncOne(r.Context(), reconcile.OpGrant, grant)
		auditPermission(r, "grant", "table", p.Database, p.Table, "", principalLabel(p.UserName, p.RoleName), err)
		if err != nil {
			respondSyncError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, p)
	}
}

func handleDeleteTablePermission(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		prev, err := s.TablePermissions.ByID(id)
		if respondStoreError(w, err) {
			return
		}
		if err := s.TablePermissions.Delete(id); respondStoreError(w, err) {
			return
		}

		record := *prev
		rec := sync.Record{
			Name:   fmt.Sprintf("table-permission/%d", id),
			Intent: tableIntent(record),
			Rollback: func() error {
				return s.TablePermissions.Create(&record)
			},
		}
		err = s.Orchestrator.SyncOne(r.Context(), reconcile.OpRevoke, rec)
		auditPermission(r, "revoke", "table", record.Database, record.Table, "", principalLabel(record.UserName, record.RoleName), err)
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

func handleImportTablePermissions(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var items []model.TablePermission
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
			if err := tableIntent(items[i]).Validate(reconcile.OpGrant); err != nil {
				respondWithError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		recs := make([]sync.Record, 0, len(items))
		for i := range items {
			if err := s.TablePermissions.Create(&items[i]); err != nil {
				// Undo the records of this batch persisted so far.
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
			recs = append(recs, tableRecord(s, items[i]))
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
