package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/seftcorp/leadops/internal/branch"
	"github.com/seftcorp/leadops/internal/model"
	"github.com/seftcorp/leadops/internal/reconcile"
	"github.com/seftcorp/leadops/internal/store"
)

type assignmentRequest struct {
	Key    string            `json:"key"`
	Mode   model.ClusterMode `json:"mode"`
	Branch string            `json:"branch"`
}

// newRouter builds the HTTP API over svc.
func newRouter(svc *reconcile.Service, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/duplicates", func(w http.ResponseWriter, r *http.Request) {
			mode := model.ClusterMode(r.URL.Query().Get("mode"))
			if mode == "" {
				mode = model.ModePhone
			}
			if !mode.Valid() {
				writeError(w, http.StatusBadRequest, "mode must be phone or name")
				return
			}
			report, err := svc.Duplicates(r.Context(), mode, r.URL.Query().Get("branch"))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeResponse(w, http.StatusOK, report)
		})

		r.Get("/profiles", func(w http.ResponseWriter, r *http.Request) {
			status := model.LifecycleStatus(r.URL.Query().Get("status"))
			if status != "" && !status.Valid() {
				writeError(w, http.StatusBadRequest, "status must be new, repeat or high_value")
				return
			}
			report, err := svc.Profiles(r.Context(), status)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeResponse(w, http.StatusOK, report)
		})

		r.Get("/quality", func(w http.ResponseWriter, r *http.Request) {
			stats, err := svc.Quality(r.Context())
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeResponse(w, http.StatusOK, stats)
		})

		r.Put("/assignments", func(w http.ResponseWriter, r *http.Request) {
			var req assignmentRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if req.Key == "" || !req.Mode.Valid() {
				writeError(w, http.StatusBadRequest, "key and a phone or name mode are required")
				return
			}
			a, err := svc.SetOwner(r.Context(), req.Key, req.Mode, req.Branch)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeResponse(w, http.StatusOK, a)
		})

		r.Delete("/assignments", func(w http.ResponseWriter, r *http.Request) {
			key := r.URL.Query().Get("key")
			mode := model.ClusterMode(r.URL.Query().Get("mode"))
			if key == "" || !mode.Valid() {
				writeError(w, http.StatusBadRequest, "key and a phone or name mode are required")
				return
			}
			if err := svc.ClearOwner(r.Context(), key, mode); err != nil {
				writeServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Patch("/leads/{id}", func(w http.ResponseWriter, r *http.Request) {
			var upd model.LeadUpdate
			if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if upd.Status == nil && upd.Notes == nil && upd.ShareDate == nil {
				writeError(w, http.StatusBadRequest, "nothing to update")
				return
			}
			if upd.Status != nil && *upd.Status == "" {
				writeError(w, http.StatusBadRequest, "status must not be empty")
				return
			}
			err := svc.UpdateLead(r.Context(), chi.URLParam(r, "id"), upd, r.URL.Query().Get("branch"))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

// writeServiceError maps reconcile and store errors to a status code.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, branch.ErrUnknownBranch), errors.Is(err, reconcile.ErrInvalidKey):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, reconcile.ErrFrozen):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, reconcile.ErrOwnerNotSaved):
		zap.L().Error("api: owner not saved", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		zap.L().Error("api: request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeResponse(w, status, map[string]string{"error": msg})
}

func writeResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}
