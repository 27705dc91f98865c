package pedigree

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"dog-registry/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// DefaultTreeGenerations es la profundidad por defecto del árbol
// cuando el caller no manda ?generations.
const DefaultTreeGenerations = 3

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/dogs/{dogID}/pedigree", pedigreeTreeHandler(svc))
	r.Get("/breeding/linebreeding", linebreedingHandler(svc))
}

func pedigreeTreeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		generations := DefaultTreeGenerations
		if raw := r.URL.Query().Get("generations"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				http.Error(w, "generations must be a positive integer", http.StatusBadRequest)
				return
			}
			generations = n
		}

		tree, err := svc.BuildTree(r.Context(), claims, chi.URLParam(r, "dogID"), generations)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, tree)
	}
}

func linebreedingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()
		sireID := strings.TrimSpace(q.Get("sire_id"))
		damID := strings.TrimSpace(q.Get("dam_id"))
		if sireID == "" || damID == "" {
			http.Error(w, "sire_id and dam_id are required", http.StatusBadRequest)
			return
		}

		generations := 0 // 0 = default del service
		if raw := q.Get("generations"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				http.Error(w, "generations must be a positive integer", http.StatusBadRequest)
				return
			}
			generations = n
		}

		report, err := svc.Linebreeding(r.Context(), sireID, damID, generations)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, report)
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// (dogs/pedigree/breeding) para evitar helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
