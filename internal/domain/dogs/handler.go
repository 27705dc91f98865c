package dogs

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"dog-registry/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/dogs", func(dr chi.Router) {
		dr.Post("/", createDogHandler(svc))
		dr.Get("/", listDogsHandler(svc))

		dr.Get("/{dogID}", getDogHandler(svc))
		dr.Patch("/{dogID}", updateDogHandler(svc))

		// Aprobación del registro (solo admin)
		dr.Patch("/{dogID}/approval", setApprovalHandler(svc))
	})
}

type createDogRequest struct {
	Name               string   `json:"name"`
	Breed              string   `json:"breed"`
	Color              string   `json:"color"`
	RegistrationNumber string   `json:"registration_number"`
	Titles             []string `json:"titles"`
	Sex                string   `json:"sex"`
	BirthDate          string   `json:"birth_date"` // YYYY-MM-DD opcional
	SireID             *string  `json:"sire_id"`
	DamID              *string  `json:"dam_id"`
	Notes              string   `json:"notes"`
}

type dogResponse struct {
	ID                 string     `json:"id"`
	OwnerUserID        string     `json:"owner_user_id"`
	Name               string     `json:"name"`
	Breed              string     `json:"breed"`
	Color              string     `json:"color"`
	RegistrationNumber string     `json:"registration_number"`
	Titles             []string   `json:"titles"`
	Sex                string     `json:"sex"`
	BirthDate          *time.Time `json:"birth_date,omitempty"`
	SireID             *string    `json:"sire_id,omitempty"`
	DamID              *string    `json:"dam_id,omitempty"`
	ApprovalStatus     string     `json:"approval_status"`
	Notes              string     `json:"notes"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type updateDogRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name               *string   `json:"name"`
	Breed              *string   `json:"breed"`
	Color              *string   `json:"color"`
	RegistrationNumber *string   `json:"registration_number"`
	Titles             *[]string `json:"titles"`
	Notes              *string   `json:"notes"`
}

func createDogHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createDogRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var bd *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			t, err := time.Parse("2006-01-02", req.BirthDate)
			if err != nil {
				http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			bd = &t
		}

		d, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:               req.Name,
			Breed:              req.Breed,
			Color:              req.Color,
			RegistrationNumber: req.RegistrationNumber,
			Titles:             req.Titles,
			Sex:                req.Sex,
			BirthDate:          bd,
			SireID:             req.SireID,
			DamID:              req.DamID,
			Notes:              req.Notes,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toDogResponse(d))
	}
}

func listDogsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]dogResponse, 0, len(items))
		for _, d := range items {
			out = append(out, toDogResponse(d))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func getDogHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		d, err := svc.GetByID(r.Context(), chi.URLParam(r, "dogID"))
		if err != nil {
			http.Error(w, "dog not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toDogResponse(d))
	}
}

// updateDogHandler aplica permisos: owner del perro o admin.
func updateDogHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		dogID := chi.URLParam(r, "dogID")
		current, err := svc.GetByID(r.Context(), dogID)
		if err != nil {
			http.Error(w, "dog not found", http.StatusNotFound)
			return
		}

		if current.OwnerUserID != claims.UserID && !claims.IsAdmin() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateDogRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		updated, err := svc.UpdateProfile(r.Context(), dogID, UpdateProfileInput{
			Name:               req.Name,
			Breed:              req.Breed,
			Color:              req.Color,
			RegistrationNumber: req.RegistrationNumber,
			Titles:             req.Titles,
			Notes:              req.Notes,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "dog not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toDogResponse(updated))
	}
}

func setApprovalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !claims.IsAdmin() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req struct {
			ApprovalStatus string `json:"approval_status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		d, err := svc.SetApproval(r.Context(), chi.URLParam(r, "dogID"), req.ApprovalStatus)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "dog not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toDogResponse(d))
	}
}

func toDogResponse(d Dog) dogResponse {
	titles := d.Titles
	if titles == nil {
		titles = []string{}
	}
	return dogResponse{
		ID:                 d.ID,
		OwnerUserID:        d.OwnerUserID,
		Name:               d.Name,
		Breed:              d.Breed,
		Color:              d.Color,
		RegistrationNumber: d.RegistrationNumber,
		Titles:             titles,
		Sex:                string(d.Sex),
		BirthDate:          d.BirthDate,
		SireID:             d.SireID,
		DamID:              d.DamID,
		ApprovalStatus:     string(d.ApprovalStatus),
		Notes:              d.Notes,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// (dogs/pedigree/breeding) para evitar helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
