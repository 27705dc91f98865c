package breeding

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"dog-registry/internal/middleware"
	"dog-registry/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/breeding", func(br chi.Router) {
		br.Route("/programs", func(pr chi.Router) {
			pr.Post("/", createProgramHandler(svc))
			pr.Get("/", listProgramsHandler(svc))

			pr.Get("/{programID}", getProgramHandler(svc))
			pr.Patch("/{programID}", updateProgramHandler(svc))
			pr.Delete("/{programID}", deleteProgramHandler(svc))

			pr.Get("/{programID}/pairs", listPairsHandler(svc))
			pr.Post("/{programID}/pairs", addPairHandler(svc))
		})

		br.Route("/pairs", func(pp chi.Router) {
			pp.Get("/{pairID}", getPairHandler(svc))
			pp.Patch("/{pairID}/status", updatePairStatusHandler(svc))
		})

		br.Route("/records", func(rr chi.Router) {
			rr.Post("/", createRecordHandler(svc))
			rr.Post("/{recordID}/link", linkLitterHandler(svc))
		})
	})

	// Historial de cruzas de un perro por rol (sire/dam/both).
	r.Get("/dogs/{dogID}/breeding-records", listRecordsByDogHandler(svc))
}

// ---------- Requests / responses ----------

type createProgramRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"` // YYYY-MM-DD opcional
	EndDate     string `json:"end_date"`   // YYYY-MM-DD opcional
}

type updateProgramRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

type programResponse struct {
	ID            string     `json:"id"`
	BreederUserID string     `json:"breeder_user_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type addPairRequest struct {
	SireID             string   `json:"sire_id"`
	DamID              string   `json:"dam_id"`
	PlannedDate        string   `json:"planned_date"` // YYYY-MM-DD opcional
	CompatibilityNotes string   `json:"compatibility_notes"`
	GeneticScore       *float64 `json:"genetic_score"`
	InitialStatus      string   `json:"initial_status"`
}

type pairResponse struct {
	ID                 string     `json:"id"`
	ProgramID          string     `json:"program_id"`
	SireID             string     `json:"sire_id"`
	DamID              string     `json:"dam_id"`
	PlannedDate        *time.Time `json:"planned_date,omitempty"`
	CompatibilityNotes string     `json:"compatibility_notes"`
	GeneticScore       *float64   `json:"genetic_score,omitempty"`
	Status             string     `json:"status"`
	StatusNotes        string     `json:"status_notes"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type updatePairStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type createRecordRequest struct {
	SireID       string `json:"sire_id"`
	DamID        string `json:"dam_id"`
	BreedingDate string `json:"breeding_date"` // YYYY-MM-DD
	LitterSize   int    `json:"litter_size"`
}

type linkLitterRequest struct {
	PairID string `json:"pair_id"`
}

type recordResponse struct {
	ID             string    `json:"id"`
	SireID         string    `json:"sire_id"`
	DamID          string    `json:"dam_id"`
	BreedingDate   time.Time `json:"breeding_date"`
	LitterSize     int       `json:"litter_size"`
	BreedingPairID *string   `json:"breeding_pair_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ---------- Programas ----------

func createProgramHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req createProgramRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		start, err := parseOptionalDate(req.StartDate)
		if err != nil {
			http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		end, err := parseOptionalDate(req.EndDate)
		if err != nil {
			http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		p, err := svc.CreateProgram(r.Context(), claims.UserID, CreateProgramInput{
			Name:        req.Name,
			Description: req.Description,
			StartDate:   start,
			EndDate:     end,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toProgramResponse(p))
	}
}

func listProgramsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}

		items, err := svc.ListProgramsByBreeder(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]programResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toProgramResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getProgramHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}

		p, err := svc.GetProgram(r.Context(), chi.URLParam(r, "programID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProgramResponse(p))
	}
}

func updateProgramHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}

		programID := chi.URLParam(r, "programID")
		if !authorizeProgram(w, r, svc, claims, programID) {
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateProgramRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateProgramInput{
			Name:        req.Name,
			Description: req.Description,
			Status:      req.Status,
		}
		if req.StartDate != nil {
			t, err := parseOptionalDate(*req.StartDate)
			if err != nil {
				http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.StartDate = t
		}
		if req.EndDate != nil {
			t, err := parseOptionalDate(*req.EndDate)
			if err != nil {
				http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.EndDate = t
		}

		p, err := svc.UpdateProgram(r.Context(), claims.UserID, programID, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProgramResponse(p))
	}
}

func deleteProgramHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}

		programID := chi.URLParam(r, "programID")
		if !authorizeProgram(w, r, svc, claims, programID) {
			return
		}

		if err := svc.DeleteProgram(r.Context(), claims.UserID, programID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ---------- Pares ----------

func addPairHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}

		programID := chi.URLParam(r, "programID")
		if !authorizeProgram(w, r, svc, claims, programID) {
			return
		}

		var req addPairRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		planned, err := parseOptionalDate(req.PlannedDate)
		if err != nil {
			http.Error(w, "planned_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		p, err := svc.AddPair(r.Context(), claims.UserID, AddPairInput{
			ProgramID:          programID,
			SireID:             req.SireID,
			DamID:              req.DamID,
			PlannedDate:        planned,
			CompatibilityNotes: req.CompatibilityNotes,
			GeneticScore:       req.GeneticScore,
			InitialStatus:      req.InitialStatus,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPairResponse(p))
	}
}

func getPairHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}

		p, err := svc.GetPair(r.Context(), chi.URLParam(r, "pairID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPairResponse(p))
	}
}

func listPairsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}

		items, err := svc.ListPairsByProgram(r.Context(), chi.URLParam(r, "programID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		out := make([]pairResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPairResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func updatePairStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req updatePairStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Status) == "" {
			http.Error(w, "status is required", http.StatusBadRequest)
			return
		}

		target := PairStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
		p, err := svc.UpdatePairStatus(r.Context(), claims.UserID, chi.URLParam(r, "pairID"), target, req.Notes)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPairResponse(p))
	}
}

// ---------- Records ----------

func createRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req createRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		bd, err := time.Parse("2006-01-02", strings.TrimSpace(req.BreedingDate))
		if err != nil {
			http.Error(w, "breeding_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		rec, err := svc.CreateRecord(r.Context(), claims.UserID, CreateRecordInput{
			SireID:       req.SireID,
			DamID:        req.DamID,
			BreedingDate: bd,
			LitterSize:   req.LitterSize,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

func linkLitterHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req linkLitterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.PairID) == "" {
			http.Error(w, "pair_id is required", http.StatusBadRequest)
			return
		}

		rec, err := svc.LinkLitter(r.Context(), claims.UserID, req.PairID, chi.URLParam(r, "recordID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

func listRecordsByDogHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}

		role := RecordRole(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("role"))))
		items, err := svc.ListRecordsByDog(r.Context(), chi.URLParam(r, "dogID"), role)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		out := make([]recordResponse, 0, len(items))
		for _, rec := range items {
			out = append(out, toRecordResponse(rec))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// ---------- Helpers ----------

func requireUser(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return auth.Claims{}, false
	}
	return claims, true
}

// authorizeProgram aplica permisos de mutación de programa:
// breeder dueño del programa, o admin.
func authorizeProgram(w http.ResponseWriter, r *http.Request, svc *Service, claims auth.Claims, programID string) bool {
	p, err := svc.GetProgram(r.Context(), programID)
	if err != nil {
		writeServiceError(w, err)
		return false
	}
	if p.BreederUserID != claims.UserID && !claims.IsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrDuplicatePair),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrAlreadyLinked):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseOptionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toProgramResponse(p Program) programResponse {
	return programResponse{
		ID:            p.ID,
		BreederUserID: p.BreederUserID,
		Name:          p.Name,
		Description:   p.Description,
		Status:        string(p.Status),
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toPairResponse(p Pair) pairResponse {
	return pairResponse{
		ID:                 p.ID,
		ProgramID:          p.ProgramID,
		SireID:             p.SireID,
		DamID:              p.DamID,
		PlannedDate:        p.PlannedDate,
		CompatibilityNotes: p.CompatibilityNotes,
		GeneticScore:       p.GeneticScore,
		Status:             string(p.Status),
		StatusNotes:        p.StatusNotes,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func toRecordResponse(rec Record) recordResponse {
	return recordResponse{
		ID:             rec.ID,
		SireID:         rec.SireID,
		DamID:          rec.DamID,
		BreedingDate:   rec.BreedingDate,
		LitterSize:     rec.LitterSize,
		BreedingPairID: rec.BreedingPairID,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// (dogs/pedigree/breeding) para evitar helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
