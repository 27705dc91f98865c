package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"dog-registry/internal/domain/breeding"
)

// isUniqueViolation detecta el código 23505 de Postgres. El índice
// único (program_id, sire_id, dam_id) es la última línea de defensa
// contra pares duplicados cuando dos inserts corren en paralelo.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// dbtx es lo mínimo común entre *sql.DB y *sql.Tx que usan los repos.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// BreedingRepo implementa breeding.Repository sobre Postgres. RunInTx
// abre una transacción y entrega un repo atado a ella: las
// validaciones de lectura y los writes de una mutación comparten scope
// y serialización (SELECT ... FOR UPDATE en el get del par).
type BreedingRepo struct {
	db *sql.DB
	q  dbtx

	// tx != nil cuando este repo vive dentro de RunInTx
	tx *sql.Tx
}

func NewBreedingRepo(db *sql.DB) *BreedingRepo {
	return &BreedingRepo{db: db, q: db}
}

func (r *BreedingRepo) RunInTx(ctx context.Context, fn func(tx breeding.Repository) error) error {
	if r.tx != nil {
		// Ya dentro de una tx: mismo scope.
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&BreedingRepo{db: r.db, q: tx, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ---------- Programas ----------

func (r *BreedingRepo) CreateProgram(ctx context.Context, p breeding.Program) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO breeding_programs (
			id, breeder_user_id, name, description, status,
			start_date, end_date, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		p.ID,
		p.BreederUserID,
		p.Name,
		p.Description,
		p.Status,
		toNullDate(p.StartDate),
		toNullDate(p.EndDate),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *BreedingRepo) UpdateProgram(ctx context.Context, p breeding.Program) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE breeding_programs
		SET name = $2, description = $3, status = $4,
			start_date = $5, end_date = $6, updated_at = $7
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.Description,
		p.Status,
		toNullDate(p.StartDate),
		toNullDate(p.EndDate),
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return breeding.ErrNotFound
	}
	return nil
}

const programColumns = `
	id, breeder_user_id, name, description, status,
	start_date, end_date, created_at, updated_at
`

func (r *BreedingRepo) GetProgramByID(ctx context.Context, id string) (breeding.Program, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return breeding.Program{}, breeding.ErrNotFound
	}

	row := r.q.QueryRowContext(ctx, `
		SELECT `+programColumns+`
		FROM breeding_programs
		WHERE id = $1
	`, id)
	return scanProgram(row)
}

func (r *BreedingRepo) ListProgramsByBreeder(ctx context.Context, breederUserID string) ([]breeding.Program, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+programColumns+`
		FROM breeding_programs
		WHERE breeder_user_id = $1
		ORDER BY created_at ASC
	`, breederUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]breeding.Program, 0)
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *BreedingRepo) DeleteProgram(ctx context.Context, id string) error {
	// Cascada explícita: primero los pares del programa.
	if _, err := r.q.ExecContext(ctx, `
		DELETE FROM breeding_pairs WHERE program_id = $1
	`, id); err != nil {
		return err
	}

	res, err := r.q.ExecContext(ctx, `
		DELETE FROM breeding_programs WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return breeding.ErrNotFound
	}
	return nil
}

// ---------- Pares ----------

func (r *BreedingRepo) CreatePair(ctx context.Context, p breeding.Pair) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO breeding_pairs (
			id, program_id, sire_id, dam_id,
			planned_date, compatibility_notes, genetic_score,
			status, status_notes, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		p.ID,
		p.ProgramID,
		p.SireID,
		p.DamID,
		toNullDate(p.PlannedDate),
		p.CompatibilityNotes,
		toNullFloat(p.GeneticScore),
		p.Status,
		p.StatusNotes,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return breeding.ErrDuplicatePair
	}
	return err
}

const pairColumns = `
	id, program_id, sire_id, dam_id,
	planned_date, compatibility_notes, genetic_score,
	status, status_notes, created_at, updated_at
`

func (r *BreedingRepo) GetPairByID(ctx context.Context, id string) (breeding.Pair, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return breeding.Pair{}, breeding.ErrNotFound
	}

	query := `SELECT ` + pairColumns + ` FROM breeding_pairs WHERE id = $1`
	if r.tx != nil {
		// Lock de escritura durante validate-then-write: dos
		// transiciones concurrentes sobre el mismo par se serializan acá.
		query += ` FOR UPDATE`
	}

	row := r.q.QueryRowContext(ctx, query, id)
	return scanPair(row)
}

func (r *BreedingRepo) FindPair(ctx context.Context, programID, sireID, damID string) (breeding.Pair, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+pairColumns+`
		FROM breeding_pairs
		WHERE program_id = $1 AND sire_id = $2 AND dam_id = $3
	`, programID, sireID, damID)
	return scanPair(row)
}

func (r *BreedingRepo) UpdatePairStatus(ctx context.Context, id string, status breeding.PairStatus, notes string) (breeding.Pair, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE breeding_pairs
		SET status = $2,
			status_notes = CASE WHEN $3 <> '' THEN $3 ELSE status_notes END,
			updated_at = now()
		WHERE id = $1
	`, id, status, notes)
	if err != nil {
		return breeding.Pair{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return breeding.Pair{}, breeding.ErrNotFound
	}
	return r.GetPairByID(ctx, id)
}

func (r *BreedingRepo) ListPairsByProgram(ctx context.Context, programID string) ([]breeding.Pair, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+pairColumns+`
		FROM breeding_pairs
		WHERE program_id = $1
		ORDER BY created_at ASC
	`, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]breeding.Pair, 0)
	for rows.Next() {
		p, err := scanPair(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ---------- Records ----------

func (r *BreedingRepo) CreateRecord(ctx context.Context, rec breeding.Record) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO breeding_records (
			id, sire_id, dam_id, breeding_date, litter_size,
			breeding_pair_id, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		rec.ID,
		rec.SireID,
		rec.DamID,
		rec.BreedingDate,
		rec.LitterSize,
		toNullString(rec.BreedingPairID),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

const recordColumns = `
	id, sire_id, dam_id, breeding_date, litter_size,
	breeding_pair_id, created_at, updated_at
`

func (r *BreedingRepo) GetRecordByID(ctx context.Context, id string) (breeding.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return breeding.Record{}, breeding.ErrNotFound
	}

	query := `SELECT ` + recordColumns + ` FROM breeding_records WHERE id = $1`
	if r.tx != nil {
		query += ` FOR UPDATE`
	}

	row := r.q.QueryRowContext(ctx, query, id)
	return scanRecord(row)
}

func (r *BreedingRepo) LinkRecordToPair(ctx context.Context, recordID, pairID string) (breeding.Record, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE breeding_records
		SET breeding_pair_id = $2, updated_at = now()
		WHERE id = $1
	`, recordID, pairID)
	if err != nil {
		return breeding.Record{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return breeding.Record{}, breeding.ErrNotFound
	}
	return r.GetRecordByID(ctx, recordID)
}

func (r *BreedingRepo) ListRecordsByDog(ctx context.Context, dogID string, role breeding.RecordRole) ([]breeding.Record, error) {
	var query string
	switch role {
	case breeding.RoleSire:
		query = `SELECT ` + recordColumns + ` FROM breeding_records WHERE sire_id = $1 ORDER BY breeding_date ASC`
	case breeding.RoleDam:
		query = `SELECT ` + recordColumns + ` FROM breeding_records WHERE dam_id = $1 ORDER BY breeding_date ASC`
	default:
		query = `SELECT ` + recordColumns + ` FROM breeding_records WHERE sire_id = $1 OR dam_id = $1 ORDER BY breeding_date ASC`
	}

	rows, err := r.q.QueryContext(ctx, query, dogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]breeding.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ---------- Scanners ----------

func scanProgram(row rowScanner) (breeding.Program, error) {
	var p breeding.Program
	var start, end sql.NullTime

	if err := row.Scan(
		&p.ID,
		&p.BreederUserID,
		&p.Name,
		&p.Description,
		&p.Status,
		&start,
		&end,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return breeding.Program{}, breeding.ErrNotFound
		}
		return breeding.Program{}, err
	}

	if start.Valid {
		t := start.Time
		p.StartDate = &t
	}
	if end.Valid {
		t := end.Time
		p.EndDate = &t
	}
	return p, nil
}

func scanPair(row rowScanner) (breeding.Pair, error) {
	var p breeding.Pair
	var planned sql.NullTime
	var score sql.NullFloat64

	if err := row.Scan(
		&p.ID,
		&p.ProgramID,
		&p.SireID,
		&p.DamID,
		&planned,
		&p.CompatibilityNotes,
		&score,
		&p.Status,
		&p.StatusNotes,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return breeding.Pair{}, breeding.ErrNotFound
		}
		return breeding.Pair{}, err
	}

	if planned.Valid {
		t := planned.Time
		p.PlannedDate = &t
	}
	if score.Valid {
		v := score.Float64
		p.GeneticScore = &v
	}
	return p, nil
}

func scanRecord(row rowScanner) (breeding.Record, error) {
	var rec breeding.Record
	var pairID sql.NullString

	if err := row.Scan(
		&rec.ID,
		&rec.SireID,
		&rec.DamID,
		&rec.BreedingDate,
		&rec.LitterSize,
		&pairID,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return breeding.Record{}, breeding.ErrNotFound
		}
		return breeding.Record{}, err
	}

	if pairID.Valid {
		s := pairID.String
		rec.BreedingPairID = &s
	}
	return rec, nil
}

func toNullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
