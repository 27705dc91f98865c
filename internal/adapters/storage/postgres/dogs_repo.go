package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"dog-registry/internal/domain/dogs"
)

type DogsRepo struct {
	db *sql.DB
}

func NewDogsRepo(db *sql.DB) *DogsRepo {
	return &DogsRepo{db: db}
}

func (r *DogsRepo) Create(ctx context.Context, d dogs.Dog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dogs (
			id, owner_user_id,
			name, breed, color, registration_number, titles,
			sex, birth_date, sire_id, dam_id,
			approval_status, notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		d.ID,
		d.OwnerUserID,
		d.Name,
		d.Breed,
		d.Color,
		d.RegistrationNumber,
		joinTitles(d.Titles),
		d.Sex,
		toNullDate(d.BirthDate),
		toNullString(d.SireID),
		toNullString(d.DamID),
		d.ApprovalStatus,
		d.Notes,
		d.CreatedAt,
		d.UpdatedAt,
	)
	return err
}

func (r *DogsRepo) Update(ctx context.Context, d dogs.Dog) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE dogs
		SET
			name = $2,
			breed = $3,
			color = $4,
			registration_number = $5,
			titles = $6,
			sex = $7,
			birth_date = $8,
			sire_id = $9,
			dam_id = $10,
			approval_status = $11,
			notes = $12,
			updated_at = $13
		WHERE id = $1
	`,
		d.ID,
		d.Name,
		d.Breed,
		d.Color,
		d.RegistrationNumber,
		joinTitles(d.Titles),
		d.Sex,
		toNullDate(d.BirthDate),
		toNullString(d.SireID),
		toNullString(d.DamID),
		d.ApprovalStatus,
		d.Notes,
		d.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return dogs.ErrNotFound
	}
	return nil
}

const dogColumns = `
	id, owner_user_id,
	name, breed, color, registration_number, titles,
	sex, birth_date, sire_id, dam_id,
	approval_status, notes,
	created_at, updated_at
`

func (r *DogsRepo) GetByID(ctx context.Context, id string) (dogs.Dog, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return dogs.Dog{}, dogs.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+dogColumns+`
		FROM dogs
		WHERE id = $1
	`, id)

	return scanDog(row)
}

func (r *DogsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]dogs.Dog, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+dogColumns+`
		FROM dogs
		WHERE owner_user_id = $1
		ORDER BY created_at ASC
	`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dogs.Dog, 0)
	for rows.Next() {
		d, err := scanDog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}

	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDog(row rowScanner) (dogs.Dog, error) {
	var d dogs.Dog
	var bd sql.NullTime
	var titles string
	var sireID, damID sql.NullString

	if err := row.Scan(
		&d.ID,
		&d.OwnerUserID,
		&d.Name,
		&d.Breed,
		&d.Color,
		&d.RegistrationNumber,
		&titles,
		&d.Sex,
		&bd,
		&sireID,
		&damID,
		&d.ApprovalStatus,
		&d.Notes,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return dogs.Dog{}, dogs.ErrNotFound
		}
		return dogs.Dog{}, err
	}

	d.Titles = splitTitles(titles)
	if bd.Valid {
		t := bd.Time
		d.BirthDate = &t
	}
	if sireID.Valid {
		s := sireID.String
		d.SireID = &s
	}
	if damID.Valid {
		s := damID.String
		d.DamID = &s
	}

	return d, nil
}

// titles va como texto separado por coma (MVP; si crece, pasar a
// columna array o tabla aparte).
func joinTitles(titles []string) string {
	return strings.Join(titles, ",")
}

func splitTitles(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// birth_date es DATE, lo pasamos como NullTime para simplificar
func toNullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}
