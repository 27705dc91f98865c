package dogs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mem "dog-registry/internal/adapters/storage/memory"
	"dog-registry/internal/domain/dogs"
)

func newService() *dogs.Service {
	return dogs.NewService(mem.NewDogRepo())
}

func createDog(t *testing.T, svc *dogs.Service, in dogs.CreateInput) dogs.Dog {
	t.Helper()
	d, err := svc.Create(context.Background(), "owner-1", in)
	require.NoError(t, err)
	return d
}

func TestCreate(t *testing.T) {
	svc := newService()

	d := createDog(t, svc, dogs.CreateInput{
		Name:   "  Rex  ",
		Breed:  "Border Collie",
		Sex:    "Male",
		Titles: []string{"CH", " CH ", "", "GCH"},
	})

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "Rex", d.Name)
	assert.Equal(t, dogs.SexMale, d.Sex)
	assert.Equal(t, dogs.ApprovalPending, d.ApprovalStatus, "todo perro nuevo entra pending")
	assert.Equal(t, []string{"CH", "GCH"}, d.Titles, "títulos normalizados y sin duplicados")
}

func TestCreate_Validation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "owner-1", dogs.CreateInput{Name: "  ", Sex: "male"})
	require.ErrorIs(t, err, dogs.ErrInvalidInput)

	_, err = svc.Create(ctx, "owner-1", dogs.CreateInput{Name: "Rex", Sex: "unknown"})
	require.ErrorIs(t, err, dogs.ErrInvalidInput)

	_, err = svc.Create(ctx, "", dogs.CreateInput{Name: "Rex", Sex: "male"})
	require.ErrorIs(t, err, dogs.ErrInvalidInput)
}

func TestCreate_ParentValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	sire := createDog(t, svc, dogs.CreateInput{Name: "Duke", Sex: "male"})
	dam := createDog(t, svc, dogs.CreateInput{Name: "Luna", Sex: "female"})

	d := createDog(t, svc, dogs.CreateInput{
		Name:   "Rex",
		Sex:    "male",
		SireID: &sire.ID,
		DamID:  &dam.ID,
	})
	require.NotNil(t, d.SireID)
	assert.Equal(t, sire.ID, *d.SireID)

	// Sire inexistente.
	ghost := "no-such-dog"
	_, err := svc.Create(ctx, "owner-1", dogs.CreateInput{Name: "Rex", Sex: "male", SireID: &ghost})
	require.ErrorIs(t, err, dogs.ErrNotFound)

	// Sexo equivocado para el rol.
	_, err = svc.Create(ctx, "owner-1", dogs.CreateInput{Name: "Rex", Sex: "male", SireID: &dam.ID})
	require.ErrorIs(t, err, dogs.ErrInvalidInput)
	_, err = svc.Create(ctx, "owner-1", dogs.CreateInput{Name: "Rex", Sex: "male", DamID: &sire.ID})
	require.ErrorIs(t, err, dogs.ErrInvalidInput)
}

func TestUpdateProfile(t *testing.T) {
	svc := newService()
	d := createDog(t, svc, dogs.CreateInput{Name: "Rex", Sex: "male", Breed: "Mestizo"})

	name := "Rex II"
	notes := "campeón regional"
	updated, err := svc.UpdateProfile(context.Background(), d.ID, dogs.UpdateProfileInput{
		Name:  &name,
		Notes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, "Rex II", updated.Name)
	assert.Equal(t, "campeón regional", updated.Notes)
	assert.Equal(t, "Mestizo", updated.Breed, "campos no enviados quedan intactos")

	empty := "  "
	_, err = svc.UpdateProfile(context.Background(), d.ID, dogs.UpdateProfileInput{Name: &empty})
	require.ErrorIs(t, err, dogs.ErrInvalidInput)

	_, err = svc.UpdateProfile(context.Background(), "missing", dogs.UpdateProfileInput{Name: &name})
	require.ErrorIs(t, err, dogs.ErrNotFound)
}

func TestSetApproval(t *testing.T) {
	svc := newService()
	d := createDog(t, svc, dogs.CreateInput{Name: "Rex", Sex: "male"})

	updated, err := svc.SetApproval(context.Background(), d.ID, "APPROVED")
	require.NoError(t, err)
	assert.Equal(t, dogs.ApprovalApproved, updated.ApprovalStatus)

	_, err = svc.SetApproval(context.Background(), d.ID, "maybe")
	require.ErrorIs(t, err, dogs.ErrInvalidInput)
}

// failingRepo falla todas las operaciones con el mismo error, como un
// Postgres caído.
type failingRepo struct{ err error }

func (r failingRepo) Create(ctx context.Context, d dogs.Dog) error { return r.err }
func (r failingRepo) Update(ctx context.Context, d dogs.Dog) error { return r.err }
func (r failingRepo) GetByID(ctx context.Context, id string) (dogs.Dog, error) {
	return dogs.Dog{}, r.err
}
func (r failingRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]dogs.Dog, error) {
	return nil, r.err
}

func TestGetByID_StoreFailureIsNotNotFound(t *testing.T) {
	storeErr := errors.New("pq: connection reset by peer")
	svc := dogs.NewService(failingRepo{err: storeErr})

	_, err := svc.GetByID(context.Background(), "dog-1")
	require.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, dogs.ErrNotFound)
}
