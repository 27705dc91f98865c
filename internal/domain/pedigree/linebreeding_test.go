package pedigree

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dog-registry/internal/domain/dogs"
)

func TestLinebreeding_NoCommonAncestors(t *testing.T) {
	finder := newStubFinder(
		testDog("s", "Rex", dogs.SexMale, ref("sf"), nil),
		testDog("sf", "Duke", dogs.SexMale, nil, nil),
		testDog("d", "Luna", dogs.SexFemale, ref("df"), nil),
		testDog("df", "Thor", dogs.SexMale, nil, nil),
	)
	svc := NewService(finder, nil, nil, 0)

	report, err := svc.Linebreeding(context.Background(), "s", "d", 6)
	require.NoError(t, err)

	assert.Equal(t, 0.0, report.InbreedingCoefficient)
	assert.Equal(t, 1.0, report.GeneticDiversity)
	assert.Empty(t, report.CommonAncestors)
	require.Len(t, report.Recommendations, 2)
	assert.Contains(t, report.Recommendations[0], "Acceptable inbreeding coefficient")
	assert.Contains(t, report.Recommendations[1], "No common ancestors found within 6 generations")
}

func TestLinebreeding_SharedGrandsire(t *testing.T) {
	// A es abuelo paterno del sire y abuelo materno indirecto de la dam:
	// un path de 3 nombres por lado => aporte 0.5^2 = 0.25.
	finder := newStubFinder(
		testDog("a", "King", dogs.SexMale, nil, nil),
		testDog("x", "Duke", dogs.SexMale, ref("a"), nil),
		testDog("y", "Nala", dogs.SexFemale, ref("a"), nil),
		testDog("s", "Rex", dogs.SexMale, ref("x"), nil),
		testDog("d", "Luna", dogs.SexFemale, nil, ref("y")),
	)
	svc := NewService(finder, nil, nil, 0)

	report, err := svc.Linebreeding(context.Background(), "s", "d", 6)
	require.NoError(t, err)

	// Ancestros comunes: solo "a" (x e y no se comparten).
	require.Len(t, report.CommonAncestors, 1)
	ca := report.CommonAncestors[0]
	assert.Equal(t, "King", ca.Dog.Name)
	assert.Equal(t, 2, ca.Occurrences)
	assert.Equal(t, []string{"Rex > Duke > King", "Luna > Nala > King"}, ca.Pathways)
	assert.InDelta(t, 0.25, ca.Contribution, 1e-9)

	assert.InDelta(t, 0.25, report.InbreedingCoefficient, 1e-9)
	assert.InDelta(t, 0.75, report.GeneticDiversity, 1e-9)

	// 0.25 no supera el umbral "high" (estricto), cae en moderate; el
	// top contributor supera 0.2 y dispara el warning.
	require.Len(t, report.Recommendations, 3)
	assert.Contains(t, report.Recommendations[0], "Moderate inbreeding coefficient (0.2500)")
	assert.Contains(t, report.Recommendations[1], "shares 1 common ancestor(s) within 6 generations")
	assert.Contains(t, report.Recommendations[2], "Warning: King appears close-up on both sides")
}

func TestLinebreeding_SortedByContribution(t *testing.T) {
	// "near" es padre compartido (aporte 0.5), "far" abuelo compartido
	// por la otra rama (aporte 0.25).
	finder := newStubFinder(
		testDog("far", "Ancient", dogs.SexMale, nil, nil),
		testDog("near", "King", dogs.SexMale, ref("far"), nil),
		testDog("s", "Rex", dogs.SexMale, ref("near"), nil),
		testDog("d", "Luna", dogs.SexFemale, ref("near"), nil),
	)
	svc := NewService(finder, nil, nil, 0)

	report, err := svc.Linebreeding(context.Background(), "s", "d", 6)
	require.NoError(t, err)

	require.Len(t, report.CommonAncestors, 2)
	assert.Equal(t, "King", report.CommonAncestors[0].Dog.Name)
	assert.Equal(t, "Ancient", report.CommonAncestors[1].Dog.Name)
	assert.Greater(t, report.CommonAncestors[0].Contribution, report.CommonAncestors[1].Contribution)

	// 0.5 + 0.25 > 0.25 => recomendación "high".
	assert.Contains(t, report.Recommendations[0], "High inbreeding coefficient")
}

func TestLinebreeding_SexValidation(t *testing.T) {
	finder := newStubFinder(
		testDog("s", "Rex", dogs.SexMale, nil, nil),
		testDog("d", "Luna", dogs.SexFemale, nil, nil),
	)
	svc := NewService(finder, nil, nil, 0)

	_, err := svc.Linebreeding(context.Background(), "d", "s", 6)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Linebreeding(context.Background(), "missing", "d", 6)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLinebreeding_DefaultGenerations(t *testing.T) {
	finder := newStubFinder(
		testDog("s", "Rex", dogs.SexMale, nil, nil),
		testDog("d", "Luna", dogs.SexFemale, nil, nil),
	)
	svc := NewService(finder, nil, nil, 0)

	report, err := svc.Linebreeding(context.Background(), "s", "d", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultGenerations, report.Generations)
}

func TestLinebreeding_StoreFailurePropagates(t *testing.T) {
	storeErr := errors.New("pq: connection reset by peer")
	finder := failingFinder{
		root: testDog("s", "Rex", dogs.SexMale, nil, nil),
		err:  storeErr,
	}
	svc := NewService(finder, nil, nil, 0)

	_, err := svc.Linebreeding(context.Background(), "s", "d", 4)
	require.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, ErrNotFound)
}
