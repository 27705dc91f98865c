package pedigree

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"dog-registry/internal/domain/dogs"
)

// CommonAncestor es un ancestro compartido entre sire y dam candidatos,
// con su aporte estimado al coeficiente de inbreeding.
type CommonAncestor struct {
	Dog          Summary  `json:"dog"`
	Occurrences  int      `json:"occurrences"`
	Pathways     []string `json:"pathways"`
	Contribution float64  `json:"contribution"`
}

// Report es el resultado del análisis de linebreeding. Cálculo puro:
// no escribe nada.
type Report struct {
	SireID      string `json:"sire_id"`
	DamID       string `json:"dam_id"`
	Generations int    `json:"generations"`

	InbreedingCoefficient float64          `json:"inbreeding_coefficient"`
	GeneticDiversity      float64          `json:"genetic_diversity"`
	CommonAncestors       []CommonAncestor `json:"common_ancestors"`
	Recommendations       []string         `json:"recommendations"`
}

// Linebreeding valida el par candidato, recolecta los ancestros de cada
// lado y estima coeficiente de inbreeding y diversidad genética.
//
// El aporte de cada ancestro común usa solo el largo del primer pathway
// registrado (no un promedio sobre todos), compatible con el scoring
// histórico del registro. No es un coeficiente de Wright estricto.
func (s *Service) Linebreeding(ctx context.Context, sireID, damID string, generations int) (Report, error) {
	if generations <= 0 {
		generations = DefaultGenerations
	}
	if generations > s.maxGenerations {
		generations = s.maxGenerations
	}

	if s.metrics != nil {
		s.metrics.LinebreedingAnalyses.Inc()
	}

	sire, err := s.finder.GetByID(ctx, sireID)
	if err != nil {
		if errors.Is(err, dogs.ErrNotFound) {
			return Report{}, fmt.Errorf("%w: sire with ID %s", ErrNotFound, sireID)
		}
		return Report{}, err
	}
	dam, err := s.finder.GetByID(ctx, damID)
	if err != nil {
		if errors.Is(err, dogs.ErrNotFound) {
			return Report{}, fmt.Errorf("%w: dam with ID %s", ErrNotFound, damID)
		}
		return Report{}, err
	}

	if sire.Sex != dogs.SexMale {
		return Report{}, fmt.Errorf("%w: sire with ID %s must be male", ErrInvalidInput, sireID)
	}
	if dam.Sex != dogs.SexFemale {
		return Report{}, fmt.Errorf("%w: dam with ID %s must be female", ErrInvalidInput, damID)
	}

	// Los dos traversals son independientes entre sí.
	var sireAncestors, damAncestors map[string]*AncestorEntry

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.CollectAncestors(gctx, sireID, generations)
		if err != nil {
			return err
		}
		sireAncestors = m
		return nil
	})
	g.Go(func() error {
		m, err := s.CollectAncestors(gctx, damID, generations)
		if err != nil {
			return err
		}
		damAncestors = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{
		SireID:          sireID,
		DamID:           damID,
		Generations:     generations,
		CommonAncestors: make([]CommonAncestor, 0),
	}

	// Intersección determinística: IDs comunes en orden estable antes
	// del sort por contribution.
	commonIDs := make([]string, 0)
	for id := range sireAncestors {
		if _, ok := damAncestors[id]; ok {
			commonIDs = append(commonIDs, id)
		}
	}
	sort.Strings(commonIDs)

	for _, id := range commonIDs {
		se := sireAncestors[id]
		de := damAncestors[id]

		pathways := make([]string, 0, len(se.Paths)+len(de.Paths))
		pathways = append(pathways, se.Paths...)
		pathways = append(pathways, de.Paths...)

		contribution := math.Pow(0.5, float64(segmentCount(pathways[0])-1))

		report.CommonAncestors = append(report.CommonAncestors, CommonAncestor{
			Dog:          toSummary(se.Dog),
			Occurrences:  len(se.Paths) + len(de.Paths),
			Pathways:     pathways,
			Contribution: contribution,
		})
		report.InbreedingCoefficient += contribution
	}

	report.GeneticDiversity = math.Max(0, 1-report.InbreedingCoefficient)

	sort.SliceStable(report.CommonAncestors, func(i, j int) bool {
		return report.CommonAncestors[i].Contribution > report.CommonAncestors[j].Contribution
	})

	report.Recommendations = buildRecommendations(report)
	return report, nil
}

func buildRecommendations(r Report) []string {
	out := make([]string, 0, 3)

	switch {
	case r.InbreedingCoefficient > 0.25:
		out = append(out, fmt.Sprintf(
			"High inbreeding coefficient (%.4f). Consider selecting a different pairing.",
			r.InbreedingCoefficient))
	case r.InbreedingCoefficient > 0.125:
		out = append(out, fmt.Sprintf(
			"Moderate inbreeding coefficient (%.4f). Proceed with caution.",
			r.InbreedingCoefficient))
	default:
		out = append(out, fmt.Sprintf(
			"Acceptable inbreeding coefficient (%.4f). The pairing is genetically diverse.",
			r.InbreedingCoefficient))
	}

	if len(r.CommonAncestors) == 0 {
		out = append(out, fmt.Sprintf(
			"No common ancestors found within %d generations.", r.Generations))
		return out
	}

	out = append(out, fmt.Sprintf(
		"The pair shares %d common ancestor(s) within %d generations.",
		len(r.CommonAncestors), r.Generations))

	if top := r.CommonAncestors[0]; top.Contribution > 0.2 {
		out = append(out, fmt.Sprintf(
			"Warning: %s appears close-up on both sides of the pedigree (contribution %.4f).",
			top.Dog.Name, top.Contribution))
	}

	return out
}
