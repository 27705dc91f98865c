package pedigree

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"dog-registry/internal/domain/dogs"
	"dog-registry/internal/platform/metrics"
	"dog-registry/internal/ports/auth"
	"dog-registry/internal/ports/visibility"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// DefaultGenerations es la profundidad por defecto del análisis de
// linebreeding.
const DefaultGenerations = 6

// DogFinder es el accessor de solo lectura sobre el store genealógico.
// *dogs.Service lo satisface; los tests inyectan un stub.
type DogFinder interface {
	GetByID(ctx context.Context, id string) (dogs.Dog, error)
}

// Service implementa los traversals de ancestros y el análisis de
// linebreeding. No guarda estado entre requests: cada traversal arma
// su propio cache de lookups y lo descarta al terminar.
type Service struct {
	finder  DogFinder
	policy  visibility.Policy
	metrics *metrics.Metrics

	// MaxGenerations acota G para evitar traversals O(2^G) absurdos
	// pedidos por query param.
	maxGenerations int
}

func NewService(finder DogFinder, policy visibility.Policy, m *metrics.Metrics, maxGenerations int) *Service {
	if policy == nil {
		policy = visibility.RolePolicy{}
	}
	if maxGenerations < 1 {
		maxGenerations = 10
	}
	return &Service{
		finder:         finder,
		policy:         policy,
		metrics:        m,
		maxGenerations: maxGenerations,
	}
}

// dogCache memoiza lookups por ID dentro de un request. Las ramas
// sire/dam se resuelven en paralelo, así que el mapa va con mutex.
type dogCache struct {
	finder DogFinder

	mu sync.Mutex
	m  map[string]cachedDog
}

type cachedDog struct {
	dog   dogs.Dog
	found bool
}

func newDogCache(finder DogFinder) *dogCache {
	return &dogCache{finder: finder, m: make(map[string]cachedDog)}
}

// get devuelve (dog, found, err). "No encontrado" no es error: termina
// la rama. Solo fallas sistémicas del store propagan error.
func (c *dogCache) get(ctx context.Context, id string) (dogs.Dog, bool, error) {
	c.mu.Lock()
	if e, ok := c.m[id]; ok {
		c.mu.Unlock()
		return e.dog, e.found, nil
	}
	c.mu.Unlock()

	d, err := c.finder.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dogs.ErrNotFound) || errors.Is(err, dogs.ErrInvalidInput) {
			c.mu.Lock()
			c.m[id] = cachedDog{found: false}
			c.mu.Unlock()
			return dogs.Dog{}, false, nil
		}
		return dogs.Dog{}, false, err
	}

	c.mu.Lock()
	c.m[id] = cachedDog{dog: d, found: true}
	c.mu.Unlock()
	return d, true, nil
}

// BuildTree construye el árbol de pedigree acotado por generaciones.
// La raíz cuenta como generación 1; se recursa a los padres solo
// mientras depth < generations. La raíz no pasa por el filtro de
// aprobación (comportamiento documentado del sistema); los ancestros
// no aprobados se ocultan salvo que la policy lo permita.
func (s *Service) BuildTree(ctx context.Context, claims auth.Claims, dogID string, generations int) (*Node, error) {
	if strings.TrimSpace(dogID) == "" {
		return nil, ErrInvalidInput
	}
	if generations < 1 {
		return nil, fmt.Errorf("%w: generations must be >= 1", ErrInvalidInput)
	}
	if generations > s.maxGenerations {
		generations = s.maxGenerations
	}

	if s.metrics != nil {
		timer := s.metrics.PedigreeTimer()
		defer timer.ObserveDuration()
	}

	cache := newDogCache(s.finder)
	root, found, err := cache.get(ctx, dogID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: dog with ID %s", ErrNotFound, dogID)
	}

	includeUnapproved := s.policy.CanViewUnapproved(ctx, claims)
	return s.buildNode(ctx, cache, root, 1, generations, includeUnapproved, map[string]struct{}{root.ID: {}})
}

func (s *Service) buildNode(ctx context.Context, cache *dogCache, d dogs.Dog, depth, limit int, includeUnapproved bool, onPath map[string]struct{}) (*Node, error) {
	node := &Node{Dog: toSummary(d), Generation: depth}

	if depth >= limit {
		return node, nil
	}

	// Ramas sire y dam son independientes: se resuelven en paralelo.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		child, err := s.buildParent(gctx, cache, d.SireID, depth, limit, includeUnapproved, onPath)
		if err != nil {
			return err
		}
		node.Sire = child
		return nil
	})
	g.Go(func() error {
		child, err := s.buildParent(gctx, cache, d.DamID, depth, limit, includeUnapproved, onPath)
		if err != nil {
			return err
		}
		node.Dam = child
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return node, nil
}

func (s *Service) buildParent(ctx context.Context, cache *dogCache, parentID *string, depth, limit int, includeUnapproved bool, onPath map[string]struct{}) (*Node, error) {
	if parentID == nil || *parentID == "" {
		return nil, nil
	}
	// Guard contra ciclos por error de carga (un perro listado como su
	// propio ancestro): el bound de generaciones ya garantiza
	// terminación, esto evita el trabajo inútil.
	if _, seen := onPath[*parentID]; seen {
		return nil, nil
	}

	parent, found, err := cache.get(ctx, *parentID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	// Filtro de visibilidad solo para nodos no-raíz.
	if !includeUnapproved && parent.ApprovalStatus != dogs.ApprovalApproved {
		return nil, nil
	}

	childPath := copyPathSet(onPath)
	childPath[parent.ID] = struct{}{}
	return s.buildNode(ctx, cache, parent, depth+1, limit, includeUnapproved, childPath)
}

// CollectAncestors enumera todos los ancestros de un perro hasta N
// generaciones, registrando cada path distinto raíz→ancestro. El perro
// raíz no aparece en el resultado. El orden de merge es determinístico:
// primero la rama sire, después la dam.
func (s *Service) CollectAncestors(ctx context.Context, dogID string, generations int) (map[string]*AncestorEntry, error) {
	cache := newDogCache(s.finder)

	root, found, err := cache.get(ctx, dogID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: dog with ID %s", ErrNotFound, dogID)
	}

	return s.collectParents(ctx, cache, root, generations, []string{root.Name}, map[string]struct{}{root.ID: {}})
}

func (s *Service) collectParents(ctx context.Context, cache *dogCache, d dogs.Dog, remaining int, prefix []string, onPath map[string]struct{}) (map[string]*AncestorEntry, error) {
	out := make(map[string]*AncestorEntry)
	if remaining <= 0 {
		return out, nil
	}

	var sireMap, damMap map[string]*AncestorEntry

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.collectBranch(gctx, cache, d.SireID, remaining, prefix, onPath)
		if err != nil {
			return err
		}
		sireMap = m
		return nil
	})
	g.Go(func() error {
		m, err := s.collectBranch(gctx, cache, d.DamID, remaining, prefix, onPath)
		if err != nil {
			return err
		}
		damMap = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mergeAncestors(out, sireMap)
	mergeAncestors(out, damMap)
	return out, nil
}

func (s *Service) collectBranch(ctx context.Context, cache *dogCache, parentID *string, remaining int, prefix []string, onPath map[string]struct{}) (map[string]*AncestorEntry, error) {
	if parentID == nil || *parentID == "" {
		return nil, nil
	}
	if _, seen := onPath[*parentID]; seen {
		return nil, nil
	}

	parent, found, err := cache.get(ctx, *parentID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	names := make([]string, 0, len(prefix)+1)
	names = append(names, prefix...)
	names = append(names, parent.Name)

	out := map[string]*AncestorEntry{
		parent.ID: {Dog: parent, Paths: []string{joinPath(names)}},
	}

	childPath := copyPathSet(onPath)
	childPath[parent.ID] = struct{}{}

	sub, err := s.collectParents(ctx, cache, parent, remaining-1, names, childPath)
	if err != nil {
		return nil, err
	}
	mergeAncestors(out, sub)
	return out, nil
}

// mergeAncestors acumula entradas de src en dst preservando el orden
// de paths (un ancestro alcanzable por varias ramas junta todos sus
// paths bajo el mismo ID).
func mergeAncestors(dst, src map[string]*AncestorEntry) {
	for id, e := range src {
		if cur, ok := dst[id]; ok {
			cur.Paths = append(cur.Paths, e.Paths...)
			continue
		}
		dst[id] = &AncestorEntry{Dog: e.Dog, Paths: append([]string(nil), e.Paths...)}
	}
}

func copyPathSet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in)+1)
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}
