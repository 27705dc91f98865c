package pedigree

import (
	"strings"
	"time"

	"dog-registry/internal/domain/dogs"
)

// Summary es la proyección de un perro para presentación dentro de un
// árbol o reporte. No se persiste; se arma por request.
type Summary struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Breed              string     `json:"breed"`
	Color              string     `json:"color"`
	RegistrationNumber string     `json:"registration_number"`
	Titles             []string   `json:"titles"`
	Sex                string     `json:"sex"`
	BirthDate          *time.Time `json:"birth_date,omitempty"`
	ApprovalStatus     string     `json:"approval_status"`
}

// Node es un nodo transitorio del árbol de pedigree: el perro más sus
// padres resueltos recursivamente hasta el límite de generaciones.
// Sire/Dam en nil significa rama terminada (sin padre registrado,
// no encontrado, o filtrado por visibilidad).
type Node struct {
	Dog        Summary `json:"dog"`
	Generation int     `json:"generation"`
	Sire       *Node   `json:"sire,omitempty"`
	Dam        *Node   `json:"dam,omitempty"`
}

// AncestorEntry acumula, para un ancestro alcanzable desde la raíz del
// traversal, su registro completo y cada path textual distinto por el
// que se llega a él. La multiplicidad de paths es la base del cálculo
// de linebreeding.
type AncestorEntry struct {
	Dog   dogs.Dog
	Paths []string
}

// pathSeparator une nombres en un path textual, p.ej. "Rex > Duke > King".
const pathSeparator = " > "

func joinPath(names []string) string {
	return strings.Join(names, pathSeparator)
}

// segmentCount cuenta los nombres de un path.
func segmentCount(path string) int {
	if path == "" {
		return 0
	}
	return len(strings.Split(path, pathSeparator))
}

func toSummary(d dogs.Dog) Summary {
	titles := d.Titles
	if titles == nil {
		titles = []string{}
	}
	return Summary{
		ID:                 d.ID,
		Name:               d.Name,
		Breed:              d.Breed,
		Color:              d.Color,
		RegistrationNumber: d.RegistrationNumber,
		Titles:             titles,
		Sex:                string(d.Sex),
		BirthDate:          d.BirthDate,
		// Normalizado para display: el flag puede venir con casing
		// inconsistente desde cargas históricas.
		ApprovalStatus: strings.ToLower(string(d.ApprovalStatus)),
	}
}
