package ratelimit

import "context"

// Limiter es la abstracción inyectable de rate limiting.
// Nunca estado global: el router recibe una implementación
// (in-memory para dev, redis para producción) y la aplica como middleware.
type Limiter interface {
	// Allow devuelve true si la key puede ejecutar un request más
	// dentro de la ventana actual.
	Allow(ctx context.Context, key string) (bool, error)
}
