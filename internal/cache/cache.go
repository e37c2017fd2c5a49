// Package cache provee el almacenamiento transitorio key/value con TTL que
// media cada hand-off del flujo OAuth (state, verifier, credenciales).
//
// Soporta:
//   - Memory (in-process, para desarrollo/testing)
//   - Redis (distribuido, para producción)
//
// Una key ausente por TTL vencido o por Delete explícito es indistinguible
// de una key que nunca existió: ambas retornan ErrNotFound.
package cache

import (
	"context"
	"time"
)

// Client define las operaciones del store transitorio.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor con TTL opcional.
	// Si ttl es 0, no expira.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete elimina una key. Borrar una key inexistente no es error.
	Delete(ctx context.Context, key string) error

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close cierra la conexión.
	Close() error

	// Stats retorna estadísticas del store.
	Stats(ctx context.Context) (Stats, error)
}

// Stats contiene estadísticas del store.
type Stats struct {
	Driver     string
	Keys       int64
	UsedMemory string
	Hits       int64
	Misses     int64
}

// Config configuración para crear un cliente.
type Config struct {
	Driver   string // "memory" | "redis"
	Addr     string
	Password string
	DB       int
	Prefix   string // Prefijo para todas las keys
}

// Errores del store.
var (
	ErrNotFound = errNotFound{}
)

type errNotFound struct{}

func (e errNotFound) Error() string { return "cache: key not found" }

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	_, ok := err.(errNotFound)
	return ok
}

// New crea un cliente según la configuración.
func New(cfg Config) (Client, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedis(cfg)
	case "memory", "":
		return NewMemory(cfg.Prefix), nil
	default:
		return NewMemory(cfg.Prefix), nil
	}
}
