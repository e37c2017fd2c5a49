package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init inicializa el logger singleton con la configuración dada.
// Es idempotente: solo la primera llamada tiene efecto.
// Debe llamarse al inicio de la aplicación (main.go).
func Init(cfg Config) {
	once.Do(func() {
		instance = build(cfg)
	})
}

// L retorna el logger singleton.
// Si Init() no fue llamado, crea un logger por defecto (dev, info).
func L() *zap.Logger {
	if instance == nil {
		Init(Config{Env: "dev", Level: "info"})
	}
	return instance
}

// S retorna el SugaredLogger del singleton.
// Útil para logs rápidos con formato printf-style.
func S() *zap.SugaredLogger {
	return L().Sugar()
}

// SFrom extrae el SugaredLogger del contexto.
func SFrom(ctx context.Context) *zap.SugaredLogger {
	return From(ctx).Sugar()
}
