package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración del request.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

// Bytes crea un campo para los bytes de respuesta.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - NEGOCIO
// =================================================================================

// Provider crea un campo para el proveedor de la integración.
func Provider(v string) zap.Field {
	return zap.String("provider", v)
}

// UserID crea un campo para el ID del usuario.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// OrgID crea un campo para el ID de la organización.
func OrgID(v string) zap.Field {
	return zap.String("org_id", v)
}

// ItemType crea un campo para el tipo de item normalizado.
func ItemType(v string) zap.Field {
	return zap.String("item_type", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer crea un campo para la capa (controller, flow, cache).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// =================================================================================
// CAMPOS ESTÁNDAR - DATOS
// =================================================================================

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// Key crea un campo genérico para una clave.
func Key(v string) zap.Field {
	return zap.String("key", v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}
