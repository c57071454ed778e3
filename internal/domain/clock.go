package domain

import "time"

// Clock fuente de tiempo inyectable (marcas de tiempo y vencimientos de fiado).
type Clock interface {
	Now() time.Time
}

// SystemClock usa el reloj del sistema en UTC.
type SystemClock struct{}

// Now devuelve la hora actual en UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock reloj fijo, útil en pruebas y procesos por lotes.
type FixedClock struct {
	T time.Time
}

// Now devuelve siempre el mismo instante.
func (c FixedClock) Now() time.Time { return c.T }
