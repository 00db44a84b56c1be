package provisioning

import (
	"context"
	"time"
)

// SleepFunc espera d o hasta que ctx se cancele.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep implementación real de SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Throttle introduce una pausa cada N eventos exitosos para respetar el límite de altas del proveedor.
type Throttle struct {
	every int
	pause time.Duration
	sleep SleepFunc
	count int
}

// NewThrottle construye el limitador. every <= 0 desactiva las pausas.
func NewThrottle(every int, pause time.Duration, sleep SleepFunc) *Throttle {
	if sleep == nil {
		sleep = Sleep
	}
	return &Throttle{every: every, pause: pause, sleep: sleep}
}

// Success registra un alta exitosa y pausa si se alcanzó el múltiplo configurado.
func (t *Throttle) Success(ctx context.Context) error {
	t.count++
	if t.every <= 0 || t.count%t.every != 0 {
		return nil
	}
	return t.sleep(ctx, t.pause)
}

// Count altas exitosas registradas.
func (t *Throttle) Count() int { return t.count }
