package sdf

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Rebuild описывает запущенный полный пересчёт поля.
// Готовность опрашивается через Done без блокировки, Wait служит барьером.
type Rebuild struct {
	flags   []atomic.Bool
	done    chan struct{}
	err     error
	started time.Time
	elapsed time.Duration
}

// Done сообщает, подняли ли все воркеры флаг завершения
func (r *Rebuild) Done() bool {
	for i := range r.flags {
		if !r.flags[i].Load() {
			return false
		}
	}
	return true
}

// Wait блокируется до завершения всех воркеров
func (r *Rebuild) Wait() error {
	<-r.done
	return r.err
}

// Workers возвращает фактическое число воркеров
func (r *Rebuild) Workers() int { return len(r.flags) }

// Elapsed возвращает длительность пересчёта (или время с момента старта, пока он идёт)
func (r *Rebuild) Elapsed() time.Duration {
	select {
	case <-r.done:
		return r.elapsed
	default:
		return time.Since(r.started)
	}
}

// slice задаёт диапазон Z [z0, z1) одного воркера
type slice struct {
	z0, z1 int
}

// partition делит глубину на n непрерывных срезов; n не больше depth.
func partition(depth, n int) []slice {
	if n > depth {
		n = depth
	}
	if n <= 0 {
		return nil
	}
	out := make([]slice, n)
	for i := 0; i < n; i++ {
		out[i] = slice{z0: i * depth / n, z1: (i + 1) * depth / n}
	}
	return out
}

// StartRebuild запускает полный пересчёт и сразу возвращает дескриптор.
// Пока пересчёт идёт, хранилище нельзя изменять.
// Контекст используется только для трассировки: отмены нет, пересчёт всегда доходит до конца.
func (e *Engine) StartRebuild(ctx context.Context) *Rebuild {
	slices := partition(e.store.Width(), e.workers)
	_, span := tracer.Start(ctx, "sdf.BulkRebuild", trace.WithAttributes(
		attribute.Int("sdf.workers", len(slices)),
		attribute.Int("sdf.radius", e.kernel.Radius()),
		attribute.Int("sdf.voxels", e.store.Len()),
	))

	r := &Rebuild{
		flags:   make([]atomic.Bool, len(slices)),
		done:    make(chan struct{}),
		started: time.Now(),
	}

	mask := newSolidMask(e.store)
	e.logger.Info("🧮 Полный пересчёт поля: %s, радиус %d, ядро %d смещений, воркеров %d",
		humanize.IBytes(e.store.SizeBytes()), e.kernel.Radius(), e.kernel.Len(), len(slices))

	var g errgroup.Group
	for i, s := range slices {
		i, s := i, s
		g.Go(func() error {
			defer r.flags[i].Store(true)
			e.rebuildSlice(mask, s)
			return nil
		})
	}

	go func() {
		r.err = g.Wait()
		r.elapsed = time.Since(r.started)

		span.SetAttributes(attribute.Int64("sdf.elapsed_ms", r.elapsed.Milliseconds()))
		span.End()
		e.metrics.ObserveRebuild(len(slices), r.elapsed)
		e.logger.Info("✅ Поле расстояний готово за %v", r.elapsed)
		close(r.done)
	}()
	return r
}

// BulkRebuild выполняет полный пересчёт и дожидается его завершения.
func (e *Engine) BulkRebuild(ctx context.Context) error {
	return e.StartRebuild(ctx).Wait()
}

// rebuildSlice пересчитывает пустые воксели среза; пишет только внутрь своего диапазона Z.
func (e *Engine) rebuildSlice(mask *solidMask, s slice) {
	w, h := e.store.Width(), e.store.Height()
	cells := e.store.Cells()
	for z := s.z0; z < s.z1; z++ {
		for y := 0; y < h; y++ {
			base := w*y + w*h*z
			for x := 0; x < w; x++ {
				idx := base + x
				if cells[idx] >= 0 {
					continue
				}
				cells[idx] = e.scan(mask, x, y, z)
			}
		}
	}
}
