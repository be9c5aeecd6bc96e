// Package world объединяет хранилище вокселей, поле расстояний, уведомитель
// изменений и счётчики чанков в один агрегат с API мутаций и тиков.
package world

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/annel0/voxelfield/internal/logging"
	"github.com/annel0/voxelfield/internal/metrics"
	"github.com/annel0/voxelfield/internal/occupancy"
	"github.com/annel0/voxelfield/internal/sdf"
	vsync "github.com/annel0/voxelfield/internal/sync"
	"github.com/annel0/voxelfield/internal/upload"
	"github.com/annel0/voxelfield/internal/vec"
	"github.com/annel0/voxelfield/internal/voxel"
)

// Span описывает диапазон линейных индексов, отправленный рендереру
type Span = vsync.Span

var tracer = otel.Tracer("voxelfield/world")

// Options параметры мира
type Options struct {
	Width     int
	Height    int
	Radius    int
	Workers   int
	Scope     sdf.RepairScope
	ChunkSize int // 0 отключает счётчики чанков
	Target    upload.Target
	Metrics   *metrics.Recorder
	Logger    *logging.Logger
}

// World владеет всем состоянием воксельного мира.
// Однопоточный: мутации, Tick и запросы вызываются из одной горутины.
type World struct {
	id        uuid.UUID
	store     *voxel.Store
	engine    *sdf.Engine
	notifier  *vsync.Notifier
	occupancy *occupancy.Counter
	target    upload.Target
	metrics   *metrics.Recorder
	logger    *logging.Logger

	rebuild *sdf.Rebuild
	ready   bool
	pending []Mutation
	tick    uint64
}

// NewWorld создаёт мир, заполненный Unknown
func NewWorld(opts Options) *World {
	if opts.Logger == nil {
		opts.Logger = logging.GetWorldLogger()
	}
	if opts.Target == nil {
		opts.Target = upload.Discard{}
	}

	store := voxel.NewStore(opts.Width, opts.Height)
	w := &World{
		id:    uuid.New(),
		store: store,
		engine: sdf.NewEngine(store, sdf.Options{
			Radius:  opts.Radius,
			Workers: opts.Workers,
			Scope:   opts.Scope,
			Metrics: opts.Metrics,
		}),
		notifier: vsync.NewNotifier(store),
		target:   opts.Target,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
	if opts.ChunkSize > 0 {
		w.occupancy = occupancy.NewCounter(store.Bounds(), opts.ChunkSize, opts.Metrics)
	}

	w.logger.Info("🌍 Мир %s создан: %dx%dx%d (%s), радиус %d, ремонт %s",
		w.id, store.Width(), store.Height(), store.Width(),
		humanize.IBytes(store.SizeBytes()), w.engine.Radius(), w.engine.Scope())
	return w
}

// ID возвращает идентификатор мира
func (w *World) ID() uuid.UUID { return w.id }

// Store возвращает хранилище вокселей
func (w *World) Store() *voxel.Store { return w.store }

// Engine возвращает движок поля расстояний
func (w *World) Engine() *sdf.Engine { return w.engine }

// Occupancy возвращает счётчики чанков или nil, если они отключены
func (w *World) Occupancy() *occupancy.Counter { return w.occupancy }

// Bounds возвращает размеры мира
func (w *World) Bounds() vec.Vec3 { return w.store.Bounds() }

// TickCount возвращает номер последнего тика
func (w *World) TickCount() uint64 { return w.tick }

// Pending возвращает число изменений, ждущих окончания полного пересчёта
func (w *World) Pending() int { return len(w.pending) }

// Ready сообщает, выполнена ли полная загрузка после пересчёта
func (w *World) Ready() bool { return w.ready }

// Rebuilding сообщает, идёт ли полный пересчёт
func (w *World) Rebuilding() bool { return w.rebuild != nil && !w.ready }

// VoxelIndex возвращает линейный индекс вокселя; ok == false вне границ.
func (w *World) VoxelIndex(x, y, z int) (int, bool) {
	return w.store.Index(x, y, z)
}

// Get возвращает значение вокселя. Пока идёт пересчёт, значения пустых вокселей меняются.
func (w *World) Get(x, y, z int) int32 {
	return w.store.Get(x, y, z)
}

// PlaceVoxel ставит твёрдый воксель; вне границ ничего не делает.
// Во время полного пересчёта изменение откладывается до его окончания.
func (w *World) PlaceVoxel(x, y, z int, color int32) {
	w.mutate(Mutation{Kind: MutationPlace, X: x, Y: y, Z: z, Color: color})
}

// DestroyVoxel удаляет воксель; вне границ ничего не делает.
func (w *World) DestroyVoxel(x, y, z int) {
	w.mutate(Mutation{Kind: MutationDestroy, X: x, Y: y, Z: z})
}

func (w *World) mutate(m Mutation) {
	if _, ok := w.store.Index(m.X, m.Y, m.Z); !ok {
		return
	}
	if w.Rebuilding() {
		w.pending = append(w.pending, m)
		return
	}
	w.apply(m)
}

func (w *World) apply(m Mutation) {
	wasSolid := voxel.IsSolid(w.store.Get(m.X, m.Y, m.Z))
	switch m.Kind {
	case MutationPlace:
		w.store.SetSolid(m.X, m.Y, m.Z, m.Color)
	case MutationDestroy:
		w.store.Clear(m.X, m.Y, m.Z)
	}
	if w.occupancy != nil {
		w.occupancy.Apply(m.X, m.Y, m.Z, wasSolid, m.Kind == MutationPlace)
	}
	w.metrics.AddMutation(m.Kind.String())
}

// StartRebuild запускает полный пересчёт поля. Накопленные до этого изменения
// покрываются полной загрузкой, поэтому множество изменённых вокселей очищается.
// Повторный вызов возвращает уже запущенный пересчёт.
func (w *World) StartRebuild(ctx context.Context) *sdf.Rebuild {
	if w.rebuild != nil {
		return w.rebuild
	}
	w.store.Dirty().Reset()
	if w.occupancy != nil {
		w.occupancy.Rebuild(w.store)
	}
	w.rebuild = w.engine.StartRebuild(ctx)
	return w.rebuild
}

// Wait блокируется до завершения полного пересчёта, если он запущен
func (w *World) Wait() error {
	if w.rebuild == nil {
		return nil
	}
	return w.rebuild.Wait()
}

// Tick выполняет один проход главного цикла:
// проверяет готовность пересчёта, делает единственную полную загрузку,
// ремонтирует поле вокруг изменений и отправляет диапазоны рендереру.
func (w *World) Tick(ctx context.Context) TickResult {
	started := time.Now()
	w.tick++
	res := TickResult{Tick: w.tick}
	if w.rebuild == nil {
		return res
	}

	ctx, span := tracer.Start(ctx, "world.Tick")
	defer span.End()

	if !w.ready {
		if !w.rebuild.Done() {
			return res
		}
		if err := w.rebuild.Wait(); err != nil {
			w.logger.Error("❌ Полный пересчёт завершился с ошибкой: %v", err)
		}
		w.ready = true
		w.fullUpload()
		res.FullUpload = true

		pending := w.pending
		w.pending = nil
		for _, m := range pending {
			w.apply(m)
		}
		if len(pending) > 0 {
			w.logger.Debug("📥 Применено %d отложенных изменений", len(pending))
		}
	}

	mutated := w.store.Dirty().Drain()
	if len(mutated) > 0 {
		changed := w.engine.Repair(ctx, mutated)
		for _, idx := range changed {
			w.notifier.TouchIndex(idx)
		}
		res.Mutations = len(mutated)
		res.Repaired = len(changed)
		res.Spans = w.flush()
	}

	span.SetAttributes(
		attribute.Int64("world.tick", int64(w.tick)),
		attribute.Int("world.mutations", res.Mutations),
		attribute.Int("world.spans", len(res.Spans)),
	)
	w.metrics.ObserveTick(time.Since(started))
	return res
}

func (w *World) fullUpload() {
	cells := w.store.Cells()
	w.target.FullUpload(cells)
	w.metrics.AddUploaded("full", len(cells))
	w.logger.Info("📤 Полная загрузка %s после пересчёта за %v",
		humanize.IBytes(w.store.SizeBytes()), w.rebuild.Elapsed())
}

// flush отправляет диапазоны текущего тика; один вызов на диапазон.
func (w *World) flush() []Span {
	spans := w.notifier.Flush()
	cells := w.store.Cells()
	uploaded := 0
	for _, s := range spans {
		w.target.RangeUpload(s.Start, s.Length, cells[s.Start:s.End()])
		uploaded += s.Length
	}
	w.metrics.AddSpans(len(spans))
	w.metrics.AddUploaded("range", uploaded)
	return spans
}

// Run вызывает step и Tick с частотой tickRate до отмены ctx.
// Перед возвратом дожидается завершения полного пересчёта.
func (w *World) Run(ctx context.Context, tickRate int, step func(*World)) error {
	if tickRate <= 0 {
		tickRate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := w.Wait(); err != nil {
				return err
			}
			return ctx.Err()
		case <-ticker.C:
			if step != nil {
				step(w)
			}
			w.Tick(ctx)
		}
	}
}
