// Package sdf поддерживает приближённое поле расстояний до ближайшего
// твёрдого вокселя: однократный параллельный пересчёт и дешёвый ремонт после правок.
package sdf

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/annel0/voxelfield/internal/logging"
	"github.com/annel0/voxelfield/internal/metrics"
	"github.com/annel0/voxelfield/internal/voxel"
)

const (
	DefaultRadius  = 8
	DefaultWorkers = 4
)

var tracer = otel.Tracer("voxelfield/sdf")

// RepairScope определяет, что пересканируется после изменения вокселя
type RepairScope int

const (
	// ScopeNeighborhood: изменённый воксель и все его соседи из ядра
	ScopeNeighborhood RepairScope = iota
	// ScopeVoxel: только изменённый воксель; соседи могут остаться устаревшими
	ScopeVoxel
)

func (s RepairScope) String() string {
	switch s {
	case ScopeNeighborhood:
		return "neighborhood"
	case ScopeVoxel:
		return "voxel"
	default:
		return "unknown"
	}
}

// ParseRepairScope разбирает значение repair_scope из конфигурации
func ParseRepairScope(s string) (RepairScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "neighborhood", "neighbourhood":
		return ScopeNeighborhood, nil
	case "voxel":
		return ScopeVoxel, nil
	}
	return ScopeNeighborhood, fmt.Errorf("unknown repair scope %q", s)
}

// Options параметры движка
type Options struct {
	Radius  int
	Workers int
	Scope   RepairScope
	Metrics *metrics.Recorder
	Logger  *logging.Logger
}

// Engine вычисляет и поддерживает поле расстояний поверх хранилища.
// Движок не владеет хранилищем и не синхронизирует доступ к нему.
type Engine struct {
	store     *voxel.Store
	kernel    *Kernel
	workers   int
	scope     RepairScope
	saturated int32
	metrics   *metrics.Recorder
	logger    *logging.Logger
}

// NewEngine создаёт движок для хранилища
func NewEngine(store *voxel.Store, opts Options) *Engine {
	if opts.Radius <= 0 {
		opts.Radius = DefaultRadius
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetFieldLogger()
	}

	kernel := KernelFor(opts.Radius)
	return &Engine{
		store:     store,
		kernel:    kernel,
		workers:   opts.Workers,
		scope:     opts.Scope,
		saturated: voxel.EncodeDistance(float32(kernel.Radius())),
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
}

// Kernel возвращает общее ядро движка
func (e *Engine) Kernel() *Kernel { return e.kernel }

// Radius возвращает радиус поиска
func (e *Engine) Radius() int { return e.kernel.Radius() }

// Workers возвращает настроенное число воркеров
func (e *Engine) Workers() int { return e.workers }

// Scope возвращает режим ремонта
func (e *Engine) Scope() RepairScope { return e.scope }

// Saturated возвращает значение насыщения: пустой воксель без твёрдых соседей в радиусе.
func (e *Engine) Saturated() int32 { return e.saturated }

// ScanAt вычисляет значение пустого вокселя по текущему содержимому хранилища.
func (e *Engine) ScanAt(x, y, z int) int32 {
	return e.scan(storeReader{store: e.store}, x, y, z)
}

// scan проходит ядро по возрастанию расстояния и останавливается на первом твёрдом соседе
func (e *Engine) scan(r solidReader, x, y, z int) int32 {
	for _, off := range e.kernel.offsets {
		if r.solidAt(x+off.DX, y+off.DY, z+off.DZ) {
			return voxel.EncodeDistance(off.Dist)
		}
	}
	return e.saturated
}

// Repair пересчитывает поле после изменения вокселей с индексами mutated.
// Возвращает индексы, значение которых могло измениться: сами изменённые
// воксели и пересканированные соседи, у которых значение действительно поменялось.
func (e *Engine) Repair(ctx context.Context, mutated []int) []int {
	if len(mutated) == 0 {
		return nil
	}
	_, span := tracer.Start(ctx, "sdf.Repair")
	defer span.End()

	n := e.store.Len()
	queue := voxel.NewDirtySet()
	origin := make(map[int]struct{}, len(mutated))
	roots := make([]int, 0, len(mutated))
	for _, idx := range mutated {
		if idx < 0 || idx >= n {
			continue
		}
		if _, dup := origin[idx]; dup {
			continue
		}
		origin[idx] = struct{}{}
		roots = append(roots, idx)
		queue.Add(idx)
	}
	if e.scope == ScopeNeighborhood {
		for _, idx := range roots {
			x, y, z := e.store.Coord(idx)
			for _, off := range e.kernel.offsets {
				if j, ok := e.store.Index(x+off.DX, y+off.DY, z+off.DZ); ok {
					queue.Add(j)
				}
			}
		}
	}

	reader := storeReader{store: e.store}
	rescanned := 0
	changed := make([]int, 0, len(origin))
	for _, idx := range queue.Drain() {
		_, isOrigin := origin[idx]
		v := e.store.At(idx)
		if v >= 0 {
			if isOrigin {
				changed = append(changed, idx)
			}
			continue
		}

		rescanned++
		x, y, z := e.store.Coord(idx)
		nv := e.scan(reader, x, y, z)
		if nv != v {
			e.store.Put(idx, nv)
		}
		if isOrigin || nv != v {
			changed = append(changed, idx)
		}
	}

	span.SetAttributes(
		attribute.Int("sdf.mutated", len(origin)),
		attribute.Int("sdf.rescanned", rescanned),
		attribute.Int("sdf.changed", len(changed)),
	)
	e.metrics.AddRepaired(rescanned)
	e.logger.Trace("🩹 Ремонт поля: изменено %d, пересканировано %d, обновлено %d",
		len(origin), rescanned, len(changed))
	return changed
}
