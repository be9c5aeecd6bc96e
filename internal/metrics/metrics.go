package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/annel0/voxelfield/internal/logging"
)

// Recorder инкапсулирует Prometheus-метрики поля расстояний и синхронизации.
// Все методы безопасны для nil-получателя, поэтому компоненты могут работать без метрик.
// Метрики регистрируются в собственном реестре, а не в глобальном.
type Recorder struct {
	registry *prometheus.Registry

	rebuildDuration prometheus.Histogram
	rebuildWorkers  prometheus.Gauge
	mutations       *prometheus.CounterVec
	repaired        prometheus.Counter
	spans           prometheus.Counter
	uploaded        *prometheus.CounterVec
	underflows      prometheus.Counter
	tickDuration    prometheus.Histogram
	processRSS      prometheus.Gauge
	processCPU      prometheus.Gauge
}

// NewRecorder создаёт Recorder и регистрирует метрики, но не запускает HTTP-сервер.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxelfield",
			Name:      "rebuild_duration_seconds",
			Help:      "Длительность полного пересчёта поля расстояний.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		rebuildWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelfield",
			Name:      "rebuild_workers",
			Help:      "Количество воркеров последнего полного пересчёта.",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxelfield",
			Name:      "mutations_total",
			Help:      "Число принятых изменений вокселей по типу операции.",
		}, []string{"op"}),
		repaired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelfield",
			Name:      "repaired_voxels_total",
			Help:      "Воксели, пересканированные инкрементальным ремонтом.",
		}),
		spans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelfield",
			Name:      "spans_emitted_total",
			Help:      "Непрерывные диапазоны, отправленные на загрузку.",
		}),
		uploaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxelfield",
			Name:      "uploaded_voxels_total",
			Help:      "Воксели, переданные рендереру, по типу загрузки.",
		}, []string{"kind"}),
		underflows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelfield",
			Name:      "occupancy_underflows_total",
			Help:      "Попытки уменьшить счётчик заполненности чанка ниже нуля.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxelfield",
			Name:      "tick_duration_seconds",
			Help:      "Длительность одного тика мутаций и синхронизации.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		processRSS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelfield",
			Name:      "process_rss_bytes",
			Help:      "Resident set size процесса.",
		}),
		processCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelfield",
			Name:      "process_cpu_percent",
			Help:      "Загрузка CPU процессом в процентах.",
		}),
	}

	r.registry.MustRegister(
		r.rebuildDuration, r.rebuildWorkers, r.mutations, r.repaired, r.spans,
		r.uploaded, r.underflows, r.tickDuration, r.processRSS, r.processCPU,
	)
	return r
}

// Registry возвращает реестр (для тестов и встраивания)
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler возвращает HTTP-обработчик /metrics
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// StartHTTP запускает HTTP-эндпоинт Prometheus на указанном адресе (например, ":2112").
// Метод неблокирующий: HTTP-сервер стартует в отдельной горутине.
func (r *Recorder) StartHTTP(addr string) {
	if r == nil || addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
}

// ObserveRebuild фиксирует завершённый полный пересчёт
func (r *Recorder) ObserveRebuild(workers int, d time.Duration) {
	if r == nil {
		return
	}
	r.rebuildWorkers.Set(float64(workers))
	r.rebuildDuration.Observe(d.Seconds())
}

// AddMutation учитывает изменение вокселя (op: "place" или "destroy")
func (r *Recorder) AddMutation(op string) {
	if r == nil {
		return
	}
	r.mutations.WithLabelValues(op).Inc()
}

// AddRepaired учитывает пересканированные воксели
func (r *Recorder) AddRepaired(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.repaired.Add(float64(n))
}

// AddSpans учитывает отправленные диапазоны
func (r *Recorder) AddSpans(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.spans.Add(float64(n))
}

// AddUploaded учитывает переданные воксели (kind: "full" или "range")
func (r *Recorder) AddUploaded(kind string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.uploaded.WithLabelValues(kind).Add(float64(n))
}

// AddUnderflow учитывает попытку уйти ниже нуля в счётчике чанка
func (r *Recorder) AddUnderflow() {
	if r == nil {
		return
	}
	r.underflows.Inc()
}

// ObserveTick фиксирует длительность тика
func (r *Recorder) ObserveTick(d time.Duration) {
	if r == nil {
		return
	}
	r.tickDuration.Observe(d.Seconds())
}

// SampleProcess обновляет метрики процесса через gopsutil
func (r *Recorder) SampleProcess() error {
	if r == nil {
		return nil
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		r.processRSS.Set(float64(mem.RSS))
	}
	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		return err
	}
	r.processCPU.Set(cpuPercent)
	return nil
}
