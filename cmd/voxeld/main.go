package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/annel0/voxelfield/internal/config"
	"github.com/annel0/voxelfield/internal/logging"
	"github.com/annel0/voxelfield/internal/metrics"
	"github.com/annel0/voxelfield/internal/observability"
	vsync "github.com/annel0/voxelfield/internal/sync"
	"github.com/annel0/voxelfield/internal/terrain"
	"github.com/annel0/voxelfield/internal/upload"
	"github.com/annel0/voxelfield/internal/vec"
	"github.com/annel0/voxelfield/internal/world"
)

func main() {
	var (
		configPath   = flag.String("config", "", "Path to YAML/TOML config (default: $VOXEL_CONFIG)")
		ticks        = flag.Int("ticks", 600, "Number of ticks to run, 0 = until signal")
		tickRate     = flag.Int("rate", 60, "Ticks per second")
		destroyEvery = flag.Int("destroy-every", 30, "Remove a random sphere every N ticks, 0 = never")
		destroySize  = flag.Int("destroy-radius", 6, "Radius of removed spheres")
	)
	flag.Parse()
	if *tickRate <= 0 {
		*tickRate = 60
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logOpts, err := cfg.Logging.Options()
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации логирования: %v", err)
	}
	logging.Configure(logOpts)
	if err := logging.InitDefaultLogger("voxeld"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry.Enabled, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatalf("❌ Ошибка инициализации OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("Ошибка остановки OpenTelemetry: %v", err)
		}
	}()

	recorder := metrics.NewRecorder()
	recorder.StartHTTP(cfg.Metrics.GetAddr())

	workers := cfg.Field.GetWorkers()
	if cpus, err := cpu.Counts(true); err == nil {
		logging.Info("🖥️  Логических CPU: %d, воркеров пересчёта: %d", cpus, workers)
		if workers > cpus {
			logging.Warn("Воркеров больше, чем CPU: %d > %d", workers, cpus)
		}
	}
	scope, err := cfg.Field.GetRepairScope()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	// === ПОЛУЧАТЕЛИ ЗАГРУЗОК ===
	mirror := upload.NewMirror()
	targets := upload.Fanout{mirror}

	var stream *upload.StreamTarget
	if cfg.Stream.Path != "" {
		f, err := os.Create(cfg.Stream.Path)
		if err != nil {
			log.Fatalf("❌ Ошибка создания файла потока: %v", err)
		}
		defer f.Close()

		codec, err := vsync.NewCodec(cfg.Stream.Compress)
		if err != nil {
			log.Fatalf("❌ Ошибка создания кодека: %v", err)
		}
		stream = upload.NewStreamTarget(f, codec)
		targets = append(targets, stream)
		logging.Info("💾 Поток загрузок пишется в %s (кодек %s)", cfg.Stream.Path, codec.Name())
	}

	// === МИР ===
	w := world.NewWorld(world.Options{
		Width:     cfg.World.Width,
		Height:    cfg.World.Height,
		Radius:    cfg.Field.GetRadius(),
		Workers:   workers,
		Scope:     scope,
		ChunkSize: cfg.Occupancy.ChunkSize,
		Target:    targets,
		Metrics:   recorder,
	})

	gen := terrain.NewGenerator(cfg.Terrain.Seed)
	gen.StoneLevel = cfg.Terrain.StoneLevel
	gen.DirtLevel = cfg.Terrain.DirtLevel
	gen.GrassLevel = cfg.Terrain.GrassLevel
	gen.Amplitude = cfg.Terrain.Amplitude
	gen.NoiseScale = cfg.Terrain.NoiseScale
	gen.Trees = cfg.Terrain.Trees
	gen.Generate(w)

	w.StartRebuild(ctx)

	// === ГЛАВНЫЙ ЦИКЛ ===
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rng := rand.New(rand.NewSource(cfg.Terrain.Seed))
	bounds := w.Bounds()
	steps := 0
	step := func(w *world.World) {
		steps++
		if *ticks > 0 && steps >= *ticks {
			cancel()
		}
		if steps%(*tickRate) == 0 {
			if err := recorder.SampleProcess(); err != nil {
				logging.Debug("gopsutil: %v", err)
			}
		}
		if *destroyEvery <= 0 || steps%*destroyEvery != 0 || !w.Ready() {
			return
		}
		// Игрок над поверхностью бьёт вниз-вперёд на расстояние 2*radius
		eye := vec.Vec3Float{
			X: rng.Float64() * float64(bounds.X),
			Y: float64(cfg.Terrain.GrassLevel + 2*(*destroySize)),
			Z: rng.Float64() * float64(bounds.Z),
		}
		dir := vec.Vec3Float{X: rng.Float64() - 0.5, Y: -1, Z: rng.Float64() - 0.5}
		center := eye.Add(dir.Scale(float64(*destroySize))).Floor()
		n := terrain.RemoveSphere(w, center, *destroySize)
		logging.Debug("💥 Удалена сфера в %v радиусом %d (%d вокселей)", center, *destroySize, n)
	}

	logging.Info("🚀 Мир %s запущен: %d тиков/с", w.ID(), *tickRate)
	if err := w.Run(runCtx, *tickRate, step); err != nil && err != context.Canceled {
		logging.Error("❌ Главный цикл завершился с ошибкой: %v", err)
	}
	// последний тик: полная загрузка, если пересчёт закончился только при остановке
	w.Tick(context.Background())

	// === ИТОГИ ===
	cells := w.Store().Cells()
	if w.Ready() && !mirror.Equal(cells) {
		logging.Error("❌ Копия рендерера разошлась с хранилищем")
	} else if w.Ready() {
		logging.Info("✅ Копия рендерера совпадает с хранилищем")
	}
	logging.Info("📊 Тиков: %d, полных загрузок: %d, диапазонов: %d, передано %s значений",
		w.TickCount(), mirror.FullUploads(), mirror.RangeUploads(), humanize.Comma(int64(mirror.UploadedValues())))
	if occ := w.Occupancy(); occ != nil {
		chunks := occ.Chunks()
		logging.Info("🧱 Пустых чанков: %d из %d", occ.EmptyChunks(), chunks.X*chunks.Y*chunks.Z)
	}
	logging.Info("🔑 Контрольная сумма мира: %016x", w.Store().Checksum())

	if stream != nil {
		if err := stream.Flush(); err != nil {
			logging.Error("❌ Ошибка записи потока: %v", err)
		} else {
			logging.Info("💾 Записано кадров: %d (%s)", stream.Frames(), humanize.IBytes(uint64(stream.Bytes())))
		}
	}
}
