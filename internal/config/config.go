package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/annel0/voxelfield/internal/logging"
	"github.com/annel0/voxelfield/internal/sdf"
)

// Config корневая структура конфигурации приложения.
// Формат файла (YAML или TOML) определяется расширением.
type Config struct {
	World     WorldConfig     `yaml:"world" toml:"world"`
	Field     FieldConfig     `yaml:"field" toml:"field"`
	Occupancy OccupancyConfig `yaml:"occupancy" toml:"occupancy"`
	Terrain   TerrainConfig   `yaml:"terrain" toml:"terrain"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
	Stream    StreamConfig    `yaml:"stream" toml:"stream"`
}

type WorldConfig struct {
	Width  int `yaml:"width" toml:"width"`
	Height int `yaml:"height" toml:"height"`
}

type FieldConfig struct {
	Radius      int    `yaml:"radius" toml:"radius"`
	Workers     int    `yaml:"workers" toml:"workers"`
	RepairScope string `yaml:"repair_scope" toml:"repair_scope"`
}

type OccupancyConfig struct {
	ChunkSize int `yaml:"chunk_size" toml:"chunk_size"` // 0 отключает счётчики
}

type TerrainConfig struct {
	Seed       int64   `yaml:"seed" toml:"seed"`
	StoneLevel int     `yaml:"stone_level" toml:"stone_level"`
	DirtLevel  int     `yaml:"dirt_level" toml:"dirt_level"`
	GrassLevel int     `yaml:"grass_level" toml:"grass_level"`
	Amplitude  float64 `yaml:"amplitude" toml:"amplitude"`
	NoiseScale float64 `yaml:"noise_scale" toml:"noise_scale"`
	Trees      bool    `yaml:"trees" toml:"trees"`
}

type LoggingConfig struct {
	Dir          string `yaml:"dir" toml:"dir"`
	MaxSizeMB    int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxAgeDays   int    `yaml:"max_age_days" toml:"max_age_days"`
	ConsoleLevel string `yaml:"console_level" toml:"console_level"`
	FileLevel    string `yaml:"file_level" toml:"file_level"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" toml:"enabled"`
	ServiceName string `yaml:"service_name" toml:"service_name"`
}

type StreamConfig struct {
	Path     string `yaml:"path" toml:"path"`
	Compress bool   `yaml:"compress" toml:"compress"`
}

// Default возвращает конфигурацию исходного мира 768×96×768.
// Радиус, воркеры и адрес метрик не заполняются: их разрешают геттеры.
func Default() *Config {
	return &Config{
		World:     WorldConfig{Width: 768, Height: 96},
		Field:     FieldConfig{RepairScope: "neighborhood"},
		Occupancy: OccupancyConfig{ChunkSize: 16},
		Terrain: TerrainConfig{
			Seed:       1,
			StoneLevel: 25,
			DirtLevel:  33,
			GrassLevel: 36,
			NoiseScale: 0.02,
			Trees:      true,
		},
		Logging: LoggingConfig{
			MaxSizeMB:    64,
			MaxAgeDays:   7,
			ConsoleLevel: "INFO",
			FileLevel:    "TRACE",
		},
		Telemetry: TelemetryConfig{ServiceName: "voxelfield"},
	}
}

// GetRadius возвращает радиус ядра с поддержкой fallback значений
func (f *FieldConfig) GetRadius() int {
	return getIntWithEnvFallback(f.Radius, "VOXEL_RADIUS", sdf.DefaultRadius)
}

// GetWorkers возвращает число воркеров полного пересчёта с поддержкой fallback значений
func (f *FieldConfig) GetWorkers() int {
	return getIntWithEnvFallback(f.Workers, "VOXEL_WORKERS", sdf.DefaultWorkers)
}

// GetRepairScope разбирает режим ремонта
func (f *FieldConfig) GetRepairScope() (sdf.RepairScope, error) {
	return sdf.ParseRepairScope(f.RepairScope)
}

// GetAddr возвращает адрес /metrics: config -> env -> пусто (метрики не публикуются)
func (m *MetricsConfig) GetAddr() string {
	if m.Addr != "" {
		return m.Addr
	}
	return os.Getenv("VOXEL_METRICS_ADDR")
}

// Options переводит секцию logging в параметры логгера
func (l *LoggingConfig) Options() (logging.Options, error) {
	opts := logging.DefaultOptions()
	opts.Dir = l.Dir
	if l.MaxSizeMB > 0 {
		opts.MaxSizeMB = l.MaxSizeMB
	}
	if l.MaxAgeDays > 0 {
		opts.MaxAgeDays = l.MaxAgeDays
	}

	var err error
	if opts.ConsoleLevel, err = logging.ParseLevel(l.ConsoleLevel, opts.ConsoleLevel); err != nil {
		return opts, fmt.Errorf("logging.console_level: %w", err)
	}
	if opts.FileLevel, err = logging.ParseLevel(l.FileLevel, opts.FileLevel); err != nil {
		return opts, fmt.Errorf("logging.file_level: %w", err)
	}
	return opts, nil
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configValue int, envVar string, defaultValue int) int {
	// Если значение задано в конфиге и больше 0, используем его
	if configValue > 0 {
		return configValue
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}

	return defaultValue
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("world: размеры должны быть положительными, получено %dx%d", c.World.Width, c.World.Height)
	}
	if c.Field.Radius < 0 {
		return fmt.Errorf("field.radius: должен быть не меньше 1, получено %d", c.Field.Radius)
	}
	if c.Field.Workers < 0 {
		return fmt.Errorf("field.workers: отрицательное значение %d", c.Field.Workers)
	}
	if r := c.Field.GetRadius(); r < 1 {
		return fmt.Errorf("field.radius: должен быть не меньше 1, получено %d", r)
	}
	if _, err := c.Field.GetRepairScope(); err != nil {
		return fmt.Errorf("field.repair_scope: %w", err)
	}
	if c.Occupancy.ChunkSize < 0 {
		return fmt.Errorf("occupancy.chunk_size: отрицательное значение %d", c.Occupancy.ChunkSize)
	}
	if _, err := c.Logging.Options(); err != nil {
		return err
	}
	return nil
}

// Load читает файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV VOXEL_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан, используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("разбор TOML %s: %w", path, err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("разбор YAML %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("неизвестный формат конфигурации %q", ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
