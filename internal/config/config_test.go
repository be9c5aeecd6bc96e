package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxelfield/internal/logging"
	"github.com/annel0/voxelfield/internal/sdf"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsWithoutPath(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 768, cfg.World.Width)
	assert.Equal(t, 96, cfg.World.Height)
	assert.Equal(t, 16, cfg.Occupancy.ChunkSize)
	assert.True(t, cfg.Terrain.Trees)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "voxel.yaml", `
world:
  width: 64
  height: 32
field:
  radius: 5
  workers: 2
  repair_scope: voxel
occupancy:
  chunk_size: 0
terrain:
  trees: false
metrics:
  addr: ":9100"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.World.Width)
	assert.Equal(t, 5, cfg.Field.GetRadius())
	assert.Equal(t, 2, cfg.Field.GetWorkers())
	scope, err := cfg.Field.GetRepairScope()
	require.NoError(t, err)
	assert.Equal(t, sdf.ScopeVoxel, scope)
	assert.Equal(t, 0, cfg.Occupancy.ChunkSize, "chunk_size 0 отключает счётчики")
	assert.False(t, cfg.Terrain.Trees)
	assert.Equal(t, 36, cfg.Terrain.GrassLevel, "незаданные поля берутся из значений по умолчанию")
	assert.Equal(t, ":9100", cfg.Metrics.GetAddr())
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "voxel.toml", `
[world]
width = 32
height = 16

[field]
workers = 3

[stream]
path = "capture.bin"
compress = true

[logging]
console_level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.World.Width)
	assert.Equal(t, 3, cfg.Field.GetWorkers())
	assert.Equal(t, "capture.bin", cfg.Stream.Path)
	assert.True(t, cfg.Stream.Compress)

	opts, err := cfg.Logging.Options()
	require.NoError(t, err)
	assert.Equal(t, logging.DEBUG, opts.ConsoleLevel)
	assert.Equal(t, logging.TRACE, opts.FileLevel)
}

func TestLoad_FromEnvPath(t *testing.T) {
	path := writeFile(t, "env.yml", "world:\n  width: 10\n  height: 10\n")
	t.Setenv("VOXEL_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.World.Width)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "world: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.toml", "[world\nwidth = 1"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "voxel.json", "{}"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "zero.yaml", "world:\n  width: 0\n"))
	assert.Error(t, err, "нулевой размер мира недопустим")
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("VOXEL_WORKERS", "6")
	t.Setenv("VOXEL_RADIUS", "not-a-number")
	t.Setenv("VOXEL_METRICS_ADDR", ":2112")

	var f FieldConfig
	assert.Equal(t, 6, f.GetWorkers(), "значение берётся из env")
	assert.Equal(t, sdf.DefaultRadius, f.GetRadius(), "некорректный env игнорируется")

	f.Workers = 2
	assert.Equal(t, 2, f.GetWorkers(), "конфиг приоритетнее env")

	var m MetricsConfig
	assert.Equal(t, ":2112", m.GetAddr())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Field.RepairScope = "galaxy"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Field.Radius = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Occupancy.ChunkSize = -4
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Logging.FileLevel = "LOUD"
	assert.Error(t, cfg.Validate())
}
