package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug", INFO)
	require.NoError(t, err)
	assert.Equal(t, DEBUG, lvl)

	lvl, err = ParseLevel("", WARN)
	require.NoError(t, err)
	assert.Equal(t, WARN, lvl, "пустая строка должна давать fallback")

	_, err = ParseLevel("loud", INFO)
	assert.Error(t, err, "неизвестный уровень должен давать ошибку")
}

func TestLogger_ConsoleThreshold(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLoggerWithOptions("test", Options{ConsoleLevel: WARN, FileLevel: TRACE, Console: &buf})
	require.NoError(t, err)

	l.Info("скрыто %d", 1)
	l.Warn("видно %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "скрыто", "INFO ниже порога консоли")
	assert.Contains(t, out, "[WARN] видно 2")
}

func TestLogger_FileSink(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	l, err := NewLoggerWithOptions("sdf", Options{
		Dir:          dir,
		MaxSizeMB:    1,
		ConsoleLevel: ERROR,
		FileLevel:    DEBUG,
		Console:      &buf,
	})
	require.NoError(t, err)

	l.Trace("не пишется")
	l.Debug("rebuild started workers=%d", 4)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(filepath.Join(dir, "sdf.log"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "[DEBUG] rebuild started workers=4"))
	assert.NotContains(t, string(data), "не пишется")
	assert.Empty(t, buf.String(), "консоль не должна получить DEBUG")

	// Повторное закрытие безопасно
	assert.NoError(t, l.Close())
}

func TestLoggerManager_Components(t *testing.T) {
	Configure(Options{ConsoleLevel: ERROR, FileLevel: ERROR, Console: &bytes.Buffer{}})
	defer Configure(DefaultOptions())

	lm := NewLoggerManager()
	a := lm.MustGetLogger("world")
	b := lm.MustGetLogger("world")
	assert.Same(t, a, b, "повторный запрос должен вернуть тот же логгер")

	lm.MustGetLogger("sdf")
	assert.Equal(t, []string{"sdf", "world"}, lm.ListComponents())

	assert.NoError(t, lm.SetLogLevel("sdf", DEBUG, DEBUG))
	assert.Error(t, lm.SetLogLevel("missing", DEBUG, DEBUG))
	assert.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.ListComponents())
}
