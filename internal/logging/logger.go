package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/lumberjack"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает уровень из конфигурации; пустая строка даёт fallback.
func ParseLevel(s string, fallback LogLevel) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return fallback, nil
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	}
	return fallback, fmt.Errorf("unknown log level %q", s)
}

// Options задаёт параметры файлового вывода и пороги уровней.
type Options struct {
	Dir          string   // Каталог для файлов логов, пустой означает только консоль
	MaxSizeMB    int      // Размер файла до ротации
	MaxAgeDays   int      // Сколько дней хранить старые файлы
	ConsoleLevel LogLevel // Минимальный уровень для консоли
	FileLevel    LogLevel // Минимальный уровень для файла
	Console      io.Writer
}

// DefaultOptions возвращает параметры по умолчанию: только консоль с INFO.
// Файловый вывод включается через Configure с непустым Dir.
func DefaultOptions() Options {
	return Options{
		Dir:          "",
		MaxSizeMB:    64,
		MaxAgeDays:   7,
		ConsoleLevel: INFO,
		FileLevel:    TRACE,
	}
}

// Logger представляет систему логирования
type Logger struct {
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            io.WriteCloser
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
	mu              sync.Mutex
}

// Глобальный экземпляр логгера; до InitDefaultLogger пишет только в stdout.
var defaultLogger = &Logger{
	component:       "default",
	consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
	minConsoleLevel: INFO,
	minFileLevel:    ERROR,
}

var packageOptions = DefaultOptions()

// Configure задаёт параметры для логгеров, создаваемых после вызова.
func Configure(opts Options) {
	packageOptions = opts
}

// NewLogger создаёт логгер компонента с текущими параметрами пакета
func NewLogger(component string) (*Logger, error) {
	return NewLoggerWithOptions(component, packageOptions)
}

// NewLoggerWithOptions создаёт логгер компонента с ротацией файла через lumberjack
func NewLoggerWithOptions(component string, opts Options) (*Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	l := &Logger{
		component:       component,
		consoleLogger:   log.New(console, "", log.LstdFlags),
		minConsoleLevel: opts.ConsoleLevel,
		minFileLevel:    opts.FileLevel,
	}

	if opts.Dir == "" {
		return l, nil
	}

	// Создаем директорию для логов
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", opts.Dir, err)
	}

	file := &lumberjack.Logger{
		Filename: filepath.Join(opts.Dir, component+".log"),
		MaxSize:  opts.MaxSizeMB, // megabytes
		MaxAge:   opts.MaxAgeDays,
	}
	l.file = file
	l.fileLogger = log.New(file, "", log.LstdFlags)
	return l, nil
}

// Component возвращает имя компонента логгера
func (l *Logger) Component() string {
	return l.component
}

// Close закрывает файл логов, если он открыт
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.fileLogger = nil
	return err
}

// Trace логирует сообщение уровня TRACE
func (l *Logger) Trace(format string, args ...interface{}) { l.logMessage(TRACE, format, args...) }

// Debug логирует сообщение уровня DEBUG
func (l *Logger) Debug(format string, args ...interface{}) { l.logMessage(DEBUG, format, args...) }

// Info логирует сообщение уровня INFO
func (l *Logger) Info(format string, args ...interface{}) { l.logMessage(INFO, format, args...) }

// Warn логирует сообщение уровня WARN
func (l *Logger) Warn(format string, args ...interface{}) { l.logMessage(WARN, format, args...) }

// Error логирует сообщение уровня ERROR
func (l *Logger) Error(format string, args ...interface{}) { l.logMessage(ERROR, format, args...) }

// logMessage внутренняя функция для логирования
func (l *Logger) logMessage(level LogLevel, format string, args ...interface{}) {
	if l == nil {
		return
	}

	message := fmt.Sprintf("[%s] %s", level.String(), fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileLogger != nil && level >= l.minFileLevel {
		l.fileLogger.Println(message)
	}
	if level >= l.minConsoleLevel {
		l.consoleLogger.Println(message)
	}
}

// InitDefaultLogger инициализирует глобальный логгер с файлом logs/<component>.log
func InitDefaultLogger(component string) error {
	l, err := NewLogger(component)
	if err != nil {
		return err
	}
	defaultLogger = l
	return nil
}

// CloseDefaultLogger закрывает глобальный логгер
func CloseDefaultLogger() {
	if defaultLogger != nil {
		_ = defaultLogger.Close()
	}
}

// Default возвращает глобальный логгер
func Default() *Logger {
	return defaultLogger
}

// Trace логирует сообщение уровня TRACE в глобальный логгер
func Trace(format string, args ...interface{}) { defaultLogger.logMessage(TRACE, format, args...) }

// Debug логирует сообщение уровня DEBUG в глобальный логгер
func Debug(format string, args ...interface{}) { defaultLogger.logMessage(DEBUG, format, args...) }

// Info логирует сообщение уровня INFO в глобальный логгер
func Info(format string, args ...interface{}) { defaultLogger.logMessage(INFO, format, args...) }

// Warn логирует сообщение уровня WARN в глобальный логгер
func Warn(format string, args ...interface{}) { defaultLogger.logMessage(WARN, format, args...) }

// Error логирует сообщение уровня ERROR в глобальный логгер
func Error(format string, args ...interface{}) { defaultLogger.logMessage(ERROR, format, args...) }
