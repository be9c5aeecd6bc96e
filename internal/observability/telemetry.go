package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/annel0/voxelfield/internal/logging"
)

// ShutdownFunc завершает экспорт трасс
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// InitTelemetry настраивает OTLP экспортер и устанавливает глобальный TracerProvider.
// При enabled == false ничего не делает: спаны пишутся в no-op провайдер.
// Возвращает функцию shutdown, которую нужно вызвать при завершении приложения.
func InitTelemetry(ctx context.Context, enabled bool, serviceName string) (ShutdownFunc, error) {
	if !enabled {
		return noopShutdown, nil
	}
	if serviceName == "" {
		serviceName = "voxelfield"
	}

	// OTLP HTTP экспортер (по умолчанию localhost:4318, переопределяется OTEL_EXPORTER_OTLP_ENDPOINT)
	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}
	return install(ctx, serviceName, trace.WithBatcher(exp))
}

// InitWithProcessor устанавливает провайдер с заданным процессором спанов (тесты, отладка).
func InitWithProcessor(ctx context.Context, serviceName string, sp trace.SpanProcessor) (ShutdownFunc, error) {
	return install(ctx, serviceName, trace.WithSpanProcessor(sp))
}

func install(ctx context.Context, serviceName string, opt trace.TracerProviderOption) (ShutdownFunc, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		opt,
		trace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	logging.Info("📡 OpenTelemetry инициализирован (service=%s)", serviceName)

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
	return shutdown, nil
}
