package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTelemetry_Disabled(t *testing.T) {
	shutdown, err := InitTelemetry(context.Background(), false, "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitWithProcessor_RecordsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	shutdown, err := InitWithProcessor(context.Background(), "voxelfield-test", rec)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "unit")
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "unit", ended[0].Name())
	assert.NoError(t, shutdown(context.Background()))
}
