package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/abhisek/ailp/internal/logger"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{}, nil)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitStdoutExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), Config{
		Enabled:     true,
		ServiceName: "ailp-test",
		Exporter:    "stdout",
		SampleRatio: 1,
		Writer:      &buf,
	}, logger.Nop())
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "roadmap.generate")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), "roadmap.generate")
}

func TestInitUnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), Config{Enabled: true, Exporter: "zipkin"}, nil)
	assert.Error(t, err)
}

func TestClampRatio(t *testing.T) {
	assert.Equal(t, 0.0, clampRatio(-1))
	assert.Equal(t, 1.0, clampRatio(3))
	assert.Equal(t, 0.25, clampRatio(0.25))
}
