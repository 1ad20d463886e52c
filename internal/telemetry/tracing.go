package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const TracerName = "github.com/AngelCh415/FUNNEL_GO"

// Tracer returns the process tracer; a no-op one until InitTracing installs
// a provider.
func Tracer() trace.Tracer { return otel.Tracer(TracerName) }

// InitTracing installs a tracer provider for mode "stdout" (pretty JSON
// spans on w, os.Stdout when nil). Any other mode leaves the global no-op
// provider in place. The returned func flushes and stops the provider.
func InitTracing(ctx context.Context, log zerolog.Logger, mode string, w io.Writer) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if mode != "stdout" {
		return noop, nil
	}
	if w == nil {
		w = os.Stdout
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return noop, fmt.Errorf("stdout trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	log.Info().Str("exporter", mode).Msg("otel tracing initialized")
	return tp.Shutdown, nil
}
