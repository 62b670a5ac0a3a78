package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
	"github.com/tsmathis/Dilatometry-Analyst/internal/shared/testutil"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

func newProviders(t *testing.T, cfg OTelConfig) *OTelProviders {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	providers, err := InitializeOTel(cfg, logger)
	require.NoError(t, err)
	return providers
}

func findFamily(t *testing.T, families []*dto.MetricFamily, prefix string) *dto.MetricFamily {
	t.Helper()
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), prefix) {
			return mf
		}
	}
	t.Fatalf("metric family %s not found", prefix)
	return nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestOTelInitialization(t *testing.T) {
	providers := newProviders(t, DefaultOTelConfig())

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Registry)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestTraceExport(t *testing.T) {
	var spans bytes.Buffer
	cfg := DefaultOTelConfig()
	cfg.TraceWriter = &spans
	providers := newProviders(t, cfg)

	ctx, span := otel.Tracer("test").Start(context.Background(), "dataprocessing.load")
	traceID := GetTraceID(ctx)
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))

	assert.Contains(t, spans.String(), "dataprocessing.load")
	assert.Contains(t, spans.String(), traceID)
}

func TestPipelineMetrics(t *testing.T) {
	providers := newProviders(t, DefaultOTelConfig())
	defer func() { _ = providers.Shutdown(context.Background()) }()

	m, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	m.ObserveStage(ctx, "load", 10*time.Millisecond, nil)
	m.ObserveStage(ctx, "load", 5*time.Millisecond, apperrors.NewSchemaError("a.txt", "time/s", ""))
	m.ObserveStage(ctx, "baseline", time.Millisecond, errors.New("boom"))
	m.ObserveFile(ctx, "a", 20*time.Millisecond, nil)

	families, err := providers.Registry.Gather()
	require.NoError(t, err)

	executions := findFamily(t, families, "dilatometry_stage_executions")
	var total float64
	for _, metric := range executions.GetMetric() {
		total += metric.GetCounter().GetValue()
	}
	assert.Equal(t, 3.0, total)

	stageErrors := findFamily(t, families, "dilatometry_stage_errors")
	kinds := map[string]float64{}
	for _, metric := range stageErrors.GetMetric() {
		kinds[labelValue(metric, "kind")] += metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"schema": 1, "unknown": 1}, kinds)

	files := findFamily(t, families, "dilatometry_files_processed")
	require.Len(t, files.GetMetric(), 1)
	assert.Equal(t, "success", labelValue(files.GetMetric()[0], "status"))
}

func TestPipelineMetricsNilSafe(t *testing.T) {
	var m *PipelineMetrics
	assert.NotPanics(t, func() {
		m.ObserveStage(context.Background(), "load", time.Second, nil)
		m.ObserveFile(context.Background(), "a", time.Second, nil)
	})
}

func TestWriteMetricsTextfile(t *testing.T) {
	providers := newProviders(t, DefaultOTelConfig())
	defer func() { _ = providers.Shutdown(context.Background()) }()

	m, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)
	m.ObserveFile(context.Background(), "a", time.Second, errors.New("failed"))

	path := filepath.Join(t.TempDir(), "dilatometry.prom")
	require.NoError(t, providers.WriteMetricsTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "dilatometry_files_processed")
	assert.Contains(t, string(content), `status="failure"`)

	var empty OTelProviders
	assert.Error(t, empty.WriteMetricsTextfile(path))
}

func TestOpenTraceFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	w, err := OpenTraceFile(fs, "")
	require.NoError(t, err)
	assert.Nil(t, w)

	w, err = OpenTraceFile(fs, "trace.json")
	require.NoError(t, err)
	_, err = w.Write([]byte("{}"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	content, err := afero.ReadFile(fs, "trace.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(content))
}

func TestRecordProcessed(t *testing.T) {
	providers := newProviders(t, DefaultOTelConfig())
	defer func() { _ = providers.Shutdown(context.Background()) }()

	m, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)

	pf := &domain.ProcessedFile{
		Raw:      &domain.RawTable{Samples: make([]domain.RawSample, 12)},
		Averaged: &domain.AveragedResult{CyclesAveraged: []int{2, 3}},
	}
	m.RecordProcessed(context.Background(), pf)
	m.RecordProcessed(context.Background(), nil)
	m.ObserveFile(context.Background(), "b", time.Millisecond, apperrors.NewValueError("normalize", "zero"))

	families, err := providers.Registry.Gather()
	require.NoError(t, err)

	samples := findFamily(t, families, "dilatometry_samples_loaded")
	assert.Equal(t, 12.0, samples.GetMetric()[0].GetCounter().GetValue())
	cycles := findFamily(t, families, "dilatometry_cycles_averaged")
	assert.Equal(t, 2.0, cycles.GetMetric()[0].GetCounter().GetValue())
	failures := findFamily(t, families, "dilatometry_file_failures")
	assert.Equal(t, "value", labelValue(failures.GetMetric()[0], "kind"))
}
