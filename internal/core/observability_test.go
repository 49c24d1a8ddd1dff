package core_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/swalker2m/gem-odb-api/internal/core"
	"github.com/swalker2m/gem-odb-api/pkg/odb"
)

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := core.NewExpvarMetricsRecorder("")
	if rec.Name() == "" {
		t.Fatalf("expected a generated export name")
	}

	s := core.NewService(core.WithMetrics(rec))
	ctx := context.Background()

	if _, err := s.CreateProgram(ctx, odb.ProgramCreate{Name: "P"}); err != nil {
		t.Fatalf("create program: %v", err)
	}
	if _, err := s.CreateProgram(ctx, odb.ProgramCreate{}); err == nil {
		t.Fatalf("expected validation failure")
	}

	snap := rec.Snapshot()
	results := snap.Results["create_program"]
	if results["success"] != 1 {
		t.Fatalf("expected 1 success, got %d", results["success"])
	}
	if results["error"] != 1 {
		t.Fatalf("expected 1 error, got %d", results["error"])
	}
	if _, ok := snap.DurationsMS["create_program"]; !ok {
		t.Fatalf("expected a duration total for create_program")
	}
}

func TestJSONTracerRecordsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := core.NewJSONTracer(&buf)

	s := core.NewService(core.WithTracer(tracer))
	ctx := context.Background()

	if _, err := s.CreateProgram(ctx, odb.ProgramCreate{Name: "P"}); err != nil {
		t.Fatalf("create program: %v", err)
	}
	if err := s.DeleteProgram(ctx, 99); err == nil {
		t.Fatalf("expected delete of unissued id to fail")
	}

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(entries))
	}
	if entries[0].Operation != "create_program" || entries[0].Status != "success" {
		t.Fatalf("unexpected first span: %+v", entries[0])
	}
	if entries[1].Operation != "delete_program" || entries[1].Status != "error" {
		t.Fatalf("unexpected second span: %+v", entries[1])
	}
	if entries[1].Error == "" {
		t.Fatalf("error span should carry the error message")
	}
	if !strings.Contains(buf.String(), "\"operation\":\"create_program\"") {
		t.Fatalf("spans were not encoded to the writer: %s", buf.String())
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("register collectors: %v", err)
	}

	s := core.NewService(core.WithMetrics(rec))
	ctx := context.Background()

	if _, err := s.CreateProgram(ctx, odb.ProgramCreate{Name: "P"}); err != nil {
		t.Fatalf("create program: %v", err)
	}
	if _, err := s.CreateProgram(ctx, odb.ProgramCreate{}); err == nil {
		t.Fatalf("expected validation failure")
	}

	success := testutil.ToFloat64(rec.ResultCounter("create_program", "success"))
	if success != 1 {
		t.Fatalf("expected 1 success, got %v", success)
	}
	errCount := testutil.ToFloat64(rec.ResultCounter("create_program", "error"))
	if errCount != 1 {
		t.Fatalf("expected 1 error, got %v", errCount)
	}

	// registering the same collectors twice must fail
	if _, err := core.NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}
