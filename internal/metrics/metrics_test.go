package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRun(t *testing.T) {
	c := NewCollector()
	at := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)

	c.ObserveRun(RunStats{Job: "db", Kept: 7, Pruned: 3, BytesPruned: 3000, At: at})
	c.ObserveRun(RunStats{Job: "db", Kept: 7, Pruned: 1, BytesPruned: 1000, Failed: 1, At: at.Add(time.Hour)})

	if got := testutil.ToFloat64(c.runsTotal.WithLabelValues("db", StatusOK)); got != 2 {
		t.Errorf("runs_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.entriesKept.WithLabelValues("db")); got != 7 {
		t.Errorf("entries_kept = %v, want 7", got)
	}
	if got := testutil.ToFloat64(c.entriesPruned.WithLabelValues("db")); got != 1 {
		t.Errorf("entries_pruned = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.bytesPruned.WithLabelValues("db")); got != 4000 {
		t.Errorf("bytes_pruned_total = %v, want 4000", got)
	}
	if got := testutil.ToFloat64(c.deletionErrors.WithLabelValues("db")); got != 1 {
		t.Errorf("deletion_errors_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.lastRun.WithLabelValues("db")); got != float64(at.Add(time.Hour).Unix()) {
		t.Errorf("last_run_timestamp_seconds = %v", got)
	}
}

func TestObserveFailedRunKeepsGauges(t *testing.T) {
	c := NewCollector()
	c.ObserveRun(RunStats{Job: "logs", Kept: 4, Pruned: 2})
	c.ObserveRun(RunStats{Job: "logs", Status: StatusFailed})

	if got := testutil.ToFloat64(c.runsTotal.WithLabelValues("logs", StatusFailed)); got != 1 {
		t.Errorf("failed runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.entriesKept.WithLabelValues("logs")); got != 4 {
		t.Errorf("entries_kept = %v, want 4", got)
	}
}

func TestHandler(t *testing.T) {
	c := NewCollector()
	c.ObserveRun(RunStats{Job: "db", Kept: 1})

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(body), `retentions_runs_total{job="db",status="ok"} 1`) {
		t.Errorf("runs_total missing from scrape:\n%s", body)
	}
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.ObserveRun(RunStats{Job: "db", Kept: 5, Pruned: 2})

	path := filepath.Join(t.TempDir(), "retentions.prom")
	if err := c.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	for _, want := range []string{
		`retentions_entries_kept{job="db"} 5`,
		`retentions_entries_pruned{job="db"} 2`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q:\n%s", want, data)
		}
	}
}
