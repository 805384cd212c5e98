package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	sensorsync "github.com/Nathanael1721/Final-Project"
)

func TestScanMetrics(t *testing.T) {
	body := `# HELP sensorsync_online Whether the connectivity probe last succeeded.
# TYPE sensorsync_online gauge
sensorsync_online 1
sensorsync_points_delivered_total 1234
sensorsync_buffer_size_bytes 2.048e+03
sensorsync_cycle_duration_seconds_bucket{le="0.01"} 3
`
	values, err := scanMetrics(strings.NewReader(body), watchedMetrics)
	if err != nil {
		t.Fatalf("scanMetrics: %v", err)
	}
	if values["sensorsync_online"] != 1 {
		t.Fatalf("expected online=1, got %v", values["sensorsync_online"])
	}
	if values["sensorsync_points_delivered_total"] != 1234 {
		t.Fatalf("unexpected delivered %v", values["sensorsync_points_delivered_total"])
	}
	if values["sensorsync_buffer_size_bytes"] != 2048 {
		t.Fatalf("expected exponent form to parse, got %v", values["sensorsync_buffer_size_bytes"])
	}
	if values["sensorsync_points_buffered_total"] != 0 {
		t.Fatalf("missing metrics should read as zero")
	}
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	printStatus(&out, sensorsync.Status{
		Online:    false,
		RemoteErr: errors.New("dial tcp: i/o timeout"),
		Buffer:    sensorsync.BufferStats{Streams: 2, Points: 17, SizeBytes: 4096},
	}, []sensorsync.Stream{{Name: "cluster1_suhu"}, {Name: "cluster2_tanah"}})

	got := out.String()
	for _, want := range []string{
		"connectivity: offline",
		"unreachable: dial tcp: i/o timeout",
		"17 point(s) in 2 stream(s), 4096 bytes",
		"cluster1_suhu, cluster2_tanah",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("status output missing %q:\n%s", want, got)
		}
	}
}

func TestPrintReport(t *testing.T) {
	streams := []sensorsync.Stream{
		{Name: "cluster2_tanah", ValueColumn: "tanah"},
		{Name: "cluster1_suhu", ValueColumn: "suhu"},
		{Name: "cluster1_kelembaban", ValueColumn: "kelembaban"},
	}
	report := sensorsync.CycleReport{
		ID:      "c1",
		Drained: sensorsync.DrainResult{Streams: 1, Points: 5},
		Outcomes: map[string]sensorsync.Outcome{
			"cluster1_suhu":       sensorsync.OutcomeDelivered,
			"cluster1_kelembaban": sensorsync.OutcomeBuffered,
			"cluster2_tanah":      sensorsync.OutcomeSkipped,
		},
	}

	for i := 0; i < 20; i++ {
		var out bytes.Buffer
		printReport(&out, report, streams)
		got := out.String()
		if !strings.Contains(got, "replayed 5 buffered point(s)") {
			t.Fatalf("missing drain line:\n%s", got)
		}
		tanah := strings.Index(got, "cluster2_tanah")
		suhu := strings.Index(got, "cluster1_suhu")
		kelembaban := strings.Index(got, "cluster1_kelembaban")
		if tanah < 0 || suhu < 0 || kelembaban < 0 || !(tanah < suhu && suhu < kelembaban) {
			t.Fatalf("streams not printed in configured order:\n%s", got)
		}
	}
}
