package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sensorsync "github.com/Nathanael1721/Final-Project"
)

const defaultConfigPath = "./data/config.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "once":
		err = onceCommand(os.Args[2:])
	case "drain":
		err = drainCommand(os.Args[2:])
	case "status":
		err = statusCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("sensor-sync %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "Path to sync configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	flow, err := sensorsync.Conf(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return flow.Run(ctx)
}

func onceCommand(args []string) error {
	fs := flag.NewFlagSet("once", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "Path to sync configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := openRuntime(*cfgPath)
	if err != nil {
		return err
	}
	defer shutdown(rt)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report := rt.RunOnce(ctx)
	printReport(os.Stdout, report, rt.Streams())
	if n := report.Count(sensorsync.OutcomeFailed); n > 0 {
		return fmt.Errorf("%d stream(s) failed", n)
	}
	return nil
}

func drainCommand(args []string) error {
	fs := flag.NewFlagSet("drain", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "Path to sync configuration file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Give up after this long")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := openRuntime(*cfgPath)
	if err != nil {
		return err
	}
	defer shutdown(rt)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res, err := rt.Drain(ctx)
	if errors.Is(err, sensorsync.ErrOffline) {
		return fmt.Errorf("remote unreachable, buffer kept (%d points)", rt.BufferStats().Points)
	}
	if err != nil {
		return err
	}
	fmt.Printf("drained %d point(s) from %d stream(s)\n", res.Points, res.Streams)
	return nil
}

func statusCommand(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "Path to sync configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := openRuntime(*cfgPath)
	if err != nil {
		return err
	}
	defer shutdown(rt)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	printStatus(os.Stdout, rt.Status(ctx), rt.Streams())
	return nil
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := sensorsync.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s looks good: %d stream(s), local=%s remote=%s\n",
		*cfgPath, len(cfg.Streams), cfg.Local.Driver, cfg.Remote.Driver)
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

// openRuntime builds a runtime for one-shot commands; metrics stay off so it
// can run next to a long-running instance.
func openRuntime(cfgPath string) (*sensorsync.SyncRuntime, error) {
	cfg, err := sensorsync.LoadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Metrics.Addr = sensorsync.MetricsDisabled
	return sensorsync.NewSyncRuntime(cfg)
}

func shutdown(rt *sensorsync.SyncRuntime) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// printReport lists outcomes in configured stream order.
func printReport(w io.Writer, report sensorsync.CycleReport, streams []sensorsync.Stream) {
	fmt.Fprintf(w, "cycle %s finished in %s\n", report.ID, report.Duration.Round(time.Millisecond))
	if report.Drained.Points > 0 {
		fmt.Fprintf(w, "  replayed %d buffered point(s)\n", report.Drained.Points)
	}
	for _, stream := range streams {
		outcome, ok := report.Outcomes[stream.Name]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %-24s %s\n", stream.Name, outcome)
	}
}

func printStatus(w io.Writer, st sensorsync.Status, streams []sensorsync.Stream) {
	connectivity := "offline"
	if st.Online {
		connectivity = "online"
	}
	remote := "reachable"
	if st.RemoteErr != nil {
		remote = "unreachable: " + st.RemoteErr.Error()
	}
	fmt.Fprintf(w, "connectivity: %s\n", connectivity)
	fmt.Fprintf(w, "remote:       %s\n", remote)
	fmt.Fprintf(w, "buffer:       %d point(s) in %d stream(s), %d bytes\n", st.Buffer.Points, st.Buffer.Streams, st.Buffer.SizeBytes)
	names := make([]string, len(streams))
	for i, s := range streams {
		names[i] = s.Name
	}
	fmt.Fprintf(w, "streams:      %s\n", strings.Join(names, ", "))
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	values, err := scanMetrics(resp.Body, watchedMetrics)
	if err != nil {
		return err
	}

	fmt.Printf("[%s] online=%.0f delivered=%.0f buffered=%.0f replayed=%.0f pending=%.0f buffer_bytes=%.0f\n",
		time.Now().Format(time.RFC3339),
		values["sensorsync_online"],
		values["sensorsync_points_delivered_total"],
		values["sensorsync_points_buffered_total"],
		values["sensorsync_points_replayed_total"],
		values["sensorsync_buffer_points"],
		values["sensorsync_buffer_size_bytes"],
	)
	return nil
}

var watchedMetrics = []string{
	"sensorsync_online",
	"sensorsync_points_delivered_total",
	"sensorsync_points_buffered_total",
	"sensorsync_points_replayed_total",
	"sensorsync_buffer_points",
	"sensorsync_buffer_size_bytes",
}

// scanMetrics picks unlabelled samples out of the Prometheus text format.
func scanMetrics(r io.Reader, names []string) (map[string]float64, error) {
	targets := make(map[string]float64, len(names))
	for _, n := range names {
		targets[n] = 0
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for key := range targets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %g", &value); err == nil {
					targets[key] = value
				}
			}
		}
	}
	return targets, scanner.Err()
}

func printUsage() {
	fmt.Printf(`sensor-sync CLI

Usage:
  sensor-sync <command> [flags]

Commands:
  run        Sync continuously until interrupted
  once       Run a single cycle (drain, then every stream) and print the outcome
  drain      Replay the offline buffer now if the remote is reachable
  status     Show connectivity, remote reachability and buffer content
  validate   Load and validate a config file without connecting anywhere
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  sensor-sync run -config ./data/config.yaml
  sensor-sync once -config ./data/config.yaml
  sensor-sync drain -config ./data/config.yaml -timeout 5m
  sensor-sync stats -url http://localhost:9100/metrics -interval 1s
`)
}
