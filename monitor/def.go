package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/jashmkapadia0/self-driving-kart/pipeline"
)

var (
	pid process.Process

	memUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "memory_usage_Megabytes",
		Help: "Memory usage in Megabytes",
	})
	cpuUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cpu_usage_percent",
		Help: "CPU usage in percent",
	})
	inferenceLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "inference_latency_seconds",
		Help:    "Wall-clock duration of one model forward pass",
		Buckets: prometheus.ExponentialBuckets(0.002, 2, 12),
	})
	decisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "control_decisions_total",
		Help: "Control signals emitted per decision value",
	}, []string{"signal"})
	framesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "frames_skipped_total",
		Help: "Frames dropped due to read or preprocess failures",
	})
)

var srv *http.Server

// ObserveFrame records one completed decision cycle.
func ObserveFrame(latency time.Duration, signal pipeline.Signal) {
	inferenceLatency.Observe(latency.Seconds())
	decisions.WithLabelValues(signal.String()).Inc()
}

// FrameSkipped records one dropped frame.
func FrameSkipped() { framesSkipped.Inc() }

func prom(port int) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(memUsage, cpuUsage, inferenceLatency, decisions, framesSkipped)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("metrics server ListenAndServe error: %v\n", err)
		}
	}()
}

func checkProcessInfo() {
	memInfo, _ := pid.MemoryInfo()
	if memInfo != nil {
		memUsage.Set(float64(memInfo.RSS / 1024 / 1024))
	}
	cpuPercent, _ := pid.CPUPercent()
	cpuUsage.Set(math.Round(cpuPercent*100) / 100)
}

// Start serves /metrics on port and samples process CPU/memory every 500ms
// until ctx is cancelled.
func Start(ctx context.Context, port int) {
	pid = process.Process{Pid: int32(os.Getpid())}
	prom(port)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
sample:
	for {
		select {
		case <-ctx.Done():
			break sample
		case <-ticker.C:
			checkProcessInfo()
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("metrics server Shutdown error: %v\n", err)
	}
}
