package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/jashmkapadia0/self-driving-kart/actuator"
	"github.com/jashmkapadia0/self-driving-kart/capture"
	"github.com/jashmkapadia0/self-driving-kart/config"
	"github.com/jashmkapadia0/self-driving-kart/engine"
	"github.com/jashmkapadia0/self-driving-kart/heartbeat"
	"github.com/jashmkapadia0/self-driving-kart/logger"
	"github.com/jashmkapadia0/self-driving-kart/monitor"
	"github.com/jashmkapadia0/self-driving-kart/pipeline"
	"github.com/jashmkapadia0/self-driving-kart/postprocess"
	"github.com/jashmkapadia0/self-driving-kart/status"
)

func main() {
	configPath := flag.String("config", "kart.yaml", "path to the service config file")
	debug := flag.Bool("debug", false, "log at debug level with a console encoder")
	flag.Parse()

	if err := logger.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Log().Fatal("loading config", zap.Error(err))
	}

	modelPath, err := config.ResolveArtifact(cfg.Model.Path)
	if err != nil {
		logger.Log().Fatal("locating model artifact", zap.Error(err))
	}
	runtimeLib, err := config.ResolveArtifact(cfg.Model.RuntimeLib)
	if err != nil {
		logger.Log().Fatal("locating runtime library", zap.Error(err))
	}

	eng, err := engine.New(engine.Config{
		ModelPath:      modelPath,
		RuntimeLib:     runtimeLib,
		UseGPU:         cfg.Model.UseGPU,
		DeviceID:       cfg.Model.DeviceID,
		IntraOpThreads: cfg.Model.IntraOpThreads,
	})
	if err != nil {
		logger.Log().Fatal("initializing inference engine", zap.Error(err))
	}
	defer eng.Close()
	eng.Warmup(cfg.Model.WarmupPasses)

	inputW, inputH := eng.InputSize()
	p := pipeline.New(eng, postprocess.Decoder{
		InputWidth:    inputW,
		InputHeight:   inputH,
		ConfThreshold: cfg.Detect.ConfThreshold,
		IoUThreshold:  cfg.Detect.IoUThreshold,
		RecordWidth:   cfg.Detect.RecordWidth,
		MaxDetections: cfg.Detect.MaxDetections,
	}, pipeline.DecisionPolicy{
		BandLow:         cfg.Detect.BandLow,
		BandHigh:        cfg.Detect.BandHigh,
		BlockingClasses: cfg.BlockingClassSet(),
	})

	commander, err := buildCommander(cfg)
	if err != nil {
		logger.Log().Fatal("opening actuator", zap.Error(err))
	}
	defer commander.Close()

	source, err := capture.Open(cfg.Capture.Source, cfg.Capture.Width, cfg.Capture.Height)
	if err != nil {
		logger.Log().Fatal("opening frame source", zap.Error(err))
	}
	defer source.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go monitor.Start(ctx, cfg.Monitor.Port)

	statusSrv := status.NewServer()
	go statusSrv.Consume(p.Status())
	go func() {
		if err := statusSrv.Run(cfg.Status.Port); err != nil {
			logger.Log().Error("status server failed", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer shutdownCancel()
		_ = statusSrv.Shutdown(shutdownCtx)
	}()

	if cfg.Heartbeat.Enabled {
		go heartbeat.Run(ctx, heartbeat.Config{
			Host:       cfg.Heartbeat.Host,
			Port:       cfg.Heartbeat.Port,
			StatusPort: cfg.Status.Port,
		})
	}

	logger.Log().Info("entering control loop",
		zap.String("source", cfg.Capture.Source),
		zap.String("actuator", cfg.Actuator.Backend))
	runLoop(ctx, p, source, commander)
	logger.Log().Info("control loop stopped")
}

func buildCommander(cfg *config.Config) (actuator.Commander, error) {
	switch cfg.Actuator.Backend {
	case "serial":
		return actuator.NewSerial(actuator.SerialConfig{
			Device:   cfg.Actuator.Device,
			BaudRate: cfg.Actuator.BaudRate,
		})
	case "http":
		return actuator.NewHTTP(cfg.Actuator.Endpoint), nil
	case "none":
		return actuator.NewNop(), nil
	default:
		return nil, fmt.Errorf("unknown actuator backend %q", cfg.Actuator.Backend)
	}
}

// readRetryDelay paces the loop when the source yields no frame, so a dead
// camera does not spin a core.
const readRetryDelay = 100 * time.Millisecond

// runLoop drives one decision cycle per frame until ctx is cancelled. Bad
// frames are skipped; nothing in the loop terminates the process.
func runLoop(ctx context.Context, p *pipeline.Pipeline, source capture.Source, commander actuator.Commander) {
	frame := gocv.NewMat()
	defer frame.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !source.Read(&frame) {
			monitor.FrameSkipped()
			logger.Log().Warn("frame read failed, backing off")
			select {
			case <-ctx.Done():
				return
			case <-time.After(readRetryDelay):
			}
			continue
		}

		result := p.Detect(frame)
		if result.Skipped {
			monitor.FrameSkipped()
			continue
		}
		decision := p.Decide(result.Boxes, result.Classes, frame.Cols())
		if err := commander.Send(decision); err != nil {
			logger.Log().Warn("actuator send failed", zap.Error(err))
		}

		monitor.ObserveFrame(result.Latency, decision)
		p.Publish(pipeline.FrameStatus{
			ID:         uuid.NewString(),
			Latency:    result.Latency,
			Decision:   decision,
			Detections: len(result.Boxes),
			Timestamp:  time.Now(),
		})
	}
}
