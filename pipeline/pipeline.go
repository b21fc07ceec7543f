// Package pipeline sequences preprocess, inference, decode and decision for
// one frame at a time.
package pipeline

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/jashmkapadia0/self-driving-kart/logger"
	"github.com/jashmkapadia0/self-driving-kart/postprocess"
	"github.com/jashmkapadia0/self-driving-kart/preprocess"
	"go.uber.org/zap"
)

// Inferencer runs one synchronous forward pass. Implemented by engine.Engine;
// tests substitute a deterministic stub.
type Inferencer interface {
	Infer(tensor []float32) ([]float32, time.Duration)
	InputSize() (int, int)
}

// Result is the per-frame detection output, index-aligned across the slices.
// Skipped marks a frame dropped before inference; the other fields carry
// nothing when it is set.
type Result struct {
	Boxes   [][4]float32
	Scores  []float32
	Classes []int
	Latency time.Duration
	Skipped bool
}

// FrameStatus is one entry on the status channel.
type FrameStatus struct {
	ID         string
	Latency    time.Duration
	Decision   Signal
	Detections int
	Timestamp  time.Time
}

// statusDepth bounds the status channel; publishes drop when it is full so
// reporting can never stall the control loop.
const statusDepth = 64

// Pipeline is the long-lived orchestrator constructed once at process start.
type Pipeline struct {
	engine  Inferencer
	decoder postprocess.Decoder
	policy  DecisionPolicy
	status  chan FrameStatus
}

func New(engine Inferencer, decoder postprocess.Decoder, policy DecisionPolicy) *Pipeline {
	return &Pipeline{
		engine:  engine,
		decoder: decoder,
		policy:  policy,
		status:  make(chan FrameStatus, statusDepth),
	}
}

// Detect runs the full per-frame sequence on a BGR frame. Preprocess failures
// are skippable: they log and yield an empty result.
func (p *Pipeline) Detect(frame gocv.Mat) Result {
	inputW, inputH := p.engine.InputSize()
	tensor, _, err := preprocess.Letterbox(frame, inputW, inputH)
	if err != nil {
		logger.Log().Warn("preprocess failed, skipping frame", zap.Error(err))
		return Result{Skipped: true}
	}
	return p.DetectTensor(tensor, frame.Cols(), frame.Rows())
}

// DetectTensor runs inference and decode on an already-preprocessed tensor.
func (p *Pipeline) DetectTensor(tensor []float32, frameW, frameH int) Result {
	raw, latency := p.engine.Infer(tensor)
	dets := p.decoder.Decode(raw, frameW, frameH)
	return Result{
		Boxes:   dets.Boxes,
		Scores:  dets.Scores,
		Classes: dets.Classes,
		Latency: latency,
	}
}

// Decide maps a detection set to the control signal for this frame.
func (p *Pipeline) Decide(boxes [][4]float32, classes []int, frameWidth int) Signal {
	return p.policy.Decide(boxes, classes, frameWidth)
}

// Publish pushes a frame status without blocking; entries are dropped when
// the consumer falls behind.
func (p *Pipeline) Publish(st FrameStatus) {
	select {
	case p.status <- st:
	default:
	}
}

// Status exposes the per-frame status channel.
func (p *Pipeline) Status() <-chan FrameStatus { return p.status }
