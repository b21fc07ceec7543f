// Package engine owns the loaded detection model and the buffer pairs it
// executes against. One engine instance serves the whole pipeline; Infer must
// not be called concurrently.
package engine

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/jashmkapadia0/self-driving-kart/logger"
)

// Engine states.
const (
	Unloaded = 0x0001
	Ready    = 0x0003
	Busy     = 0x0004
)

// InitError is fatal: the process must not enter the capture loop after one.
type InitError struct {
	Stage string
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("engine init failed at %s: %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Config selects the model artifacts and execution placement.
type Config struct {
	ModelPath      string
	RuntimeLib     string
	UseGPU         bool
	DeviceID       int
	IntraOpThreads int
}

// Engine holds the execution context and one BufferPair per named tensor slot
// of the graph. Buffers are allocated once here and reused for every frame.
type Engine struct {
	cfg      Config
	session  *ort.AdvancedSession
	inputs   []*BufferPair
	outputs  []*BufferPair
	inputW   int
	inputH   int
	emptyOut []float32
	State    int
}

// New loads the runtime library and the serialized graph, enumerates the
// graph's tensor slots, allocates a BufferPair per slot and binds one session
// to all of them. Any failure is an *InitError.
func New(cfg Config) (*Engine, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, &InitError{Stage: "model artifact", Err: err}
	}
	if _, err := os.Stat(cfg.RuntimeLib); err != nil {
		return nil, &InitError{Stage: "runtime library", Err: err}
	}
	if !ort.IsInitialized() {
		ort.SetSharedLibraryPath(cfg.RuntimeLib)
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, &InitError{Stage: "runtime environment", Err: err}
		}
	}

	inputInfo, outputInfo, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, &InitError{Stage: "slot enumeration", Err: err}
	}
	if len(inputInfo) == 0 || len(outputInfo) == 0 {
		return nil, &InitError{Stage: "slot enumeration", Err: errors.New("graph declares no input or no output slots")}
	}

	e := &Engine{cfg: cfg, State: Unloaded}
	for _, info := range inputInfo {
		pair, err := newBufferPair(info)
		if err != nil {
			e.release()
			return nil, &InitError{Stage: "input buffer " + info.Name, Err: err}
		}
		e.inputs = append(e.inputs, pair)
	}
	for _, info := range outputInfo {
		pair, err := newBufferPair(info)
		if err != nil {
			e.release()
			return nil, &InitError{Stage: "output buffer " + info.Name, Err: err}
		}
		e.outputs = append(e.outputs, pair)
	}
	w, h, err := spatialDims(e.inputs[0].Dims)
	if err != nil {
		e.release()
		return nil, &InitError{Stage: "input shape", Err: err}
	}
	e.inputW, e.inputH = w, h

	options, err := ort.NewSessionOptions()
	if err != nil {
		e.release()
		return nil, &InitError{Stage: "session options", Err: err}
	}
	defer options.Destroy()
	if cfg.IntraOpThreads > 0 {
		if err := options.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
			e.release()
			return nil, &InitError{Stage: "session options", Err: err}
		}
	}
	if cfg.UseGPU {
		cudaOptions, err := ort.NewCUDAProviderOptions()
		if err != nil {
			e.release()
			return nil, &InitError{Stage: "cuda provider", Err: err}
		}
		defer cudaOptions.Destroy()
		if err := cudaOptions.Update(map[string]string{"device_id": strconv.Itoa(cfg.DeviceID)}); err != nil {
			e.release()
			return nil, &InitError{Stage: "cuda provider", Err: err}
		}
		if err := options.AppendExecutionProviderCUDA(cudaOptions); err != nil {
			e.release()
			return nil, &InitError{Stage: "cuda provider", Err: err}
		}
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		slotNames(e.inputs), slotNames(e.outputs),
		slotTensors(e.inputs), slotTensors(e.outputs), options)
	if err != nil {
		e.release()
		return nil, &InitError{Stage: "execution context", Err: err}
	}
	if session == nil {
		e.release()
		return nil, &InitError{Stage: "execution context", Err: errors.New("runtime returned a nil session")}
	}
	e.session = session
	e.emptyOut = make([]float32, e.outputs[0].ElemCount)
	e.State = Ready

	logger.Log().Info("engine initialized",
		zap.String("model", cfg.ModelPath),
		zap.Bool("gpu", cfg.UseGPU),
		zap.Int("inputSlots", len(e.inputs)),
		zap.Int("outputSlots", len(e.outputs)),
		zap.Int("inputWidth", e.inputW),
		zap.Int("inputHeight", e.inputH))
	return e, nil
}

// spatialDims extracts the image plane of an NCHW input shape. Anything else
// cannot feed the letterbox preprocessor, so it is rejected at init.
func spatialDims(dims []int64) (int, int, error) {
	if len(dims) != 4 {
		return 0, 0, fmt.Errorf("expected an NCHW input shape, got %v", dims)
	}
	return int(dims[3]), int(dims[2]), nil
}

// InputSize reports the spatial dimensions of the primary input slot.
func (e *Engine) InputSize() (int, int) { return e.inputW, e.inputH }

// Infer copies tensor into the input buffer pair, runs one forward pass
// against all bound buffers and returns a copy of the primary output region
// plus the wall-clock duration of the execute segment. Backend failures
// degrade to a zeroed output buffer so one bad frame cannot kill the control
// loop; the sentinel decodes to an empty detection set.
func (e *Engine) Infer(tensor []float32) ([]float32, time.Duration) {
	if e.session == nil || e.State != Ready {
		return e.emptyOut, 0
	}
	host := e.inputs[0].Data()
	if len(tensor) != len(host) {
		logger.Log().Warn("input tensor size mismatch",
			zap.Int("got", len(tensor)), zap.Int("want", len(host)))
		return e.emptyOut, 0
	}
	e.State = Busy
	copy(host, tensor)
	start := time.Now()
	err := e.session.Run()
	elapsed := time.Since(start)
	e.State = Ready
	if err != nil {
		logger.Log().Warn("backend execution failed", zap.Error(err))
		return e.emptyOut, elapsed
	}
	out := make([]float32, e.outputs[0].ElemCount)
	copy(out, e.outputs[0].Data())
	return out, elapsed
}

// Warmup runs blank passes so the first real frame does not pay lazy
// device-side initialization cost.
func (e *Engine) Warmup(passes int) {
	if e.session == nil || len(e.inputs) == 0 {
		return
	}
	blank := make([]float32, e.inputs[0].ElemCount)
	for i := 0; i < passes; i++ {
		_, elapsed := e.Infer(blank)
		logger.Log().Info("warmup pass", zap.Int("pass", i+1), zap.Duration("latency", elapsed))
	}
}

// Close releases the session and every buffer pair.
func (e *Engine) Close() {
	if e.session != nil {
		_ = e.session.Destroy()
		e.session = nil
	}
	e.release()
	e.State = Unloaded
}

func (e *Engine) release() {
	for _, pair := range e.inputs {
		pair.Destroy()
	}
	for _, pair := range e.outputs {
		pair.Destroy()
	}
	e.inputs = nil
	e.outputs = nil
}

func slotNames(pairs []*BufferPair) []string {
	names := make([]string, len(pairs))
	for i, p := range pairs {
		names[i] = p.Name
	}
	return names
}

func slotTensors(pairs []*BufferPair) []ort.ArbitraryTensor {
	tensors := make([]ort.ArbitraryTensor, len(pairs))
	for i, p := range pairs {
		tensors[i] = p.tensor
	}
	return tensors
}
