package engine

import (
	ort "github.com/yalue/onnxruntime_go"
)

const (
	// batchSize is fixed at 1; the pipeline submits one frame per call.
	batchSize = 1
	// elemWidth is the byte width of a float32 tensor element.
	elemWidth = 4
)

// BufferPair is the host tensor backing one named slot of the graph. The
// runtime mirrors it on the device for the session bound to it. Allocated
// once at engine init, reused every frame, never resized.
type BufferPair struct {
	Name      string
	Dims      []int64
	ElemCount int
	ByteSize  int
	tensor    *ort.Tensor[float32]
}

// normalizeDims pins the batch axis to batchSize and any dynamic axis to 1,
// returning the concrete dims and the flattened element count.
func normalizeDims(declared []int64) ([]int64, int) {
	dims := make([]int64, len(declared))
	copy(dims, declared)
	if len(dims) > 0 {
		dims[0] = batchSize
	}
	count := int64(1)
	for i, d := range dims {
		if d <= 0 {
			dims[i] = 1
			d = 1
		}
		count *= d
	}
	return dims, int(count)
}

func newBufferPair(info ort.InputOutputInfo) (*BufferPair, error) {
	dims, count := normalizeDims(info.Dimensions)
	tensor, err := ort.NewEmptyTensor[float32](ort.NewShape(dims...))
	if err != nil {
		return nil, err
	}
	return &BufferPair{
		Name:      info.Name,
		Dims:      dims,
		ElemCount: count,
		ByteSize:  count * elemWidth,
		tensor:    tensor,
	}, nil
}

// Data returns the host region of the pair.
func (b *BufferPair) Data() []float32 { return b.tensor.GetData() }

// Destroy releases the tensor; safe to call more than once.
func (b *BufferPair) Destroy() {
	if b.tensor != nil {
		_ = b.tensor.Destroy()
		b.tensor = nil
	}
}
