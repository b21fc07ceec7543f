package pipeline

// Signal is the per-frame control command sent to the actuator.
type Signal int

const (
	Go Signal = iota
	Stop
)

func (s Signal) String() string {
	if s == Stop {
		return "STOP"
	}
	return "GO"
}

// DecisionPolicy gates detections against a central horizontal band of the
// frame. Evaluated independently every frame; no hysteresis, no smoothing.
type DecisionPolicy struct {
	// BandLow/BandHigh are fractions of the frame width bounding the band.
	BandLow  float32
	BandHigh float32
	// BlockingClasses are the class ids that can trigger a STOP.
	BlockingClasses map[int]bool
}

// DefaultPolicy blocks on the person class inside the central fifth of the
// frame on each side of center.
func DefaultPolicy() DecisionPolicy {
	return DecisionPolicy{
		BandLow:         0.4,
		BandHigh:        0.6,
		BlockingClasses: map[int]bool{0: true},
	}
}

// Decide returns Stop when any detection of a blocking class has its
// horizontal box midpoint inside the band, Go otherwise.
func (p DecisionPolicy) Decide(boxes [][4]float32, classes []int, frameWidth int) Signal {
	low := p.BandLow * float32(frameWidth)
	high := p.BandHigh * float32(frameWidth)
	for i, box := range boxes {
		if i >= len(classes) || !p.BlockingClasses[classes[i]] {
			continue
		}
		mid := (box[0] + box[2]) / 2
		if mid >= low && mid <= high {
			return Stop
		}
	}
	return Go
}
