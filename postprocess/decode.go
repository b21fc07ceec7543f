// Package postprocess turns the raw flat output of the detection model into
// bounded, suppressed detections in original-frame pixel space.
package postprocess

const (
	// DefaultMaxDetections caps the detection count claimed by the output
	// buffer; anything above it is treated as corrupt.
	DefaultMaxDetections = 1000
	// DefaultRecordWidth is the per-detection field count in the output
	// layout: cx, cy, w, h, score, classID.
	DefaultRecordWidth = 6
)

// Detections holds decoded results aligned by index.
type Detections struct {
	Boxes   [][4]float32
	Scores  []float32
	Classes []int
}

// Decoder decodes one model output buffer per frame. The zero value is not
// usable; fill the input size and thresholds from config.
type Decoder struct {
	InputWidth    int
	InputHeight   int
	ConfThreshold float32
	IoUThreshold  float32
	RecordWidth   int
	MaxDetections int
}

// recordWidth never reports less than the base layout width; a narrower
// record cannot carry the score and class fields the decode reads.
func (d *Decoder) recordWidth() int {
	if d.RecordWidth > DefaultRecordWidth {
		return d.RecordWidth
	}
	return DefaultRecordWidth
}

func (d *Decoder) maxDetections() int {
	if d.MaxDetections > 0 {
		return d.MaxDetections
	}
	return DefaultMaxDetections
}

// Decode reads the detection count from the first scalar, reshapes the
// remaining elements into fixed-width records, converts each to clipped xyxy
// frame coordinates and runs suppression. A count outside (0, MaxDetections]
// or a truncated buffer yields zero detections, never a panic.
func (d *Decoder) Decode(raw []float32, frameW, frameH int) Detections {
	var none Detections
	if len(raw) == 0 || frameW <= 0 || frameH <= 0 {
		return none
	}
	n := int(raw[0])
	if n <= 0 || n > d.maxDetections() {
		return none
	}
	width := d.recordWidth()
	if len(raw) < 1+n*width {
		return none
	}

	boxes := make([][4]float32, 0, n)
	scores := make([]float32, 0, n)
	classes := make([]int, 0, n)
	for i := 0; i < n; i++ {
		row := raw[1+i*width : 1+(i+1)*width]
		score := row[4]
		if score < d.ConfThreshold {
			continue
		}
		box := XYWHToXYXY(row[0], row[1], row[2], row[3], frameW, frameH, d.InputWidth, d.InputHeight)
		boxes = append(boxes, Clip(box, frameW, frameH))
		scores = append(scores, score)
		classes = append(classes, int(row[5]))
	}

	kept := NMS(boxes, scores, d.IoUThreshold)
	out := Detections{
		Boxes:   make([][4]float32, 0, len(kept)),
		Scores:  make([]float32, 0, len(kept)),
		Classes: make([]int, 0, len(kept)),
	}
	for _, idx := range kept {
		out.Boxes = append(out.Boxes, boxes[idx])
		out.Scores = append(out.Scores, scores[idx])
		out.Classes = append(out.Classes, classes[idx])
	}
	return out
}
