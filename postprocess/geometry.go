package postprocess

// iouEpsilon keeps the union denominator away from zero for degenerate boxes.
const iouEpsilon = 1e-6

// XYWHToXYXY maps a center-format box from model-input space back into
// original-frame pixel space. The letterbox parameters are recomputed from the
// frame and input sizes alone, with the same ratio comparison the preprocessor
// uses: the smaller ratio is the uniform scale, the other axis carries the
// padding. Ties take the width-padded branch.
func XYWHToXYXY(cx, cy, w, h float32, frameW, frameH, inputW, inputH int) [4]float32 {
	rw := float32(inputW) / float32(frameW)
	rh := float32(inputH) / float32(frameH)
	var x1, y1, x2, y2 float32
	if rh > rw {
		padH := (float32(inputH) - rw*float32(frameH)) / 2
		x1 = (cx - w/2) / rw
		x2 = (cx + w/2) / rw
		y1 = (cy - h/2 - padH) / rw
		y2 = (cy + h/2 - padH) / rw
	} else {
		padW := (float32(inputW) - rh*float32(frameW)) / 2
		x1 = (cx - w/2 - padW) / rh
		x2 = (cx + w/2 - padW) / rh
		y1 = (cy - h/2) / rh
		y2 = (cy + h/2) / rh
	}
	return [4]float32{x1, y1, x2, y2}
}

// Clip bounds a box to [0, frameW-1] x [0, frameH-1].
func Clip(box [4]float32, frameW, frameH int) [4]float32 {
	maxX := float32(frameW - 1)
	maxY := float32(frameH - 1)
	return [4]float32{
		min(max(box[0], 0), maxX),
		min(max(box[1], 0), maxY),
		min(max(box[2], 0), maxX),
		min(max(box[3], 0), maxY),
	}
}

// IoU computes intersection over union of two xyxy boxes. Widths and heights
// use the inclusive "+1" pixel-count convention.
func IoU(a, b [4]float32) float32 {
	interW := min(a[2], b[2]) - max(a[0], b[0]) + 1
	interH := min(a[3], b[3]) - max(a[1], b[1]) + 1
	if interW <= 0 || interH <= 0 {
		return 0
	}
	inter := interW * interH
	areaA := (a[2] - a[0] + 1) * (a[3] - a[1] + 1)
	areaB := (b[2] - b[0] + 1) * (b[3] - b[1] + 1)
	return inter / (areaA + areaB - inter + iouEpsilon)
}
