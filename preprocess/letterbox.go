// Package preprocess converts raw camera frames into the fixed-size planar
// tensor the detection model expects.
package preprocess

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// padValue is the constant gray fill for the letterbox borders.
const padValue = 128

// Error reports a skippable preprocessing failure; the caller drops the frame.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Transform records the letterbox mapping for one frame: the uniform scale
// and the padding offsets on each axis. Exactly one of PadW/PadH is nonzero
// unless the aspect ratios match.
type Transform struct {
	Ratio float32
	PadW  float32
	PadH  float32
}

// Apply maps a point from original-frame space into model-input space.
func (t Transform) Apply(x, y float32) (float32, float32) {
	return x*t.Ratio + t.PadW, y*t.Ratio + t.PadH
}

// Fit computes the letterbox parameters for fitting a frameW x frameH image
// into an inputW x inputH canvas. The smaller of the two axis ratios becomes
// the uniform scale so aspect ratio is preserved; the other axis is padded.
// Ties take the width-padded branch, where the pad works out to zero. It also
// returns the scaled content size.
func Fit(frameW, frameH, inputW, inputH int) (Transform, int, int) {
	rw := float32(inputW) / float32(frameW)
	rh := float32(inputH) / float32(frameH)
	var t Transform
	var newW, newH int
	if rh > rw {
		t.Ratio = rw
		newW = inputW
		newH = int(rw * float32(frameH))
		t.PadH = (float32(inputH) - float32(newH)) / 2
	} else {
		t.Ratio = rh
		newW = int(rh * float32(frameW))
		newH = inputH
		t.PadW = (float32(inputW) - float32(newW)) / 2
	}
	return t, newW, newH
}

// Letterbox resizes and pads a BGR frame into a centered inputW x inputH
// canvas and returns the normalized RGB planar CHW tensor together with the
// transform needed to invert coordinates later.
func Letterbox(img gocv.Mat, inputW, inputH int) ([]float32, Transform, error) {
	if img.Empty() || img.Cols() <= 0 || img.Rows() <= 0 {
		return nil, Transform{}, &Error{Message: "empty input frame"}
	}
	if img.Channels() != 3 {
		return nil, Transform{}, &Error{Message: fmt.Sprintf("unsupported channel count %d", img.Channels())}
	}

	t, newW, newH := Fit(img.Cols(), img.Rows(), inputW, inputH)

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(img, &rgb, gocv.ColorBGRToRGB)

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(rgb, &resized, image.Pt(newW, newH), 0, 0, gocv.InterpolationLinear)

	top := (inputH - newH) / 2
	left := (inputW - newW) / 2
	canvas := gocv.NewMat()
	defer canvas.Close()
	gocv.CopyMakeBorder(resized, &canvas, top, inputH-newH-top, left, inputW-newW-left,
		gocv.BorderConstant, color.RGBA{R: padValue, G: padValue, B: padValue})

	data, err := canvas.DataPtrUint8()
	if err != nil {
		return nil, Transform{}, &Error{Message: "reading canvas pixels", Cause: err}
	}

	area := inputW * inputH
	tensor := make([]float32, 3*area)
	for i := 0; i < area; i++ {
		tensor[i] = float32(data[i*3]) / 255.0
		tensor[area+i] = float32(data[i*3+1]) / 255.0
		tensor[2*area+i] = float32(data[i*3+2]) / 255.0
	}
	return tensor, t, nil
}
