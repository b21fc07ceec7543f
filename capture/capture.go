// Package capture is the thin frame-source wrapper around gocv.VideoCapture.
// Read failures are tolerated by the caller, which skips the frame.
package capture

import (
	"fmt"
	"strconv"

	"gocv.io/x/gocv"
)

// Source supplies BGR frames on demand.
type Source interface {
	// Read fills dst with the next frame and reports whether a usable frame
	// was produced. False covers both end-of-stream and transient failures.
	Read(dst *gocv.Mat) bool
	Close() error
}

type camera struct {
	cap *gocv.VideoCapture
}

// Open opens a camera by device index ("0") or a stream/file by path.
func Open(source string, width, height int) (Source, error) {
	var (
		cap *gocv.VideoCapture
		err error
	)
	if device, convErr := strconv.Atoi(source); convErr == nil {
		cap, err = gocv.OpenVideoCapture(device)
	} else {
		cap, err = gocv.OpenVideoCapture(source)
	}
	if err != nil {
		return nil, fmt.Errorf("opening capture source %q: %w", source, err)
	}
	if width > 0 {
		cap.Set(gocv.VideoCaptureFrameWidth, float64(width))
	}
	if height > 0 {
		cap.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}
	return &camera{cap: cap}, nil
}

func (c *camera) Read(dst *gocv.Mat) bool {
	return c.cap.Read(dst) && !dst.Empty()
}

func (c *camera) Close() error { return c.cap.Close() }
