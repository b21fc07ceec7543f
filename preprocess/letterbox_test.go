package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFit(t *testing.T) {
	t.Run("wide frame pads height", func(t *testing.T) {
		tr, newW, newH := Fit(1280, 720, 640, 640)
		assert.Equal(t, float32(0.5), tr.Ratio)
		assert.Equal(t, 640, newW)
		assert.Equal(t, 360, newH)
		assert.Equal(t, float32(0), tr.PadW)
		assert.Equal(t, float32(140), tr.PadH)
	})

	t.Run("tall frame pads width", func(t *testing.T) {
		tr, newW, newH := Fit(720, 1280, 640, 640)
		assert.Equal(t, float32(0.5), tr.Ratio)
		assert.Equal(t, 360, newW)
		assert.Equal(t, 640, newH)
		assert.Equal(t, float32(140), tr.PadW)
		assert.Equal(t, float32(0), tr.PadH)
	})

	t.Run("square frame takes width-padded branch with zero pad", func(t *testing.T) {
		tr, newW, newH := Fit(500, 500, 640, 640)
		assert.Equal(t, float32(1.28), tr.Ratio)
		assert.Equal(t, 640, newW)
		assert.Equal(t, 640, newH)
		assert.Equal(t, float32(0), tr.PadW)
		assert.Equal(t, float32(0), tr.PadH)
	})
}

func TestTransformApply(t *testing.T) {
	tr, _, _ := Fit(1280, 720, 640, 640)

	// Frame center maps to canvas center.
	x, y := tr.Apply(640, 360)
	assert.InDelta(t, 320, x, 1e-3)
	assert.InDelta(t, 320, y, 1e-3)

	// Frame origin maps to the top of the padded content.
	x, y = tr.Apply(0, 0)
	assert.InDelta(t, 0, x, 1e-3)
	assert.InDelta(t, 140, y, 1e-3)
}

func TestError(t *testing.T) {
	e := &Error{Message: "empty input frame"}
	assert.Equal(t, "empty input frame", e.Error())
	assert.Nil(t, e.Unwrap())

	wrapped := &Error{Message: "reading canvas pixels", Cause: assert.AnError}
	assert.Contains(t, wrapped.Error(), "reading canvas pixels")
	assert.Equal(t, assert.AnError, wrapped.Unwrap())
}
