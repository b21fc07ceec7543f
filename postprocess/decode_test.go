package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testDecoder() *Decoder {
	return &Decoder{
		InputWidth:    640,
		InputHeight:   640,
		ConfThreshold: 0.5,
		IoUThreshold:  0.4,
	}
}

func TestDecode_CountSanitization(t *testing.T) {
	d := testDecoder()
	pad := make([]float32, 64)

	cases := []struct {
		name  string
		count float32
	}{
		{"zero", 0},
		{"negative", -1},
		{"cap exceeded", 5000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := append([]float32{tc.count}, pad...)
			dets := d.Decode(raw, 640, 480)
			assert.Empty(t, dets.Boxes)
			assert.Empty(t, dets.Scores)
			assert.Empty(t, dets.Classes)
		})
	}
}

func TestDecode_TruncatedBuffer(t *testing.T) {
	d := testDecoder()
	// Claims 10 records but carries only one.
	raw := []float32{10, 320, 320, 50, 50, 0.9, 0}
	dets := d.Decode(raw, 640, 480)
	assert.Empty(t, dets.Boxes)
}

func TestDecode_EmptyAndBadGeometry(t *testing.T) {
	d := testDecoder()
	assert.Empty(t, d.Decode(nil, 640, 480).Boxes)
	assert.Empty(t, d.Decode([]float32{1, 320, 320, 50, 50, 0.9, 0}, 0, 0).Boxes)
}

func TestDecode_SingleDetection(t *testing.T) {
	d := testDecoder()
	// 640x480 frame: scale 1.0, height padded by 80. A person centered in
	// the frame sits at model coords (320, 320).
	raw := []float32{1, 320, 320, 100, 160, 0.9, 0}
	dets := d.Decode(raw, 640, 480)

	assert.Len(t, dets.Boxes, 1)
	assert.InDelta(t, 270, dets.Boxes[0][0], 1e-3)
	assert.InDelta(t, 160, dets.Boxes[0][1], 1e-3)
	assert.InDelta(t, 370, dets.Boxes[0][2], 1e-3)
	assert.InDelta(t, 320, dets.Boxes[0][3], 1e-3)
	assert.Equal(t, float32(0.9), dets.Scores[0])
	assert.Equal(t, 0, dets.Classes[0])
}

func TestDecode_ConfidenceFilter(t *testing.T) {
	d := testDecoder()
	raw := []float32{2,
		320, 320, 100, 160, 0.9, 0,
		100, 100, 40, 40, 0.2, 2,
	}
	dets := d.Decode(raw, 640, 480)
	assert.Len(t, dets.Boxes, 1)
	assert.Equal(t, float32(0.9), dets.Scores[0])
}

func TestDecode_CrossClassSuppression(t *testing.T) {
	d := testDecoder()
	// Two heavily overlapping records of different classes; suppression is
	// class-agnostic so only the higher score survives.
	raw := []float32{2,
		320, 320, 100, 100, 0.9, 0,
		322, 322, 100, 100, 0.8, 2,
	}
	dets := d.Decode(raw, 640, 480)
	assert.Len(t, dets.Boxes, 1)
	assert.Equal(t, 0, dets.Classes[0])
}

func TestDecode_ClippedOutput(t *testing.T) {
	d := testDecoder()
	raw := []float32{2,
		-500, -500, 100, 100, 0.9, 0,
		5000, 5000, 300, 300, 0.8, 1,
	}
	dets := d.Decode(raw, 640, 480)
	for _, box := range dets.Boxes {
		assert.GreaterOrEqual(t, box[0], float32(0))
		assert.GreaterOrEqual(t, box[1], float32(0))
		assert.LessOrEqual(t, box[2], float32(639))
		assert.LessOrEqual(t, box[3], float32(479))
	}
}

func TestDecode_NarrowRecordWidthRaisedToBaseLayout(t *testing.T) {
	d := testDecoder()
	// A record narrower than cx,cy,w,h,score,classID cannot exist; the
	// decoder reads the base layout instead of indexing past the record.
	d.RecordWidth = 5
	raw := []float32{1, 320, 320, 100, 160, 0.9, 0}
	dets := d.Decode(raw, 640, 480)
	assert.Len(t, dets.Boxes, 1)
	assert.Equal(t, float32(0.9), dets.Scores[0])
	assert.Equal(t, 0, dets.Classes[0])
}

func TestDecode_ExtraRecordFieldsIgnored(t *testing.T) {
	d := testDecoder()
	d.RecordWidth = 7
	raw := []float32{1, 320, 320, 100, 160, 0.9, 0, 42}
	dets := d.Decode(raw, 640, 480)
	assert.Len(t, dets.Boxes, 1)
	assert.Equal(t, 0, dets.Classes[0])
}
