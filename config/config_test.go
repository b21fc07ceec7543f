package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kart.yaml")
	data := `
model:
  path: model/kart.onnx
  runtimeLib: lib/libonnxruntime.so
  useGPU: true
detect:
  confThreshold: 0.6
  blockingClasses: [0, 1]
actuator:
  backend: http
  endpoint: http://127.0.0.1:9000/command
`
	assert.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "model/kart.onnx", cfg.Model.Path)
	assert.True(t, cfg.Model.UseGPU)
	assert.Equal(t, float32(0.6), cfg.Detect.ConfThreshold)
	assert.Equal(t, "http", cfg.Actuator.Backend)

	// Defaults fill whatever the file left unset.
	assert.Equal(t, float32(0.4), cfg.Detect.IoUThreshold)
	assert.Equal(t, 1000, cfg.Detect.MaxDetections)
	assert.Equal(t, 6, cfg.Detect.RecordWidth)
	assert.Equal(t, float32(0.4), cfg.Detect.BandLow)
	assert.Equal(t, float32(0.6), cfg.Detect.BandHigh)
	assert.Equal(t, 3, cfg.Model.WarmupPasses)
	assert.Equal(t, 8080, cfg.Status.Port)
	assert.Equal(t, 9090, cfg.Monitor.Port)
}

func TestLoad_RecordWidthBelowBaseLayoutRaised(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kart.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("detect:\n  recordWidth: 3\n"), 0o644))

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, 6, cfg.Detect.RecordWidth)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []int{0}, cfg.Detect.BlockingClasses)
	assert.Equal(t, "serial", cfg.Actuator.Backend)
	assert.Equal(t, uint(9600), cfg.Actuator.BaudRate)
	assert.Equal(t, "0", cfg.Capture.Source)
}

func TestBlockingClassSet(t *testing.T) {
	cfg := Default()
	cfg.Detect.BlockingClasses = []int{0, 7}
	set := cfg.BlockingClassSet()
	assert.True(t, set[0])
	assert.True(t, set[7])
	assert.False(t, set[2])
}

func TestResolveArtifact(t *testing.T) {
	t.Run("absolute path found", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "model.onnx")
		assert.NoError(t, os.WriteFile(path, []byte("blob"), 0o644))

		resolved, err := ResolveArtifact(path)
		assert.NoError(t, err)
		assert.Equal(t, path, resolved)
	})

	t.Run("absolute path missing", func(t *testing.T) {
		_, err := ResolveArtifact(filepath.Join(t.TempDir(), "missing.engine"))
		assert.Error(t, err)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := ResolveArtifact("")
		assert.Error(t, err)
	})

	t.Run("relative path found from working directory", func(t *testing.T) {
		dir := t.TempDir()
		assert.NoError(t, os.WriteFile(filepath.Join(dir, "kart.onnx"), []byte("blob"), 0o644))
		wd, err := os.Getwd()
		assert.NoError(t, err)
		assert.NoError(t, os.Chdir(dir))
		defer func() { _ = os.Chdir(wd) }()

		resolved, err := ResolveArtifact("kart.onnx")
		assert.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "kart.onnx"), resolved)
	})
}
