// Package config loads the kart service configuration from a single YAML
// file read once at startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jashmkapadia0/self-driving-kart/postprocess"
)

// Config mirrors kart.yaml.
type Config struct {
	Model struct {
		Path           string `yaml:"path"`
		RuntimeLib     string `yaml:"runtimeLib"`
		UseGPU         bool   `yaml:"useGPU"`
		DeviceID       int    `yaml:"deviceID"`
		WarmupPasses   int    `yaml:"warmupPasses"`
		IntraOpThreads int    `yaml:"intraOpThreads"`
	} `yaml:"model"`
	Detect struct {
		ConfThreshold   float32 `yaml:"confThreshold"`
		IoUThreshold    float32 `yaml:"iouThreshold"`
		MaxDetections   int     `yaml:"maxDetections"`
		RecordWidth     int     `yaml:"recordWidth"`
		BlockingClasses []int   `yaml:"blockingClasses"`
		BandLow         float32 `yaml:"bandLow"`
		BandHigh        float32 `yaml:"bandHigh"`
	} `yaml:"detect"`
	Capture struct {
		Source string `yaml:"source"`
		Width  int    `yaml:"width"`
		Height int    `yaml:"height"`
	} `yaml:"capture"`
	Actuator struct {
		Backend  string `yaml:"backend"` // serial, http or none
		Device   string `yaml:"device"`
		BaudRate uint   `yaml:"baudRate"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"actuator"`
	Status struct {
		Port int `yaml:"port"`
	} `yaml:"status"`
	Monitor struct {
		Port int `yaml:"port"`
	} `yaml:"monitor"`
	Heartbeat struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"heartbeat"`
}

// Load reads and parses the config file and fills defaults for anything the
// file leaves unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns a config with every default applied and no file read.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Detect.ConfThreshold == 0 {
		c.Detect.ConfThreshold = 0.5
	}
	if c.Detect.IoUThreshold == 0 {
		c.Detect.IoUThreshold = 0.4
	}
	if c.Detect.MaxDetections == 0 {
		c.Detect.MaxDetections = 1000
	}
	if c.Detect.RecordWidth < postprocess.DefaultRecordWidth {
		c.Detect.RecordWidth = postprocess.DefaultRecordWidth
	}
	if c.Detect.BlockingClasses == nil {
		c.Detect.BlockingClasses = []int{0}
	}
	if c.Detect.BandLow == 0 {
		c.Detect.BandLow = 0.4
	}
	if c.Detect.BandHigh == 0 {
		c.Detect.BandHigh = 0.6
	}
	if c.Model.WarmupPasses == 0 {
		c.Model.WarmupPasses = 3
	}
	if c.Capture.Source == "" {
		c.Capture.Source = "0"
	}
	if c.Actuator.Backend == "" {
		c.Actuator.Backend = "serial"
	}
	if c.Actuator.Device == "" {
		c.Actuator.Device = "/dev/ttyUSB0"
	}
	if c.Actuator.BaudRate == 0 {
		c.Actuator.BaudRate = 9600
	}
	if c.Status.Port == 0 {
		c.Status.Port = 8080
	}
	if c.Monitor.Port == 0 {
		c.Monitor.Port = 9090
	}
}

// BlockingClassSet converts the configured class list into the lookup form
// the decision policy wants.
func (c *Config) BlockingClassSet() map[int]bool {
	set := make(map[int]bool, len(c.Detect.BlockingClasses))
	for _, id := range c.Detect.BlockingClasses {
		set[id] = true
	}
	return set
}

// ResolveArtifact returns an absolute path for a model artifact, trying the
// path as given, then relative to the executable directory, the working
// directory and their parents. Absence is a startup error.
func ResolveArtifact(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("artifact path is empty")
	}
	if filepath.IsAbs(path) {
		if fileExists(path) {
			return path, nil
		}
		return "", fmt.Errorf("artifact %q not found", path)
	}

	var roots []string
	if exePath, err := os.Executable(); err == nil {
		roots = append(roots, filepath.Dir(exePath))
	}
	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, cwd)
	}

	tried := make([]string, 0, 8)
	seen := make(map[string]bool)
	for _, root := range roots {
		dir := root
		for i := 0; i < 4; i++ {
			if seen[dir] {
				break
			}
			seen[dir] = true
			candidate := filepath.Join(dir, path)
			if fileExists(candidate) {
				return candidate, nil
			}
			tried = append(tried, candidate)
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	return "", fmt.Errorf("artifact %q not found, tried %v", path, tried)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
