// Package actuator sends the per-frame drive command to the external
// actuator controller. One byte per decision cycle, fire-and-forget.
package actuator

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jacobsa/go-serial/serial"

	"github.com/jashmkapadia0/self-driving-kart/pipeline"
)

// Command bytes understood by the controller firmware.
const (
	goByte   = '1'
	stopByte = '0'
)

const defaultBaudRate = 9600

// Commander delivers one control signal per frame. No acknowledgement
// protocol; errors are logged by the caller and the next frame overwrites.
type Commander interface {
	Send(signal pipeline.Signal) error
	Close() error
}

func commandByte(signal pipeline.Signal) byte {
	if signal == pipeline.Stop {
		return stopByte
	}
	return goByte
}

// SerialConfig configures the serial backend. TestChan is a fake "serial"
// path for test use only.
type SerialConfig struct {
	Device   string
	BaudRate uint
	TestChan chan []byte
}

type serialCommander struct {
	mu       sync.Mutex
	port     io.WriteCloser
	testChan chan []byte
}

// NewSerial opens the controller's serial device.
func NewSerial(cfg SerialConfig) (Commander, error) {
	if cfg.TestChan != nil {
		return &serialCommander{testChan: cfg.TestChan}, nil
	}
	baud := cfg.BaudRate
	if baud == 0 {
		baud = defaultBaudRate
	}
	options := serial.OpenOptions{
		PortName:        cfg.Device,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	}
	port, err := serial.Open(options)
	if err != nil {
		return nil, fmt.Errorf("opening actuator port %s: %w", cfg.Device, err)
	}
	return &serialCommander{port: port}, nil
}

func (c *serialCommander) Send(signal pipeline.Signal) error {
	payload := []byte{commandByte(signal)}
	if c.testChan != nil {
		select {
		case c.testChan <- payload:
		default:
		}
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.port.Write(payload)
	return err
}

func (c *serialCommander) Close() error {
	if c.port == nil {
		return nil
	}
	return c.port.Close()
}

type httpCommander struct {
	client   *resty.Client
	endpoint string
}

// NewHTTP targets an actuator bridge that accepts the command byte as the
// request body.
func NewHTTP(endpoint string) Commander {
	return &httpCommander{
		client:   resty.New().SetTimeout(2 * time.Second),
		endpoint: endpoint,
	}
}

func (c *httpCommander) Send(signal pipeline.Signal) error {
	_, err := c.client.R().
		SetHeader("Content-Type", "application/octet-stream").
		SetBody([]byte{commandByte(signal)}).
		Post(c.endpoint)
	return err
}

func (c *httpCommander) Close() error { return nil }

type nopCommander struct{}

// NewNop discards every command; used when the kart runs without a
// controller attached.
func NewNop() Commander { return nopCommander{} }

func (nopCommander) Send(pipeline.Signal) error { return nil }

func (nopCommander) Close() error { return nil }
