package actuator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jashmkapadia0/self-driving-kart/pipeline"
)

func TestSerialCommander_TestChan(t *testing.T) {
	ch := make(chan []byte, 4)
	commander, err := NewSerial(SerialConfig{TestChan: ch})
	assert.NoError(t, err)
	defer commander.Close()

	assert.NoError(t, commander.Send(pipeline.Stop))
	assert.Equal(t, []byte{'0'}, <-ch)

	assert.NoError(t, commander.Send(pipeline.Go))
	assert.Equal(t, []byte{'1'}, <-ch)
}

func TestSerialCommander_TestChanNeverBlocks(t *testing.T) {
	ch := make(chan []byte, 1)
	commander, _ := NewSerial(SerialConfig{TestChan: ch})
	defer commander.Close()

	for i := 0; i < 10; i++ {
		assert.NoError(t, commander.Send(pipeline.Go))
	}
}

func TestCommandByte(t *testing.T) {
	assert.Equal(t, byte('0'), commandByte(pipeline.Stop))
	assert.Equal(t, byte('1'), commandByte(pipeline.Go))
}

func TestNopCommander(t *testing.T) {
	commander := NewNop()
	assert.NoError(t, commander.Send(pipeline.Stop))
	assert.NoError(t, commander.Close())
}
