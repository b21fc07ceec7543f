package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLog_BeforeInitIsSafe(t *testing.T) {
	assert.NotNil(t, Log())
	Log().Info("discarded before init")
}

func TestInit(t *testing.T) {
	assert.NoError(t, Init(false))
	prod := Log()
	assert.NotNil(t, prod)

	assert.NoError(t, Init(true))
	assert.NotSame(t, prod, Log())
	Sync()
}
