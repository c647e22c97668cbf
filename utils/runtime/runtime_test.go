package runtime

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerCount(t *testing.T) {
	cores := runtime.GOMAXPROCS(0)
	assert.Equal(t, 1, WorkerCount(1))
	assert.Equal(t, cores, WorkerCount(cores+8))
	assert.Equal(t, max(cores-1, 1), WorkerCount(0))
	assert.Equal(t, max(cores-1, 1), WorkerCount(-3))
}
