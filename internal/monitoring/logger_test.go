package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLoggerRedirects(t *testing.T) {
	defer SetLogger(nil)

	var captured string
	SetLogger(func(format string, v ...interface{}) {
		captured = fmt.Sprintf(format, v...)
	})

	Logf("frame %d dropped", 42)
	assert.Equal(t, "frame 42 dropped", captured)
}

func TestSetLoggerNilMutes(t *testing.T) {
	SetLogger(nil)
	// Must not panic.
	Logf("ignored %s", "message")
}
