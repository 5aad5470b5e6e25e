package progressbar

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManualProgressBar(t *testing.T) {
	var out bytes.Buffer
	p := NewManualProgressBar(&out, 10, 4)
	assert.Equal(t, 0.0, p.Fraction())

	p.Increment()
	p.Increment()
	assert.Equal(t, 0.5, p.Fraction())
	assert.Equal(t, 5, strings.Count(p.String(), "█"))
	assert.Contains(t, p.String(), "50.00%")

	p.Set(10)
	assert.Equal(t, 1.0, p.Fraction())
	p.Increment()
	assert.Equal(t, 1.0, p.Fraction())

	p.Display()
	p.Close()
	assert.Contains(t, out.String(), "100.00%")
	assert.True(t, strings.HasSuffix(out.String(), "\n"))
}

func TestManualProgressBarNilWriter(t *testing.T) {
	p := NewManualProgressBar(nil, 10, 0)
	assert.Equal(t, 1.0, p.Fraction())
	p.Display()
	p.Close()
}
