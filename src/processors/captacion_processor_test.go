package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaptacionProgress(t *testing.T) {
	t.Parallel()
	p := NewCaptacionProcessor()

	prog := p.Progress(100000, 40000)
	assert.InDelta(t, 40.0, prog.PctCaptado, 1e-9)
	assert.InDelta(t, 60000.0, prog.Restante, 1e-9)
	assert.InDelta(t, 60.0, prog.PctRestante, 1e-9)
}

func TestCaptacionProgressOverfunded(t *testing.T) {
	t.Parallel()
	p := NewCaptacionProcessor()

	// More capital than the objective clamps to 100% and zero remaining.
	prog := p.Progress(100000, 130000)
	assert.InDelta(t, 100.0, prog.PctCaptado, 1e-9)
	assert.Zero(t, prog.Restante)
	assert.Zero(t, prog.PctRestante)
}

func TestCaptacionProgressZeroObjective(t *testing.T) {
	t.Parallel()
	p := NewCaptacionProcessor()

	prog := p.Progress(0, 5000)
	assert.Zero(t, prog.PctCaptado)
	assert.Zero(t, prog.Restante)
	assert.InDelta(t, 100.0, prog.PctRestante, 1e-9)
}
