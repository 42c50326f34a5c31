package processors

import (
	"github.com/username/inversure/backend/src/utils"
)

// captacionProcessorImpl implements the CaptacionProcessor interface.
type captacionProcessorImpl struct{}

// NewCaptacionProcessor creates a new instance of CaptacionProcessor.
func NewCaptacionProcessor() CaptacionProcessor {
	return &captacionProcessorImpl{}
}

// Progress computes raise figures. Percentages stay inside [0, 100]
// even when more capital arrives than the objective asked for, and the
// remaining amount never goes negative.
func (p *captacionProcessorImpl) Progress(objetivo, captado float64) CaptacionProgress {
	prog := CaptacionProgress{
		Objetivo: objetivo,
		Captado:  captado,
	}
	if objetivo > 0 {
		prog.PctCaptado = utils.Clamp(captado/objetivo*100, 0, 100)
	}
	prog.Restante = objetivo - captado
	if prog.Restante < 0 {
		prog.Restante = 0
	}
	prog.PctRestante = 100 - prog.PctCaptado
	if prog.PctRestante < 0 {
		prog.PctRestante = 0
	}
	return prog
}
