package processors

import (
	"math"
)

// viabilityProcessorImpl implements the ViabilityProcessor interface.
type viabilityProcessorImpl struct {
	policy Policy
}

// NewViabilityProcessor creates a new instance of ViabilityProcessor.
func NewViabilityProcessor(policy Policy) ViabilityProcessor {
	return &viabilityProcessorImpl{policy: policy}
}

// Classify applies the double objective on the gross figures: the
// return target and the absolute profit target. Hitting the return but
// not the full profit leaves the operation "ajustada" rather than
// viable. Commission never enters the verdict.
func (p *viabilityProcessorImpl) Classify(m Metrics) Verdict {
	roiOK := m.ROIKnown && m.ROI >= p.policy.RoiObjetivoPct
	switch {
	case roiOK && m.BeneficioBruto >= p.policy.BeneficioObjetivo:
		return VerdictViable
	case roiOK && m.BeneficioBruto > 0:
		return VerdictAjustada
	default:
		return VerdictNoViable
	}
}

// Analyze measures the distance from the current figures to the
// objectives. The binding objective is whichever of the absolute
// profit target and the return target asks for more profit at the
// current acquisition value.
func (p *viabilityProcessorImpl) Analyze(m Metrics) Analysis {
	a := Analysis{Verdict: p.Classify(m)}

	objetivoBenef := math.Max(p.policy.BeneficioObjetivo, m.ValorAdquisicion*p.policy.RoiObjetivoPct/100)
	minValorTrans := m.ValorAdquisicion + objetivoBenef
	a.MinVenta = minValorTrans + m.GastosVenta

	if m.ValorTransmision > 0 {
		a.Colchon = m.ValorTransmision - minValorTrans
		a.Margen = m.BeneficioBruto / m.ValorTransmision * 100
		a.MargenKnown = true
		a.AjusteVenta = math.Max(minValorTrans-m.ValorTransmision, 0)

		// Cost ceiling that satisfies both objectives at the current
		// transmission value.
		costeMaximo := math.Min(
			m.ValorTransmision/(1+p.policy.RoiObjetivoPct/100),
			m.ValorTransmision-p.policy.BeneficioObjetivo,
		)
		a.AjusteGastos = math.Max(m.ValorAdquisicion-math.Max(costeMaximo, 0), 0)
	} else {
		// No sale figure at all: the whole objective is missing on the
		// sale side, and every euro of cost is excess.
		a.AjusteVenta = minValorTrans
		a.AjusteGastos = m.ValorAdquisicion
	}

	return a
}
