package processors

// Policy holds the business constants the processors apply. They are
// grouped here so a different fee schedule is one struct away instead
// of a hunt through the calculations.
type Policy struct {
	// Viability thresholds.
	RoiObjetivoPct    float64
	BeneficioObjetivo float64

	// Purchase cost rates.
	ItpPct         float64
	NotariaPct     float64
	NotariaMinimo  float64
	RegistroPct    float64
	RegistroMinimo float64

	// Management fees on gross profit.
	GestionComercialPct  float64
	GestionComercialTope float64
	GestionAdminPct      float64
	GestionAdminTope     float64
}

// DefaultPolicy returns the schedule in force: 15% target return,
// 30.000 € target profit, 2% transfer tax, notary and registry at 0,2%
// with a 500 € floor, and 5% management fees capped at 2.000 € and
// 1.500 € respectively.
func DefaultPolicy() Policy {
	return Policy{
		RoiObjetivoPct:    15,
		BeneficioObjetivo: 30000,

		ItpPct:         0.02,
		NotariaPct:     0.002,
		NotariaMinimo:  500,
		RegistroPct:    0.002,
		RegistroMinimo: 500,

		GestionComercialPct:  0.05,
		GestionComercialTope: 2000,
		GestionAdminPct:      0.05,
		GestionAdminTope:     1500,
	}
}
