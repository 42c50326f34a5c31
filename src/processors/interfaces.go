package processors

import (
	"github.com/username/inversure/backend/src/models"
)

// LedgerTotals aggregates a project's ledgers split by entry state and
// by side. Acquisition covers every expense category except selling
// costs; Venta covers selling costs only.
type LedgerTotals struct {
	GastosAdquisicionEstimados   float64
	GastosAdquisicionConfirmados float64
	GastosVentaEstimados         float64
	GastosVentaConfirmados       float64
	IngresosEstimados            float64
	IngresosConfirmados          float64
	VentaEstimada                float64
	VentaConfirmada              float64

	TieneGastosConfirmados   bool
	TieneIngresosConfirmados bool
}

// Metrics is the derived figure set for one project. Ratio figures
// carry a Known flag; an unknown ratio renders as a dash, never as 0.
type Metrics struct {
	Modo string // "estimado" or "real"

	PrecioCompra      float64
	GastosAdquisicion float64
	ValorAdquisicion  float64

	PrecioVenta      float64
	GastosVenta      float64
	ValorTransmision float64

	BeneficioBruto float64
	Comision       float64
	BeneficioNeto  float64

	// ROI is gross profit over acquisition value; ROINeto applies the
	// commission first.
	ROI          float64
	ROIKnown     bool
	ROINeto      float64
	ROINetoKnown bool
}

// MetricsProcessor derives the figure set for a project from its typed
// estimates and its ledgers.
type MetricsProcessor interface {
	Totals(gastos []models.Gasto, ingresos []models.Ingreso) LedgerTotals
	Calculate(p *models.Proyecto, gastos []models.Gasto, ingresos []models.Ingreso) Metrics
}

// Verdict is a viability classification.
type Verdict string

const (
	VerdictViable   Verdict = "viable"
	VerdictAjustada Verdict = "ajustada"
	VerdictNoViable Verdict = "no_viable"
)

// Analysis is the investment analysis block: how far the operation sits
// from the profit and return objectives at its current figures.
type Analysis struct {
	Verdict Verdict

	MinVenta     float64
	Colchon      float64
	Margen       float64
	MargenKnown  bool
	AjusteVenta  float64
	AjusteGastos float64
}

// ViabilityProcessor classifies an operation and measures its distance
// to the objectives.
type ViabilityProcessor interface {
	Classify(m Metrics) Verdict
	Analyze(m Metrics) Analysis
}

// CaptacionProgress describes how a capital raise is going.
type CaptacionProgress struct {
	Objetivo    float64 `json:"objetivo"`
	Captado     float64 `json:"captado"`
	PctCaptado  float64 `json:"pct_captado"`
	Restante    float64 `json:"restante"`
	PctRestante float64 `json:"pct_restante"`
}

// CaptacionProcessor computes raise progress figures.
type CaptacionProcessor interface {
	Progress(objetivo, captado float64) CaptacionProgress
}

// PurchaseCosts are the tax and legal costs autocalculated from a
// purchase price.
type PurchaseCosts struct {
	ITP      float64
	Notaria  float64
	Registro float64
}

// SaleFees are the management fees autocalculated from gross profit.
type SaleFees struct {
	GestionComercial      float64
	GestionAdministracion float64
}

// AutocalcProcessor fills in figures the sheet derives automatically.
type AutocalcProcessor interface {
	PurchaseCosts(precioCompra float64) PurchaseCosts
	SaleFees(beneficioBruto float64) SaleFees
	MediaValoraciones(p *models.Proyecto) (float64, bool)
}
