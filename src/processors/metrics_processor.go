package processors

import (
	"github.com/username/inversure/backend/src/models"
)

// metricsProcessorImpl implements the MetricsProcessor interface.
type metricsProcessorImpl struct {
	policy Policy
}

// NewMetricsProcessor creates a new instance of MetricsProcessor.
func NewMetricsProcessor(policy Policy) MetricsProcessor {
	return &metricsProcessorImpl{policy: policy}
}

// Totals walks both ledgers once and splits amounts by entry state and
// by side. Sale income means entries of tipo "venta"; everything else
// counts toward general income.
func (p *metricsProcessorImpl) Totals(gastos []models.Gasto, ingresos []models.Ingreso) LedgerTotals {
	var t LedgerTotals

	for _, g := range gastos {
		confirmed := g.Estado == models.EntradaConfirmada
		if confirmed {
			t.TieneGastosConfirmados = true
		}
		if g.Categoria == models.CategoriaVenta {
			if confirmed {
				t.GastosVentaConfirmados += g.Importe
			} else {
				t.GastosVentaEstimados += g.Importe
			}
			continue
		}
		if confirmed {
			t.GastosAdquisicionConfirmados += g.Importe
		} else {
			t.GastosAdquisicionEstimados += g.Importe
		}
	}

	for _, in := range ingresos {
		confirmed := in.Estado == models.EntradaConfirmada
		if confirmed {
			t.TieneIngresosConfirmados = true
			t.IngresosConfirmados += in.Importe
		} else {
			t.IngresosEstimados += in.Importe
		}
		if in.Tipo == models.TipoVenta {
			if confirmed {
				t.VentaConfirmada += in.Importe
			} else {
				t.VentaEstimada += in.Importe
			}
		}
	}

	return t
}

// Calculate derives the project's figure set.
//
// Before purchase (estudio or captacion) the sheet runs on estimates:
// typed prices plus every ledger entry regardless of state. From
// purchase onward confirmed entries are authoritative, with estimated
// totals standing in for any side that has no confirmed entry yet.
func (p *metricsProcessorImpl) Calculate(proy *models.Proyecto, gastos []models.Gasto, ingresos []models.Ingreso) Metrics {
	t := p.Totals(gastos, ingresos)

	var m Metrics
	if proy.UsaEstimados() {
		m.Modo = "estimado"
		m.GastosAdquisicion = t.GastosAdquisicionEstimados + t.GastosAdquisicionConfirmados
		m.GastosVenta = t.GastosVentaEstimados + t.GastosVentaConfirmados
		m.PrecioCompra = proy.PrecioCompra.Float64
		m.PrecioVenta = proy.PrecioVentaPrevisto.Float64
	} else {
		m.Modo = "real"
		if t.TieneGastosConfirmados {
			m.GastosAdquisicion = t.GastosAdquisicionConfirmados
			m.GastosVenta = t.GastosVentaConfirmados
		} else {
			m.GastosAdquisicion = t.GastosAdquisicionEstimados
			m.GastosVenta = t.GastosVentaEstimados
		}
		m.PrecioCompra = proy.PrecioCompra.Float64
		if t.VentaConfirmada > 0 {
			m.PrecioVenta = t.VentaConfirmada
		} else if t.VentaEstimada > 0 {
			m.PrecioVenta = t.VentaEstimada
		} else {
			m.PrecioVenta = proy.PrecioVentaPrevisto.Float64
		}
	}

	m.ValorAdquisicion = m.PrecioCompra + m.GastosAdquisicion
	m.ValorTransmision = m.PrecioVenta - m.GastosVenta
	m.BeneficioBruto = m.ValorTransmision - m.ValorAdquisicion

	// Commission only applies when there is profit to commission.
	if m.BeneficioBruto > 0 && proy.ComisionPct.Valid {
		m.Comision = m.BeneficioBruto * proy.ComisionPct.Float64 / 100
	}
	m.BeneficioNeto = m.BeneficioBruto - m.Comision

	// The headline ROI is gross; the net variant only matters for the
	// investor figures after commission.
	if m.ValorAdquisicion > 0 {
		m.ROI = m.BeneficioBruto / m.ValorAdquisicion * 100
		m.ROIKnown = true
		m.ROINeto = m.BeneficioNeto / m.ValorAdquisicion * 100
		m.ROINetoKnown = true
	}

	return m
}
