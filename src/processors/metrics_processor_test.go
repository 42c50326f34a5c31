package processors

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/inversure/backend/src/models"
)

func nf(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func TestTotalsSplitsByStateAndSide(t *testing.T) {
	t.Parallel()
	p := NewMetricsProcessor(DefaultPolicy())

	gastos := []models.Gasto{
		{Categoria: models.CategoriaAdquisicion, Importe: 150000, Estado: models.EntradaConfirmada},
		{Categoria: models.CategoriaReforma, Importe: 20000, Estado: models.EntradaEstimada},
		{Categoria: models.CategoriaVenta, Importe: 3000, Estado: models.EntradaEstimada},
		{Categoria: models.CategoriaVenta, Importe: 1000, Estado: models.EntradaConfirmada},
	}
	ingresos := []models.Ingreso{
		{Tipo: models.TipoVenta, Importe: 250000, Estado: models.EntradaEstimada},
		{Tipo: models.TipoSenal, Importe: 5000, Estado: models.EntradaConfirmada},
	}

	totals := p.Totals(gastos, ingresos)
	assert.InDelta(t, 150000.0, totals.GastosAdquisicionConfirmados, 1e-9)
	assert.InDelta(t, 20000.0, totals.GastosAdquisicionEstimados, 1e-9)
	assert.InDelta(t, 3000.0, totals.GastosVentaEstimados, 1e-9)
	assert.InDelta(t, 1000.0, totals.GastosVentaConfirmados, 1e-9)
	assert.InDelta(t, 250000.0, totals.VentaEstimada, 1e-9)
	assert.InDelta(t, 5000.0, totals.IngresosConfirmados, 1e-9)
	assert.True(t, totals.TieneGastosConfirmados)
	assert.True(t, totals.TieneIngresosConfirmados)
}

func TestCalculateEstimateMode(t *testing.T) {
	t.Parallel()
	p := NewMetricsProcessor(DefaultPolicy())

	// Purchase at 200.000 with 5.000 of acquisition costs gives an
	// acquisition value of 205.000.
	proy := &models.Proyecto{
		Estado:              models.EstadoCaptacion,
		PrecioCompra:        nf(200000),
		PrecioVentaPrevisto: nf(280000),
	}
	gastos := []models.Gasto{
		{Categoria: models.CategoriaLegales, Importe: 3000, Estado: models.EntradaEstimada},
		{Categoria: models.CategoriaOperativos, Importe: 2000, Estado: models.EntradaEstimada},
	}

	m := p.Calculate(proy, gastos, nil)
	require.Equal(t, "estimado", m.Modo)
	assert.InDelta(t, 205000.0, m.ValorAdquisicion, 1e-9)
	assert.InDelta(t, 280000.0, m.ValorTransmision, 1e-9)
	assert.InDelta(t, 75000.0, m.BeneficioBruto, 1e-9)
	assert.Zero(t, m.Comision)
	require.True(t, m.ROIKnown)
	assert.InDelta(t, 75000.0/205000.0*100, m.ROI, 1e-9)
	require.True(t, m.ROINetoKnown)
	assert.InDelta(t, m.ROI, m.ROINeto, 1e-9)
}

func TestCalculateRealModePrefersConfirmed(t *testing.T) {
	t.Parallel()
	p := NewMetricsProcessor(DefaultPolicy())

	proy := &models.Proyecto{
		Estado:              models.EstadoComercializacion,
		PrecioCompra:        nf(200000),
		PrecioVentaPrevisto: nf(300000),
	}
	gastos := []models.Gasto{
		{Categoria: models.CategoriaReforma, Importe: 25000, Estado: models.EntradaEstimada},
		{Categoria: models.CategoriaReforma, Importe: 30000, Estado: models.EntradaConfirmada},
	}
	ingresos := []models.Ingreso{
		{Tipo: models.TipoVenta, Importe: 290000, Estado: models.EntradaConfirmada},
	}

	m := p.Calculate(proy, gastos, ingresos)
	require.Equal(t, "real", m.Modo)
	// Confirmed figures win over estimates on both sides.
	assert.InDelta(t, 230000.0, m.ValorAdquisicion, 1e-9)
	assert.InDelta(t, 290000.0, m.PrecioVenta, 1e-9)
}

func TestCalculateRealModeFallsBackToEstimates(t *testing.T) {
	t.Parallel()
	p := NewMetricsProcessor(DefaultPolicy())

	proy := &models.Proyecto{
		Estado:              models.EstadoComprado,
		PrecioCompra:        nf(100000),
		PrecioVentaPrevisto: nf(150000),
	}
	gastos := []models.Gasto{
		{Categoria: models.CategoriaReforma, Importe: 10000, Estado: models.EntradaEstimada},
	}

	m := p.Calculate(proy, gastos, nil)
	require.Equal(t, "real", m.Modo)
	assert.InDelta(t, 110000.0, m.ValorAdquisicion, 1e-9)
	assert.InDelta(t, 150000.0, m.PrecioVenta, 1e-9)
}

func TestCommissionOnlyOnPositiveProfit(t *testing.T) {
	t.Parallel()
	p := NewMetricsProcessor(DefaultPolicy())

	proy := &models.Proyecto{
		Estado:              models.EstadoCaptacion,
		PrecioCompra:        nf(300000),
		PrecioVentaPrevisto: nf(250000),
		ComisionPct:         nf(10),
	}

	m := p.Calculate(proy, nil, nil)
	assert.Less(t, m.BeneficioBruto, 0.0)
	assert.Zero(t, m.Comision)
	assert.InDelta(t, m.BeneficioBruto, m.BeneficioNeto, 1e-9)

	proy.PrecioVentaPrevisto = nf(400000)
	m = p.Calculate(proy, nil, nil)
	assert.InDelta(t, 100000.0, m.BeneficioBruto, 1e-9)
	assert.InDelta(t, 10000.0, m.Comision, 1e-9)
	assert.InDelta(t, 90000.0, m.BeneficioNeto, 1e-9)
}

func TestROIUnknownOnZeroAcquisition(t *testing.T) {
	t.Parallel()
	p := NewMetricsProcessor(DefaultPolicy())

	proy := &models.Proyecto{Estado: models.EstadoCaptacion}
	m := p.Calculate(proy, nil, nil)
	assert.False(t, m.ROIKnown)
	assert.Zero(t, m.ROI)
	assert.False(t, m.ROINetoKnown)
}

func TestROIIsGrossOfCommission(t *testing.T) {
	t.Parallel()
	policy := DefaultPolicy()
	metrics := NewMetricsProcessor(policy)
	viability := NewViabilityProcessor(policy)

	proy := &models.Proyecto{
		Estado:              models.EstadoCaptacion,
		PrecioCompra:        nf(200000),
		PrecioVentaPrevisto: nf(235000),
		ComisionPct:         nf(25),
	}

	m := metrics.Calculate(proy, nil, nil)
	assert.InDelta(t, 35000.0, m.BeneficioBruto, 1e-9)
	assert.InDelta(t, 8750.0, m.Comision, 1e-9)
	assert.InDelta(t, 26250.0, m.BeneficioNeto, 1e-9)

	// The headline ROI ignores the commission; only the investor's
	// net figure carries it.
	require.True(t, m.ROIKnown)
	assert.InDelta(t, 17.5, m.ROI, 1e-9)
	require.True(t, m.ROINetoKnown)
	assert.InDelta(t, 13.125, m.ROINeto, 1e-9)

	// Both objectives are met on the gross figures, so the commission
	// cannot turn a viable operation into a rejected one.
	assert.Equal(t, VerdictViable, viability.Classify(m))
}
