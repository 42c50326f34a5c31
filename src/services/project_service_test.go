package services

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/inversure/backend/src/database"
	"github.com/username/inversure/backend/src/logger"
	"github.com/username/inversure/backend/src/models"
	"github.com/username/inversure/backend/src/processors"
)

type recordingEmailService struct {
	calls []string
}

func (r *recordingEmailService) SendEstadoChangeEmail(toEmail, proyectoNombre, estadoAnterior, estadoNuevo string) error {
	r.calls = append(r.calls, toEmail+":"+estadoAnterior+"->"+estadoNuevo)
	return nil
}

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	dir, err := os.MkdirTemp("", "inversure-services-test")
	if err != nil {
		os.Exit(1)
	}
	database.InitDB(filepath.Join(dir, "test.db"))
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func newService(t *testing.T) (ProjectService, *recordingEmailService) {
	t.Helper()
	email := &recordingEmailService{}
	return NewProjectService(database.DB, processors.DefaultPolicy(), email), email
}

func createProyecto(t *testing.T, userID int64, estado string) *models.Proyecto {
	t.Helper()
	p := &models.Proyecto{
		UserID:              userID,
		Nombre:              "Piso prueba",
		Estado:              estado,
		PrecioCompra:        sql.NullFloat64{Float64: 200000, Valid: true},
		PrecioVentaPrevisto: sql.NullFloat64{Float64: 280000, Valid: true},
	}
	require.NoError(t, models.CreateProyecto(database.DB, p))
	return p
}

func TestResumenModeFollowsLifecycle(t *testing.T) {
	svc, _ := newService(t)
	const userID = 101

	p := createProyecto(t, userID, models.EstadoCaptacion)

	r, err := svc.Resumen(p.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "estimado", r.Proyecto.Modo)
	assert.InDelta(t, 200000.0, r.Metricas.PrecioCompra, 1e-9)
	assert.True(t, r.Metricas.ROIConocido)

	_, err = svc.CambiarEstado(p.ID, userID, models.EstadoComercializacion, "")
	require.NoError(t, err)

	r, err = svc.Resumen(p.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "real", r.Proyecto.Modo)
}

func TestResumenFormatsUnknownROIAsDash(t *testing.T) {
	svc, _ := newService(t)
	const userID = 102

	p := &models.Proyecto{UserID: userID, Nombre: "Sin datos", Estado: models.EstadoCaptacion}
	require.NoError(t, models.CreateProyecto(database.DB, p))

	r, err := svc.Resumen(p.ID, userID)
	require.NoError(t, err)
	assert.False(t, r.Metricas.ROIConocido)
	assert.Equal(t, "—", r.MetricasFmt["roi"])
}

func TestResumenCacheInvalidation(t *testing.T) {
	svc, _ := newService(t)
	const userID = 103

	p := createProyecto(t, userID, models.EstadoCaptacion)

	r1, err := svc.Resumen(p.ID, userID)
	require.NoError(t, err)

	g := &models.Gasto{
		ProyectoID: p.ID,
		Fecha:      "2026-01-10",
		Categoria:  models.CategoriaReforma,
		Importe:    5000,
		Estado:     models.EntradaEstimada,
	}
	require.NoError(t, models.CreateGasto(database.DB, g))

	// Still within the cache window, so the stale figure comes back.
	r2, err := svc.Resumen(p.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, r1.Metricas.ValorAdquisicion, r2.Metricas.ValorAdquisicion)

	svc.InvalidateCache(p.ID)
	r3, err := svc.Resumen(p.ID, userID)
	require.NoError(t, err)
	assert.InDelta(t, r1.Metricas.ValorAdquisicion+5000, r3.Metricas.ValorAdquisicion, 1e-9)
}

func TestApplyAutosave(t *testing.T) {
	svc, _ := newService(t)
	const userID = 104

	p := createProyecto(t, userID, models.EstadoCaptacion)

	body := []byte(`{"payload":{
		"proyecto":{"nombre":"Piso renombrado"},
		"economico":{"precio_compra":"210.000,50 €","comision_pct":5},
		"inversor":{"objetivo_captacion":"100.000","capital_captado":"40.000"}
	}}`)

	result, err := svc.ApplyAutosave(p.ID, userID, body)
	require.NoError(t, err)
	assert.True(t, result.Saved)
	assert.NotEmpty(t, result.CamposAplicados)

	updated, err := models.GetProyectoByID(database.DB, p.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "Piso renombrado", updated.Nombre)
	require.True(t, updated.PrecioCompra.Valid)
	assert.InDelta(t, 210000.5, updated.PrecioCompra.Float64, 1e-9)
	require.True(t, updated.ComisionPct.Valid)
	assert.InDelta(t, 5.0, updated.ComisionPct.Float64, 1e-9)

	snapshot, err := models.GetSnapshot(database.DB, p.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(snapshot))
}

func TestApplyAutosaveEmptyPayloadSavesNothing(t *testing.T) {
	svc, _ := newService(t)
	const userID = 105

	p := createProyecto(t, userID, models.EstadoCaptacion)

	result, err := svc.ApplyAutosave(p.ID, userID, []byte(`{"payload":{}}`))
	require.NoError(t, err)
	assert.False(t, result.Saved)

	snapshot, err := models.GetSnapshot(database.DB, p.ID)
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestCaptacionProgress(t *testing.T) {
	svc, _ := newService(t)
	const userID = 106

	p := createProyecto(t, userID, models.EstadoCaptacion)
	p.ObjetivoCaptacion = sql.NullFloat64{Float64: 100000, Valid: true}
	p.CapitalCaptado = sql.NullFloat64{Float64: 25000, Valid: true}
	require.NoError(t, models.UpdateProyecto(database.DB, p))

	c, err := svc.Captacion(p.ID, userID)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, c.Progreso.PctCaptado, 1e-9)
	assert.Equal(t, "75.000,00 €", c.ProgresoFmt["restante"])

	// Progress serializes in snake_case like every sibling payload.
	raw, err := json.Marshal(c.Progreso)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"pct_captado":25`)
	assert.Contains(t, string(raw), `"restante":75000`)
}

func TestCambiarEstadoNotifiesInvestor(t *testing.T) {
	svc, email := newService(t)
	const userID = 107

	p := createProyecto(t, userID, models.EstadoCaptacion)

	previo, err := svc.CambiarEstado(p.ID, userID, models.EstadoComprado, "inversor@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.EstadoCaptacion, previo)
	require.Len(t, email.calls, 1)
	assert.Contains(t, email.calls[0], "captacion->comprado")

	_, err = svc.CambiarEstado(p.ID, userID, "inexistente", "inversor@example.com")
	assert.Error(t, err)
}

func TestApplyAutosaveEstadoTransitionNotifies(t *testing.T) {
	svc, email := newService(t)
	const userID = 107

	p := createProyecto(t, userID, models.EstadoCaptacion)

	body := `{"payload":{"proyecto":{"estado":"Comprado"},"inversor":{"email":"inversor@example.com"}}}`
	res, err := svc.ApplyAutosave(p.ID, userID, []byte(body))
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.Contains(t, res.CamposAplicados, "estado")

	updated, err := models.GetProyectoByID(database.DB, p.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.EstadoComprado, updated.Estado)

	require.Len(t, email.calls, 1)
	assert.Contains(t, email.calls[0], "inversor@example.com:captacion->comprado")

	// An unknown state in the snapshot is ignored, not an error.
	res, err = svc.ApplyAutosave(p.ID, userID, []byte(`{"payload":{"proyecto":{"estado":"volando"}}}`))
	require.NoError(t, err)
	assert.NotContains(t, res.CamposAplicados, "estado")
	assert.Len(t, email.calls, 1)
}

func TestResumenCacheDoesNotBypassOwnership(t *testing.T) {
	svc, _ := newService(t)
	const ownerID = 108
	const otherID = 109

	p := createProyecto(t, ownerID, models.EstadoCaptacion)

	// The owner warms the cache first.
	_, err := svc.Resumen(p.ID, ownerID)
	require.NoError(t, err)

	_, err = svc.Resumen(p.ID, otherID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = svc.Captacion(p.ID, ownerID)
	require.NoError(t, err)

	_, err = svc.Captacion(p.ID, otherID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestResumenCarriesLedgerBreakdown(t *testing.T) {
	svc, _ := newService(t)
	const userID = 110

	p := createProyecto(t, userID, models.EstadoCaptacion)

	gastos := []models.Gasto{
		{ProyectoID: p.ID, Fecha: "2026-02-01", Categoria: models.CategoriaReforma, Concepto: "Cocina", Importe: 12000, Estado: models.EntradaEstimada},
		{ProyectoID: p.ID, Fecha: "2026-02-15", Categoria: models.CategoriaReforma, Concepto: "Baño", Importe: 8000, Estado: models.EntradaConfirmada},
		{ProyectoID: p.ID, Fecha: "2026-01-20", Categoria: models.CategoriaLegales, Concepto: "Notaría", Importe: 2000, Estado: models.EntradaConfirmada},
	}
	for i := range gastos {
		require.NoError(t, models.CreateGasto(database.DB, &gastos[i]))
	}
	in := &models.Ingreso{
		ProyectoID: p.ID, Fecha: "2026-03-01", Tipo: models.TipoSenal,
		Concepto: "Señal", Importe: 5000, Estado: models.EntradaConfirmada,
	}
	require.NoError(t, models.CreateIngreso(database.DB, in))

	r, err := svc.Resumen(p.ID, userID)
	require.NoError(t, err)

	assert.InDelta(t, 12000.0, r.Totales.GastosEstimados, 1e-9)
	assert.InDelta(t, 10000.0, r.Totales.GastosConfirmados, 1e-9)
	assert.InDelta(t, 5000.0, r.Totales.IngresosConfirmados, 1e-9)

	// Reforma has a confirmed amount, so its estimate is ignored.
	require.Len(t, r.Categorias, 2)
	assert.Equal(t, models.CategoriaReforma, r.Categorias[0].Categoria)
	assert.InDelta(t, 8000.0, r.Categorias[0].Importe, 1e-9)
	assert.Equal(t, models.CategoriaLegales, r.Categorias[1].Categoria)
	assert.InDelta(t, 80.0, r.Categorias[0].Pct, 1e-9)
	assert.InDelta(t, 20.0, r.Categorias[1].Pct, 1e-9)

	// Newest first: the ingreso from March leads.
	require.Len(t, r.Ultimos, 4)
	assert.Equal(t, "ingreso", r.Ultimos[0].Tipo)
	assert.Equal(t, "2026-03-01", r.Ultimos[0].Fecha)
	assert.Equal(t, "2026-02-15", r.Ultimos[1].Fecha)
	assert.Equal(t, "Baño", r.Ultimos[1].Concepto)
}
