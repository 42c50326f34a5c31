package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/username/inversure/backend/src/logger"
	"github.com/username/inversure/backend/src/models"
	"github.com/username/inversure/backend/src/numeric"
	"github.com/username/inversure/backend/src/processors"
	"github.com/username/inversure/backend/src/security/validation"
	"github.com/username/inversure/backend/src/utils"
)

// Dashboard reads are cached briefly so a polling sheet does not hammer
// the ledgers. Fifteen seconds matches the sheet's refresh interval.
const (
	resumenCacheTTL   = 15 * time.Second
	cacheCleanupSweep = 1 * time.Minute
)

type projectServiceImpl struct {
	db          *sql.DB
	metrics     processors.MetricsProcessor
	viability   processors.ViabilityProcessor
	captacion   processors.CaptacionProcessor
	autocalc    processors.AutocalcProcessor
	email       EmailService
	reportCache *cache.Cache
}

// NewProjectService wires the processors and the report cache together.
func NewProjectService(db *sql.DB, policy processors.Policy, email EmailService) ProjectService {
	return &projectServiceImpl{
		db:          db,
		metrics:     processors.NewMetricsProcessor(policy),
		viability:   processors.NewViabilityProcessor(policy),
		captacion:   processors.NewCaptacionProcessor(),
		autocalc:    processors.NewAutocalcProcessor(policy),
		email:       email,
		reportCache: cache.New(resumenCacheTTL, cacheCleanupSweep),
	}
}

func resumenCacheKey(proyectoID int64) string   { return fmt.Sprintf("resumen:%d", proyectoID) }
func captacionCacheKey(proyectoID int64) string { return fmt.Sprintf("captacion:%d", proyectoID) }

func (s *projectServiceImpl) InvalidateCache(proyectoID int64) {
	s.reportCache.Delete(resumenCacheKey(proyectoID))
	s.reportCache.Delete(captacionCacheKey(proyectoID))
}

func (s *projectServiceImpl) Resumen(proyectoID, userID int64) (*Resumen, error) {
	// Ownership is checked before any cache hit is served; the cache
	// key carries no user.
	proy, err := models.GetProyectoByID(s.db, proyectoID, userID)
	if err != nil {
		return nil, err
	}

	if cached, found := s.reportCache.Get(resumenCacheKey(proyectoID)); found {
		if r, ok := cached.(*Resumen); ok {
			return r, nil
		}
	}

	gastos, err := models.ListGastosByProyecto(s.db, proyectoID)
	if err != nil {
		return nil, err
	}
	ingresos, err := models.ListIngresosByProyecto(s.db, proyectoID)
	if err != nil {
		return nil, err
	}

	m := s.metrics.Calculate(proy, gastos, ingresos)

	// Without a typed sale price the valuation average stands in.
	if m.PrecioVenta == 0 {
		if avg, ok := s.autocalc.MediaValoraciones(proy); ok {
			m.PrecioVenta = avg
			m.ValorTransmision = avg - m.GastosVenta
			m.BeneficioBruto = m.ValorTransmision - m.ValorAdquisicion
			m.BeneficioNeto = m.BeneficioBruto - m.Comision
			if m.ValorAdquisicion > 0 {
				m.ROI = m.BeneficioBruto / m.ValorAdquisicion * 100
				m.ROIKnown = true
				m.ROINeto = m.BeneficioNeto / m.ValorAdquisicion * 100
				m.ROINetoKnown = true
			}
		}
	}

	a := s.viability.Analyze(m)
	t := s.metrics.Totals(gastos, ingresos)

	r := &Resumen{
		Proyecto: ResumenProyecto{
			ID:        proy.ID,
			Nombre:    proy.Nombre,
			Estado:    proy.Estado,
			Direccion: proy.Direccion,
			Modo:      m.Modo,
		},
		Metricas: ResumenMetricas{
			PrecioCompra:      utils.RoundFloat(m.PrecioCompra, 2),
			GastosAdquisicion: utils.RoundFloat(m.GastosAdquisicion, 2),
			ValorAdquisicion:  utils.RoundFloat(m.ValorAdquisicion, 2),
			PrecioVenta:       utils.RoundFloat(m.PrecioVenta, 2),
			GastosVenta:       utils.RoundFloat(m.GastosVenta, 2),
			ValorTransmision:  utils.RoundFloat(m.ValorTransmision, 2),
			BeneficioBruto:    utils.RoundFloat(m.BeneficioBruto, 2),
			Comision:          utils.RoundFloat(m.Comision, 2),
			BeneficioNeto:     utils.RoundFloat(m.BeneficioNeto, 2),
			ROI:               utils.RoundFloat(m.ROI, 2),
			ROIConocido:       m.ROIKnown,
			ROINeto:           utils.RoundFloat(m.ROINeto, 2),
			ROINetoConocido:   m.ROINetoKnown,
		},
		MetricasFmt: map[string]string{
			"precio_compra":      numeric.FormatEuro(m.PrecioCompra),
			"gastos_adquisicion": numeric.FormatEuro(m.GastosAdquisicion),
			"valor_adquisicion":  numeric.FormatEuro(m.ValorAdquisicion),
			"precio_venta":       numeric.FormatEuro(m.PrecioVenta),
			"gastos_venta":       numeric.FormatEuro(m.GastosVenta),
			"valor_transmision":  numeric.FormatEuro(m.ValorTransmision),
			"beneficio_bruto":    numeric.FormatEuro(m.BeneficioBruto),
			"comision":           numeric.FormatEuro(m.Comision),
			"beneficio_neto":     numeric.FormatEuro(m.BeneficioNeto),
			"roi":                numeric.FormatPercentOrDash(m.ROI, m.ROIKnown),
			"roi_neto":           numeric.FormatPercentOrDash(m.ROINeto, m.ROINetoKnown),
		},
		Analisis: ResumenAnalisis{
			Veredicto:      string(a.Verdict),
			MinVenta:       utils.RoundFloat(a.MinVenta, 2),
			Colchon:        utils.RoundFloat(a.Colchon, 2),
			Margen:         utils.RoundFloat(a.Margen, 2),
			MargenConocido: a.MargenKnown,
			AjusteVenta:    utils.RoundFloat(a.AjusteVenta, 2),
			AjusteGastos:   utils.RoundFloat(a.AjusteGastos, 2),
		},
		AnalisisFmt: map[string]string{
			"min_venta":     numeric.FormatEuro(a.MinVenta),
			"colchon":       numeric.FormatEuro(a.Colchon),
			"margen":        numeric.FormatPercentOrDash(a.Margen, a.MargenKnown),
			"ajuste_venta":  numeric.FormatEuro(a.AjusteVenta),
			"ajuste_gastos": numeric.FormatEuro(a.AjusteGastos),
		},
		Totales: ResumenTotales{
			IngresosEstimados:   utils.RoundFloat(t.IngresosEstimados, 2),
			IngresosConfirmados: utils.RoundFloat(t.IngresosConfirmados, 2),
			GastosEstimados:     utils.RoundFloat(t.GastosAdquisicionEstimados+t.GastosVentaEstimados, 2),
			GastosConfirmados:   utils.RoundFloat(t.GastosAdquisicionConfirmados+t.GastosVentaConfirmados, 2),
		},
		Categorias: categoriaBreakdown(gastos),
		Ultimos:    ultimosMovimientos(gastos, ingresos),
	}

	s.reportCache.Set(resumenCacheKey(proyectoID), r, cache.DefaultExpiration)
	return r, nil
}

func (s *projectServiceImpl) Captacion(proyectoID, userID int64) (*CaptacionResumen, error) {
	proy, err := models.GetProyectoByID(s.db, proyectoID, userID)
	if err != nil {
		return nil, err
	}

	if cached, found := s.reportCache.Get(captacionCacheKey(proyectoID)); found {
		if c, ok := cached.(*CaptacionResumen); ok {
			return c, nil
		}
	}

	prog := s.captacion.Progress(proy.ObjetivoCaptacion.Float64, proy.CapitalCaptado.Float64)
	c := &CaptacionResumen{
		ProyectoID: proy.ID,
		Nombre:     proy.Nombre,
		Estado:     proy.Estado,
		Progreso:   prog,
		ProgresoFmt: map[string]string{
			"objetivo":     numeric.FormatEuro(prog.Objetivo),
			"captado":      numeric.FormatEuro(prog.Captado),
			"restante":     numeric.FormatEuro(prog.Restante),
			"pct_captado":  numeric.FormatPercent(prog.PctCaptado),
			"pct_restante": numeric.FormatPercent(prog.PctRestante),
		},
	}

	s.reportCache.Set(captacionCacheKey(proyectoID), c, cache.DefaultExpiration)
	return c, nil
}

// categoriaBreakdown totals expenses per category in the sheet's fixed
// category order. A category with any confirmed amount shows the
// confirmed total; otherwise its estimates stand in. Empty categories
// are omitted.
func categoriaBreakdown(gastos []models.Gasto) []CategoriaResumen {
	type split struct{ confirmado, estimado float64 }
	totals := make(map[string]*split)
	for _, g := range gastos {
		key := g.Categoria
		if !models.IsValidCategoria(key) {
			key = models.CategoriaOtros
		}
		t := totals[key]
		if t == nil {
			t = &split{}
			totals[key] = t
		}
		if g.Estado == models.EntradaConfirmada {
			t.confirmado += g.Importe
		} else {
			t.estimado += g.Importe
		}
	}

	valueOf := func(t *split) float64 {
		if t.confirmado > 0 {
			return t.confirmado
		}
		return t.estimado
	}

	var total float64
	for _, t := range totals {
		total += valueOf(t)
	}

	var out []CategoriaResumen
	for _, cat := range models.ValidCategorias {
		t, ok := totals[cat]
		if !ok {
			continue
		}
		v := valueOf(t)
		if v <= 0 {
			continue
		}
		var pct float64
		if total > 0 {
			pct = math.Round(v / total * 100)
		}
		out = append(out, CategoriaResumen{
			Categoria:  cat,
			Importe:    utils.RoundFloat(v, 2),
			ImporteFmt: numeric.FormatEuro(v),
			Pct:        pct,
		})
	}
	return out
}

// ultimosMovimientos merges both ledgers into one list, newest first,
// capped at six rows. Dates are ISO strings so ordering is lexical;
// undated rows sort last.
func ultimosMovimientos(gastos []models.Gasto, ingresos []models.Ingreso) []MovimientoResumen {
	rows := make([]MovimientoResumen, 0, len(gastos)+len(ingresos))
	for _, g := range gastos {
		rows = append(rows, MovimientoResumen{
			Tipo:       "gasto",
			Fecha:      g.Fecha,
			Categoria:  g.Categoria,
			Concepto:   g.Concepto,
			Importe:    g.Importe,
			ImporteFmt: numeric.FormatEuro(g.Importe),
			Estado:     g.Estado,
		})
	}
	for _, in := range ingresos {
		rows = append(rows, MovimientoResumen{
			Tipo:       "ingreso",
			Fecha:      in.Fecha,
			Categoria:  in.Tipo,
			Concepto:   in.Concepto,
			Importe:    in.Importe,
			ImporteFmt: numeric.FormatEuro(in.Importe),
			Estado:     in.Estado,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Fecha > rows[j].Fecha
	})
	if len(rows) > 6 {
		rows = rows[:6]
	}
	return rows
}

// ApplyAutosave takes a raw form snapshot, parses what it recognizes
// and persists the result. Unknown fields are ignored rather than
// rejected; the sheet evolves faster than the server. The raw body is
// stored as the latest snapshot either way.
func (s *projectServiceImpl) ApplyAutosave(proyectoID, userID int64, raw []byte) (*AutosaveResult, error) {
	var payload struct {
		Payload models.AutosavePayload `json:"payload"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid autosave body: %w", err)
	}
	if !payload.Payload.HasContent() {
		return &AutosaveResult{Saved: false}, nil
	}

	proy, err := models.GetProyectoByID(s.db, proyectoID, userID)
	if err != nil {
		return nil, err
	}

	var applied []string

	applyText := func(group map[string]json.RawMessage, field string, dst *string) {
		rawVal, ok := group[field]
		if !ok {
			return
		}
		var v string
		if err := json.Unmarshal(rawVal, &v); err != nil {
			return
		}
		*dst = validation.CleanFreeText(v)
		applied = append(applied, field)
	}
	applyAmount := func(group map[string]json.RawMessage, field string, dst *sql.NullFloat64) {
		rawVal, ok := group[field]
		if !ok {
			return
		}
		v, present := decodeAmount(rawVal)
		*dst = sql.NullFloat64{Float64: v, Valid: present}
		applied = append(applied, field)
	}

	estadoAnterior := proy.Estado
	if payload.Payload.Proyecto != nil {
		applyText(payload.Payload.Proyecto, "nombre", &proy.Nombre)
		if rawVal, ok := payload.Payload.Proyecto["estado"]; ok {
			var v string
			if json.Unmarshal(rawVal, &v) == nil {
				estado := validation.NormalizeToken(v)
				if models.IsValidEstado(estado) && estado != proy.Estado {
					proy.Estado = estado
					applied = append(applied, "estado")
				}
			}
		}
	}
	if payload.Payload.Inmueble != nil {
		applyText(payload.Payload.Inmueble, "direccion", &proy.Direccion)
		applyAmount(payload.Payload.Inmueble, "valoracion1", &proy.Valoracion1)
		applyAmount(payload.Payload.Inmueble, "valoracion2", &proy.Valoracion2)
		applyAmount(payload.Payload.Inmueble, "valoracion3", &proy.Valoracion3)
	}
	if payload.Payload.Economico != nil {
		applyAmount(payload.Payload.Economico, "precio_compra", &proy.PrecioCompra)
		applyAmount(payload.Payload.Economico, "precio_venta_previsto", &proy.PrecioVentaPrevisto)
		applyAmount(payload.Payload.Economico, "comision_pct", &proy.ComisionPct)
	}
	if payload.Payload.KPIs != nil && payload.Payload.KPIs.Metricas != nil {
		applyAmount(payload.Payload.KPIs.Metricas, "precio_venta_previsto", &proy.PrecioVentaPrevisto)
	}
	if payload.Payload.Inversor != nil {
		applyAmount(payload.Payload.Inversor, "objetivo_captacion", &proy.ObjetivoCaptacion)
		applyAmount(payload.Payload.Inversor, "capital_captado", &proy.CapitalCaptado)
	}

	if len(applied) > 0 {
		if err := models.UpdateProyecto(s.db, proy); err != nil {
			return nil, err
		}
	}
	if err := models.SaveSnapshot(s.db, proyectoID, raw); err != nil {
		return nil, err
	}
	s.InvalidateCache(proyectoID)

	if proy.Estado != estadoAnterior {
		if email := textField(payload.Payload.Inversor, "email"); email != "" {
			if mailErr := s.email.SendEstadoChangeEmail(email, proy.Nombre, estadoAnterior, proy.Estado); mailErr != nil {
				logger.L.Error("Failed to send estado change notification", "proyectoID", proyectoID, "error", mailErr)
			}
		}
	}

	logger.L.Debug("Autosave applied", "proyectoID", proyectoID, "fields", len(applied))
	return &AutosaveResult{Saved: true, CamposAplicados: applied}, nil
}

// textField reads an optional string out of an autosave group.
func textField(group map[string]json.RawMessage, field string) string {
	if group == nil {
		return ""
	}
	rawVal, ok := group[field]
	if !ok {
		return ""
	}
	var v string
	if err := json.Unmarshal(rawVal, &v); err != nil {
		return ""
	}
	return validation.CleanFreeText(v)
}

// decodeAmount reads an autosave value that may arrive as a JSON number
// or as the raw text the user typed.
func decodeAmount(raw json.RawMessage) (float64, bool) {
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num, true
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return numeric.ParseAmount(text)
	}
	return 0, false
}

// CambiarEstado moves a project to a new lifecycle state and notifies
// the investor when an address is given. Returns the previous state.
func (s *projectServiceImpl) CambiarEstado(proyectoID, userID int64, estado, inversorEmail string) (string, error) {
	estado = validation.NormalizeToken(estado)
	if !models.IsValidEstado(estado) {
		return "", fmt.Errorf("estado '%s' is not a valid lifecycle state", estado)
	}

	previo, err := models.UpdateProyectoEstado(s.db, proyectoID, userID, estado)
	if err != nil {
		return "", err
	}
	s.InvalidateCache(proyectoID)

	if previo != estado && inversorEmail != "" {
		proy, err := models.GetProyectoByID(s.db, proyectoID, userID)
		if err == nil {
			if mailErr := s.email.SendEstadoChangeEmail(inversorEmail, proy.Nombre, previo, estado); mailErr != nil {
				logger.L.Error("Failed to send estado change notification", "proyectoID", proyectoID, "error", mailErr)
			}
		}
	}

	return previo, nil
}
