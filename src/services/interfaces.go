package services

import (
	"github.com/username/inversure/backend/src/processors"
)

// Resumen is the dashboard payload for one project: raw figures for
// further arithmetic plus display strings already rendered in es-ES.
// Unknown ratios render as a dash, never as zero.
type Resumen struct {
	Proyecto    ResumenProyecto     `json:"proyecto"`
	Metricas    ResumenMetricas     `json:"metricas"`
	MetricasFmt map[string]string   `json:"metricas_fmt"`
	Analisis    ResumenAnalisis     `json:"analisis"`
	AnalisisFmt map[string]string   `json:"analisis_fmt"`
	Totales     ResumenTotales      `json:"totales"`
	Categorias  []CategoriaResumen  `json:"categorias"`
	Ultimos     []MovimientoResumen `json:"ultimos_movimientos"`
}

type ResumenProyecto struct {
	ID        int64  `json:"id"`
	Nombre    string `json:"nombre"`
	Estado    string `json:"estado"`
	Direccion string `json:"direccion"`
	Modo      string `json:"modo"`
}

type ResumenMetricas struct {
	PrecioCompra      float64 `json:"precio_compra"`
	GastosAdquisicion float64 `json:"gastos_adquisicion"`
	ValorAdquisicion  float64 `json:"valor_adquisicion"`
	PrecioVenta       float64 `json:"precio_venta"`
	GastosVenta       float64 `json:"gastos_venta"`
	ValorTransmision  float64 `json:"valor_transmision"`
	BeneficioBruto    float64 `json:"beneficio_bruto"`
	Comision          float64 `json:"comision"`
	BeneficioNeto     float64 `json:"beneficio_neto"`
	ROI               float64 `json:"roi"`
	ROIConocido       bool    `json:"roi_conocido"`
	ROINeto           float64 `json:"roi_neto"`
	ROINetoConocido   bool    `json:"roi_neto_conocido"`
}

type ResumenAnalisis struct {
	Veredicto      string  `json:"veredicto"`
	MinVenta       float64 `json:"min_venta"`
	Colchon        float64 `json:"colchon"`
	Margen         float64 `json:"margen"`
	MargenConocido bool    `json:"margen_conocido"`
	AjusteVenta    float64 `json:"ajuste_venta"`
	AjusteGastos   float64 `json:"ajuste_gastos"`
}

// ResumenTotales carries the ledger totals split by entry state, for
// the income and expense bars of the dashboard.
type ResumenTotales struct {
	IngresosEstimados   float64 `json:"ingresos_estimados"`
	IngresosConfirmados float64 `json:"ingresos_confirmados"`
	GastosEstimados     float64 `json:"gastos_estimados"`
	GastosConfirmados   float64 `json:"gastos_confirmados"`
}

// CategoriaResumen is one row of the expense breakdown. Confirmed
// amounts stand for a category once it has any; Pct is this category's
// share of the breakdown total.
type CategoriaResumen struct {
	Categoria  string  `json:"categoria"`
	Importe    float64 `json:"importe"`
	ImporteFmt string  `json:"importe_fmt"`
	Pct        float64 `json:"pct"`
}

// MovimientoResumen is one row of the latest-movements list, newest
// first.
type MovimientoResumen struct {
	Tipo       string  `json:"tipo"`
	Fecha      string  `json:"fecha"`
	Categoria  string  `json:"categoria"`
	Concepto   string  `json:"concepto"`
	Importe    float64 `json:"importe"`
	ImporteFmt string  `json:"importe_fmt"`
	Estado     string  `json:"estado"`
}

// CaptacionResumen is the raise-progress payload for one project.
type CaptacionResumen struct {
	ProyectoID  int64                        `json:"proyecto_id"`
	Nombre      string                       `json:"nombre"`
	Estado      string                       `json:"estado"`
	Progreso    processors.CaptacionProgress `json:"progreso"`
	ProgresoFmt map[string]string            `json:"progreso_fmt"`
}

// AutosaveResult reports what an autosave request did.
type AutosaveResult struct {
	Saved           bool     `json:"saved"`
	CamposAplicados []string `json:"campos_aplicados,omitempty"`
}

// ProjectService assembles dashboard figures and applies form
// snapshots. Implementations cache read results briefly; any mutation
// through the service drops the affected project's cache entries.
type ProjectService interface {
	Resumen(proyectoID, userID int64) (*Resumen, error)
	Captacion(proyectoID, userID int64) (*CaptacionResumen, error)
	ApplyAutosave(proyectoID, userID int64, raw []byte) (*AutosaveResult, error)
	CambiarEstado(proyectoID, userID int64, estado, inversorEmail string) (string, error)
	InvalidateCache(proyectoID int64)
}
