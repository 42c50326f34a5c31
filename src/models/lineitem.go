package models

import (
	"database/sql"
	"fmt"
)

// Ledger entry states. Every entry starts as an estimate; confirming it
// fixes the final amount.
const (
	EntradaEstimada   = "estimado"
	EntradaConfirmada = "confirmado"
)

// Expense categories for the acquisition side of a project.
const (
	CategoriaAdquisicion = "adquisicion"
	CategoriaReforma     = "reforma"
	CategoriaSeguridad   = "seguridad"
	CategoriaOperativos  = "operativos"
	CategoriaFinancieros = "financieros"
	CategoriaLegales     = "legales"
	CategoriaOtros       = "otros"
	// CategoriaVenta marks selling costs; they reduce the transmission
	// value instead of adding to the acquisition value.
	CategoriaVenta = "venta"
)

// ValidCategorias lists the accepted expense categories.
var ValidCategorias = []string{
	CategoriaAdquisicion, CategoriaReforma, CategoriaSeguridad,
	CategoriaOperativos, CategoriaFinancieros, CategoriaLegales,
	CategoriaOtros, CategoriaVenta,
}

// Income types.
const (
	TipoSenal         = "senal"
	TipoVenta         = "venta"
	TipoAnticipo      = "anticipo"
	TipoDevolucion    = "devolucion"
	TipoIndemnizacion = "indemnizacion"
	TipoOtro          = "otro"
)

// ValidTipos lists the accepted income types.
var ValidTipos = []string{
	TipoSenal, TipoVenta, TipoAnticipo, TipoDevolucion, TipoIndemnizacion, TipoOtro,
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidCategoria reports whether s is a known expense category.
func IsValidCategoria(s string) bool { return contains(ValidCategorias, s) }

// IsValidTipo reports whether s is a known income type.
func IsValidTipo(s string) bool { return contains(ValidTipos, s) }

// IsValidEntradaEstado reports whether s is a known ledger entry state.
func IsValidEntradaEstado(s string) bool {
	return s == EntradaEstimada || s == EntradaConfirmada
}

// Gasto is one expense line of a project ledger.
type Gasto struct {
	ID                  int64         `json:"id"`
	ProyectoID          int64         `json:"-"`
	Fecha               string        `json:"fecha"`
	Categoria           string        `json:"categoria"`
	Concepto            string        `json:"concepto"`
	Importe             float64       `json:"importe"`
	Estado              string        `json:"estado"`
	Pagado              bool          `json:"pagado"`
	DocumentoID         sql.NullInt64 `json:"-"`
	ImputableInversores bool          `json:"imputable_inversores"`
	Observaciones       string        `json:"observaciones"`
}

// HasFactura reports whether an invoice document is attached.
func (g *Gasto) HasFactura() bool { return g.DocumentoID.Valid }

// Ingreso is one income line of a project ledger.
type Ingreso struct {
	ID            int64   `json:"id"`
	ProyectoID    int64   `json:"-"`
	Fecha         string  `json:"fecha"`
	Tipo          string  `json:"tipo"`
	Concepto      string  `json:"concepto"`
	Importe       float64 `json:"importe"`
	Estado        string  `json:"estado"`
	Observaciones string  `json:"observaciones"`
}

// CreateGasto inserts g and fills in its ID.
func CreateGasto(db *sql.DB, g *Gasto) error {
	res, err := db.Exec(`
		INSERT INTO gastos (proyecto_id, fecha, categoria, concepto, importe,
			estado, pagado, documento_id, imputable_inversores, observaciones)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ProyectoID, g.Fecha, g.Categoria, g.Concepto, g.Importe,
		g.Estado, g.Pagado, g.DocumentoID, g.ImputableInversores, g.Observaciones)
	if err != nil {
		return fmt.Errorf("failed to insert gasto: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted gasto id: %w", err)
	}
	g.ID = id
	return nil
}

// GetGastoByID fetches one expense line, scoped to its project.
func GetGastoByID(db *sql.DB, id, proyectoID int64) (*Gasto, error) {
	g := &Gasto{}
	err := db.QueryRow(`
		SELECT id, proyecto_id, fecha, categoria, concepto, importe,
			estado, pagado, documento_id, imputable_inversores, observaciones
		FROM gastos WHERE id = ? AND proyecto_id = ?`, id, proyectoID).Scan(
		&g.ID, &g.ProyectoID, &g.Fecha, &g.Categoria, &g.Concepto, &g.Importe,
		&g.Estado, &g.Pagado, &g.DocumentoID, &g.ImputableInversores, &g.Observaciones)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ListGastosByProyecto returns the project's expenses ordered by date.
func ListGastosByProyecto(db *sql.DB, proyectoID int64) ([]Gasto, error) {
	rows, err := db.Query(`
		SELECT id, proyecto_id, fecha, categoria, concepto, importe,
			estado, pagado, documento_id, imputable_inversores, observaciones
		FROM gastos WHERE proyecto_id = ? ORDER BY fecha, id`, proyectoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query gastos for proyecto %d: %w", proyectoID, err)
	}
	defer rows.Close()

	var out []Gasto
	for rows.Next() {
		var g Gasto
		if err := rows.Scan(
			&g.ID, &g.ProyectoID, &g.Fecha, &g.Categoria, &g.Concepto, &g.Importe,
			&g.Estado, &g.Pagado, &g.DocumentoID, &g.ImputableInversores, &g.Observaciones); err != nil {
			return nil, fmt.Errorf("failed to scan gasto row: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// UpdateGasto writes every mutable column of g.
func UpdateGasto(db *sql.DB, g *Gasto) error {
	_, err := db.Exec(`
		UPDATE gastos SET fecha = ?, categoria = ?, concepto = ?, importe = ?,
			estado = ?, pagado = ?, documento_id = ?, imputable_inversores = ?,
			observaciones = ?
		WHERE id = ? AND proyecto_id = ?`,
		g.Fecha, g.Categoria, g.Concepto, g.Importe,
		g.Estado, g.Pagado, g.DocumentoID, g.ImputableInversores,
		g.Observaciones, g.ID, g.ProyectoID)
	if err != nil {
		return fmt.Errorf("failed to update gasto %d: %w", g.ID, err)
	}
	return nil
}

// DeleteGasto removes one expense line.
func DeleteGasto(db *sql.DB, id, proyectoID int64) error {
	res, err := db.Exec(`DELETE FROM gastos WHERE id = ? AND proyecto_id = ?`, id, proyectoID)
	if err != nil {
		return fmt.Errorf("failed to delete gasto %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateIngreso inserts in and fills in its ID.
func CreateIngreso(db *sql.DB, in *Ingreso) error {
	res, err := db.Exec(`
		INSERT INTO ingresos (proyecto_id, fecha, tipo, concepto, importe, estado, observaciones)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ProyectoID, in.Fecha, in.Tipo, in.Concepto, in.Importe, in.Estado, in.Observaciones)
	if err != nil {
		return fmt.Errorf("failed to insert ingreso: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted ingreso id: %w", err)
	}
	in.ID = id
	return nil
}

// GetIngresoByID fetches one income line, scoped to its project.
func GetIngresoByID(db *sql.DB, id, proyectoID int64) (*Ingreso, error) {
	in := &Ingreso{}
	err := db.QueryRow(`
		SELECT id, proyecto_id, fecha, tipo, concepto, importe, estado, observaciones
		FROM ingresos WHERE id = ? AND proyecto_id = ?`, id, proyectoID).Scan(
		&in.ID, &in.ProyectoID, &in.Fecha, &in.Tipo, &in.Concepto, &in.Importe, &in.Estado, &in.Observaciones)
	if err != nil {
		return nil, err
	}
	return in, nil
}

// ListIngresosByProyecto returns the project's income lines ordered by date.
func ListIngresosByProyecto(db *sql.DB, proyectoID int64) ([]Ingreso, error) {
	rows, err := db.Query(`
		SELECT id, proyecto_id, fecha, tipo, concepto, importe, estado, observaciones
		FROM ingresos WHERE proyecto_id = ? ORDER BY fecha, id`, proyectoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingresos for proyecto %d: %w", proyectoID, err)
	}
	defer rows.Close()

	var out []Ingreso
	for rows.Next() {
		var in Ingreso
		if err := rows.Scan(
			&in.ID, &in.ProyectoID, &in.Fecha, &in.Tipo, &in.Concepto,
			&in.Importe, &in.Estado, &in.Observaciones); err != nil {
			return nil, fmt.Errorf("failed to scan ingreso row: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// UpdateIngreso writes every mutable column of in.
func UpdateIngreso(db *sql.DB, in *Ingreso) error {
	_, err := db.Exec(`
		UPDATE ingresos SET fecha = ?, tipo = ?, concepto = ?, importe = ?,
			estado = ?, observaciones = ?
		WHERE id = ? AND proyecto_id = ?`,
		in.Fecha, in.Tipo, in.Concepto, in.Importe, in.Estado, in.Observaciones,
		in.ID, in.ProyectoID)
	if err != nil {
		return fmt.Errorf("failed to update ingreso %d: %w", in.ID, err)
	}
	return nil
}

// DeleteIngreso removes one income line.
func DeleteIngreso(db *sql.DB, id, proyectoID int64) error {
	res, err := db.Exec(`DELETE FROM ingresos WHERE id = ? AND proyecto_id = ?`, id, proyectoID)
	if err != nil {
		return fmt.Errorf("failed to delete ingreso %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
