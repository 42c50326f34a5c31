package models

import (
	"database/sql"
	"fmt"
)

// Lifecycle states of a project. A project starts in Captacion while
// capital is raised, then moves through purchase and marketing to a
// closing state. Estudio predates the current pipeline and still exists
// on old rows.
const (
	EstadoEstudio          = "estudio"
	EstadoCaptacion        = "captacion"
	EstadoComprado         = "comprado"
	EstadoComercializacion = "comercializacion"
	EstadoReservado        = "reservado"
	EstadoVendido          = "vendido"
	EstadoCerrado          = "cerrado"
	EstadoDescartado       = "descartado"
)

// ValidEstados lists every accepted lifecycle value, old and new.
var ValidEstados = []string{
	EstadoEstudio, EstadoCaptacion, EstadoComprado, EstadoComercializacion,
	EstadoReservado, EstadoVendido, EstadoCerrado, EstadoDescartado,
}

// IsValidEstado reports whether s is a known lifecycle value.
func IsValidEstado(s string) bool {
	for _, e := range ValidEstados {
		if e == s {
			return true
		}
	}
	return false
}

// Proyecto is one investment operation: a property bought, reformed and
// resold, with its economics tracked through the expense and income
// ledgers.
type Proyecto struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"-"`
	Nombre    string `json:"nombre"`
	Estado    string `json:"estado"`
	Direccion string `json:"direccion"`

	// Figures typed directly on the sheet. Estimates drive the numbers
	// until the ledgers carry confirmed entries.
	PrecioCompra        sql.NullFloat64 `json:"precio_compra"`
	PrecioVentaPrevisto sql.NullFloat64 `json:"precio_venta_previsto"`
	ComisionPct         sql.NullFloat64 `json:"comision_pct"`

	// Third-party valuations; their average backs the expected sale price.
	Valoracion1 sql.NullFloat64 `json:"valoracion1"`
	Valoracion2 sql.NullFloat64 `json:"valoracion2"`
	Valoracion3 sql.NullFloat64 `json:"valoracion3"`

	// Capital raising figures.
	ObjetivoCaptacion sql.NullFloat64 `json:"objetivo_captacion"`
	CapitalCaptado    sql.NullFloat64 `json:"capital_captado"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// UsaEstimados reports whether this project's metrics come from typed
// estimates. Before purchase there is nothing confirmed in the ledgers,
// so estimates are authoritative; afterwards confirmed entries win.
func (p *Proyecto) UsaEstimados() bool {
	return p.Estado == EstadoEstudio || p.Estado == EstadoCaptacion
}

// CreateProyecto inserts p and fills in its ID.
func CreateProyecto(db *sql.DB, p *Proyecto) error {
	res, err := db.Exec(`
		INSERT INTO proyectos (user_id, nombre, estado, direccion,
			precio_compra, precio_venta_previsto, comision_pct,
			valoracion1, valoracion2, valoracion3,
			objetivo_captacion, capital_captado,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'), datetime('now'))`,
		p.UserID, p.Nombre, p.Estado, p.Direccion,
		p.PrecioCompra, p.PrecioVentaPrevisto, p.ComisionPct,
		p.Valoracion1, p.Valoracion2, p.Valoracion3,
		p.ObjetivoCaptacion, p.CapitalCaptado)
	if err != nil {
		return fmt.Errorf("failed to insert proyecto: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted proyecto id: %w", err)
	}
	p.ID = id
	return nil
}

// GetProyectoByID fetches one project owned by userID.
func GetProyectoByID(db *sql.DB, id, userID int64) (*Proyecto, error) {
	p := &Proyecto{}
	err := db.QueryRow(`
		SELECT id, user_id, nombre, estado, direccion,
			precio_compra, precio_venta_previsto, comision_pct,
			valoracion1, valoracion2, valoracion3,
			objetivo_captacion, capital_captado,
			created_at, updated_at
		FROM proyectos WHERE id = ? AND user_id = ?`, id, userID).Scan(
		&p.ID, &p.UserID, &p.Nombre, &p.Estado, &p.Direccion,
		&p.PrecioCompra, &p.PrecioVentaPrevisto, &p.ComisionPct,
		&p.Valoracion1, &p.Valoracion2, &p.Valoracion3,
		&p.ObjetivoCaptacion, &p.CapitalCaptado,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to query proyecto %d: %w", id, err)
	}
	return p, nil
}

// ListProyectosByUser returns every project owned by userID, newest first.
func ListProyectosByUser(db *sql.DB, userID int64) ([]Proyecto, error) {
	rows, err := db.Query(`
		SELECT id, user_id, nombre, estado, direccion,
			precio_compra, precio_venta_previsto, comision_pct,
			valoracion1, valoracion2, valoracion3,
			objetivo_captacion, capital_captado,
			created_at, updated_at
		FROM proyectos WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query proyectos for user %d: %w", userID, err)
	}
	defer rows.Close()

	var out []Proyecto
	for rows.Next() {
		var p Proyecto
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Nombre, &p.Estado, &p.Direccion,
			&p.PrecioCompra, &p.PrecioVentaPrevisto, &p.ComisionPct,
			&p.Valoracion1, &p.Valoracion2, &p.Valoracion3,
			&p.ObjetivoCaptacion, &p.CapitalCaptado,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan proyecto row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateProyecto writes every mutable column of p.
func UpdateProyecto(db *sql.DB, p *Proyecto) error {
	_, err := db.Exec(`
		UPDATE proyectos SET nombre = ?, estado = ?, direccion = ?,
			precio_compra = ?, precio_venta_previsto = ?, comision_pct = ?,
			valoracion1 = ?, valoracion2 = ?, valoracion3 = ?,
			objetivo_captacion = ?, capital_captado = ?,
			updated_at = datetime('now')
		WHERE id = ? AND user_id = ?`,
		p.Nombre, p.Estado, p.Direccion,
		p.PrecioCompra, p.PrecioVentaPrevisto, p.ComisionPct,
		p.Valoracion1, p.Valoracion2, p.Valoracion3,
		p.ObjetivoCaptacion, p.CapitalCaptado,
		p.ID, p.UserID)
	if err != nil {
		return fmt.Errorf("failed to update proyecto %d: %w", p.ID, err)
	}
	return nil
}

// UpdateProyectoEstado changes only the lifecycle state and returns the
// previous one, so callers can react to transitions.
func UpdateProyectoEstado(db *sql.DB, id, userID int64, estado string) (string, error) {
	var previous string
	err := db.QueryRow(`SELECT estado FROM proyectos WHERE id = ? AND user_id = ?`, id, userID).Scan(&previous)
	if err != nil {
		return "", err
	}
	_, err = db.Exec(`UPDATE proyectos SET estado = ?, updated_at = datetime('now') WHERE id = ? AND user_id = ?`,
		estado, id, userID)
	if err != nil {
		return "", fmt.Errorf("failed to update estado for proyecto %d: %w", id, err)
	}
	return previous, nil
}
