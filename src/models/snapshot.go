package models

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// AutosavePayload is the form snapshot the sheet posts while the user
// types. Each group is a free map of field name to raw typed value;
// server-side parsing decides what each value means.
type AutosavePayload struct {
	Proyecto  map[string]json.RawMessage `json:"proyecto,omitempty"`
	Inmueble  map[string]json.RawMessage `json:"inmueble,omitempty"`
	KPIs      *KPIGroup                  `json:"kpis,omitempty"`
	Economico map[string]json.RawMessage `json:"economico,omitempty"`
	Inversor  map[string]json.RawMessage `json:"inversor,omitempty"`
}

// KPIGroup nests the metric overrides inside the kpis group.
type KPIGroup struct {
	Metricas map[string]json.RawMessage `json:"metricas,omitempty"`
}

// HasContent reports whether the payload carries anything worth saving.
func (p *AutosavePayload) HasContent() bool {
	if p == nil {
		return false
	}
	if len(p.Proyecto) > 0 || len(p.Inmueble) > 0 || len(p.Economico) > 0 || len(p.Inversor) > 0 {
		return true
	}
	return p.KPIs != nil && len(p.KPIs.Metricas) > 0
}

// SaveSnapshot stores the latest raw autosave body for a project,
// replacing any previous one. The raw JSON is kept as an audit trail of
// what the sheet last sent.
func SaveSnapshot(db *sql.DB, proyectoID int64, body []byte) error {
	_, err := db.Exec(`
		INSERT INTO proyecto_snapshots (proyecto_id, payload, saved_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(proyecto_id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		proyectoID, string(body))
	if err != nil {
		return fmt.Errorf("failed to save snapshot for proyecto %d: %w", proyectoID, err)
	}
	return nil
}

// GetSnapshot returns the last raw autosave body for a project, or nil
// when none has been saved yet.
func GetSnapshot(db *sql.DB, proyectoID int64) ([]byte, error) {
	var payload string
	err := db.QueryRow(`SELECT payload FROM proyecto_snapshots WHERE proyecto_id = ?`, proyectoID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot for proyecto %d: %w", proyectoID, err)
	}
	return []byte(payload), nil
}
