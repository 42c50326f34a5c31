package models

import (
	"database/sql"
	"fmt"
)

// Documento is an uploaded file, usually an invoice, stored on disk and
// referenced from ledger entries.
type Documento struct {
	ID          int64  `json:"id"`
	ProyectoID  int64  `json:"-"`
	Nombre      string `json:"nombre"`
	StoragePath string `json:"-"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	UploadedAt  string `json:"uploaded_at"`
}

// URL is the public download path for the document.
func (d *Documento) URL() string {
	return fmt.Sprintf("/api/documentos/%d/descargar", d.ID)
}

// CreateDocumento inserts d and fills in its ID.
func CreateDocumento(db *sql.DB, d *Documento) error {
	res, err := db.Exec(`
		INSERT INTO documentos (proyecto_id, nombre, storage_path, content_type, size_bytes, uploaded_at)
		VALUES (?, ?, ?, ?, ?, datetime('now'))`,
		d.ProyectoID, d.Nombre, d.StoragePath, d.ContentType, d.SizeBytes)
	if err != nil {
		return fmt.Errorf("failed to insert documento: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted documento id: %w", err)
	}
	d.ID = id
	return nil
}

// GetDocumentoByID fetches one document, scoped to its project.
func GetDocumentoByID(db *sql.DB, id, proyectoID int64) (*Documento, error) {
	d := &Documento{}
	err := db.QueryRow(`
		SELECT id, proyecto_id, nombre, storage_path, content_type, size_bytes, uploaded_at
		FROM documentos WHERE id = ? AND proyecto_id = ?`, id, proyectoID).Scan(
		&d.ID, &d.ProyectoID, &d.Nombre, &d.StoragePath, &d.ContentType, &d.SizeBytes, &d.UploadedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}
