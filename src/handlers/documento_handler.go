package handlers

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/username/inversure/backend/src/config"
	"github.com/username/inversure/backend/src/database"
	"github.com/username/inversure/backend/src/logger"
	"github.com/username/inversure/backend/src/models"
	"github.com/username/inversure/backend/src/security/validation"
	"github.com/username/inversure/backend/src/services"
	"github.com/username/inversure/backend/src/utils"
)

type DocumentoHandler struct {
	projectService services.ProjectService
	storagePath    string
}

func NewDocumentoHandler(projectService services.ProjectService, storagePath string) *DocumentoHandler {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		logger.L.Error("Failed to create document storage directory", "path", storagePath, "error", err)
	}
	return &DocumentoHandler{projectService: projectService, storagePath: storagePath}
}

// AttachFacturaHandler links an invoice to an expense line. The request
// either uploads a new file in the "factura" multipart field or
// references an already uploaded one with a documento_id form value.
func (h *DocumentoHandler) AttachFacturaHandler(w http.ResponseWriter, r *http.Request) {
	proyectoID, ok := ownedProyectoID(w, r)
	if !ok {
		return
	}
	gastoID, err := pathID(r, "gastoID")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	g, err := models.GetGastoByID(database.DB, gastoID, proyectoID)
	if err != nil {
		if err == sql.ErrNoRows {
			sendJSONError(w, "Gasto not found", http.StatusNotFound)
		} else {
			logger.L.Error("Failed to load gasto", "gastoID", gastoID, "error", err)
			sendJSONError(w, "Failed to load gasto", http.StatusInternalServerError)
		}
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.Cfg.MaxUploadSizeBytes)
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		sendJSONError(w, "Invalid multipart form or file too large", http.StatusBadRequest)
		return
	}

	var doc *models.Documento

	if idStr := r.FormValue("documento_id"); idStr != "" {
		docID, convErr := strconv.ParseInt(idStr, 10, 64)
		if convErr != nil || docID <= 0 {
			sendJSONError(w, "Invalid documento_id", http.StatusBadRequest)
			return
		}
		doc, err = models.GetDocumentoByID(database.DB, docID, proyectoID)
		if err != nil {
			if err == sql.ErrNoRows {
				sendJSONError(w, "Documento not found", http.StatusNotFound)
			} else {
				logger.L.Error("Failed to load documento", "documentoID", docID, "error", err)
				sendJSONError(w, "Failed to load documento", http.StatusInternalServerError)
			}
			return
		}
	} else {
		doc, err = h.storeUploadedFactura(r, proyectoID)
		if err != nil {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	g.DocumentoID = sql.NullInt64{Int64: doc.ID, Valid: true}
	if err := models.UpdateGasto(database.DB, g); err != nil {
		logger.L.Error("Failed to attach factura", "gastoID", gastoID, "error", err)
		sendJSONError(w, "Failed to attach factura", http.StatusInternalServerError)
		return
	}
	h.projectService.InvalidateCache(proyectoID)

	utils.SendJSON(w, map[string]interface{}{
		"ok":          true,
		"documento":   doc,
		"factura_url": doc.URL(),
	}, http.StatusOK)
}

func (h *DocumentoHandler) storeUploadedFactura(r *http.Request, proyectoID int64) (*models.Documento, error) {
	file, header, err := r.FormFile("factura")
	if err != nil {
		return nil, fmt.Errorf("a factura file or documento_id is required")
	}
	defer file.Close()

	if err := validation.ValidateClientContentType(header.Header.Get("Content-Type")); err != nil {
		return nil, err
	}
	detectedType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		return nil, err
	}

	storedName := uuid.New().String() + filepath.Ext(header.Filename)
	fullPath := filepath.Join(h.storagePath, storedName)

	dst, err := os.Create(fullPath)
	if err != nil {
		logger.L.Error("Failed to create stored factura file", "path", fullPath, "error", err)
		return nil, fmt.Errorf("failed to store factura")
	}
	defer dst.Close()

	size, err := io.Copy(dst, file)
	if err != nil {
		os.Remove(fullPath)
		logger.L.Error("Failed to write stored factura file", "path", fullPath, "error", err)
		return nil, fmt.Errorf("failed to store factura")
	}

	doc := &models.Documento{
		ProyectoID:  proyectoID,
		Nombre:      validation.CleanFreeText(header.Filename),
		StoragePath: fullPath,
		ContentType: detectedType,
		SizeBytes:   size,
	}
	if err := models.CreateDocumento(database.DB, doc); err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("failed to record factura")
	}

	logger.L.Info("Factura stored", "documentoID", doc.ID, "proyectoID", proyectoID, "size", size)
	return doc, nil
}

// DetachFacturaHandler unlinks the invoice from an expense line. The
// stored document itself is kept; other lines may reference it.
func (h *DocumentoHandler) DetachFacturaHandler(w http.ResponseWriter, r *http.Request) {
	proyectoID, ok := ownedProyectoID(w, r)
	if !ok {
		return
	}
	gastoID, err := pathID(r, "gastoID")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	g, err := models.GetGastoByID(database.DB, gastoID, proyectoID)
	if err != nil {
		if err == sql.ErrNoRows {
			sendJSONError(w, "Gasto not found", http.StatusNotFound)
		} else {
			sendJSONError(w, "Failed to load gasto", http.StatusInternalServerError)
		}
		return
	}

	g.DocumentoID = sql.NullInt64{}
	if err := models.UpdateGasto(database.DB, g); err != nil {
		logger.L.Error("Failed to detach factura", "gastoID", gastoID, "error", err)
		sendJSONError(w, "Failed to detach factura", http.StatusInternalServerError)
		return
	}
	h.projectService.InvalidateCache(proyectoID)

	utils.SendJSON(w, map[string]interface{}{"ok": true}, http.StatusOK)
}

// DescargarHandler streams a stored document back to the browser.
func (h *DocumentoHandler) DescargarHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r)
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	docID, err := pathID(r, "documentoID")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The document must hang off a project the requester owns.
	var doc *models.Documento
	proyectos, err := models.ListProyectosByUser(database.DB, userID)
	if err != nil {
		sendJSONError(w, "Failed to load documento", http.StatusInternalServerError)
		return
	}
	for i := range proyectos {
		if d, derr := models.GetDocumentoByID(database.DB, docID, proyectos[i].ID); derr == nil {
			doc = d
			break
		}
	}
	if doc == nil {
		sendJSONError(w, "Documento not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.Nombre))
	http.ServeFile(w, r, doc.StoragePath)
}
