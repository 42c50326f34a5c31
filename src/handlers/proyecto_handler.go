package handlers

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"

	"github.com/username/inversure/backend/src/database"
	"github.com/username/inversure/backend/src/logger"
	"github.com/username/inversure/backend/src/models"
	"github.com/username/inversure/backend/src/security/validation"
	"github.com/username/inversure/backend/src/services"
	"github.com/username/inversure/backend/src/utils"
)

// Autosave bodies are small JSON snapshots; anything past this is not a
// form.
const maxAutosaveBodyBytes = 1 << 20

type ProyectoHandler struct {
	projectService services.ProjectService
}

func NewProyectoHandler(projectService services.ProjectService) *ProyectoHandler {
	return &ProyectoHandler{projectService: projectService}
}

func (h *ProyectoHandler) ListProyectosHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r)
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	proyectos, err := models.ListProyectosByUser(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list proyectos", "userID", userID, "error", err)
		sendJSONError(w, "Failed to list proyectos", http.StatusInternalServerError)
		return
	}
	if proyectos == nil {
		proyectos = []models.Proyecto{}
	}
	utils.SendJSON(w, map[string]interface{}{"ok": true, "proyectos": proyectos}, http.StatusOK)
}

func (h *ProyectoHandler) CreateProyectoHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r)
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		Nombre    string `json:"nombre"`
		Direccion string `json:"direccion"`
		Estado    string `json:"estado"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	input.Nombre = validation.CleanFreeText(input.Nombre)
	if input.Nombre == "" {
		sendJSONError(w, "nombre is required", http.StatusBadRequest)
		return
	}

	estado := models.EstadoCaptacion
	if input.Estado != "" {
		estado = validation.NormalizeToken(input.Estado)
		if !models.IsValidEstado(estado) {
			sendJSONError(w, "estado is not a valid lifecycle state", http.StatusBadRequest)
			return
		}
	}

	p := &models.Proyecto{
		UserID:    userID,
		Nombre:    input.Nombre,
		Estado:    estado,
		Direccion: validation.CleanFreeText(input.Direccion),
	}
	if err := models.CreateProyecto(database.DB, p); err != nil {
		logger.L.Error("Failed to create proyecto", "userID", userID, "error", err)
		sendJSONError(w, "Failed to create proyecto", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Proyecto created", "proyectoID", p.ID, "userID", userID)
	utils.SendJSON(w, map[string]interface{}{"ok": true, "proyecto": p}, http.StatusCreated)
}

// GuardarHandler is the autosave endpoint. The sheet posts a wrapped
// form snapshot; the response says whether anything was persisted.
func (h *ProyectoHandler) GuardarHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r)
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	proyectoID, err := pathID(r, "proyectoID")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxAutosaveBodyBytes))
	if err != nil {
		sendJSONError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	result, err := h.projectService.ApplyAutosave(proyectoID, userID, body)
	if err != nil {
		if err == sql.ErrNoRows {
			sendJSONError(w, "Proyecto not found", http.StatusNotFound)
			return
		}
		logger.L.Warn("Autosave rejected", "proyectoID", proyectoID, "error", err)
		sendJSONError(w, "Failed to apply autosave", http.StatusBadRequest)
		return
	}

	utils.SendJSON(w, map[string]interface{}{"ok": true, "saved": result.Saved, "campos_aplicados": result.CamposAplicados}, http.StatusOK)
}

// SnapshotHandler returns the last saved form snapshot so a reloading
// sheet can restore itself. An empty object comes back when the
// project has never autosaved.
func (h *ProyectoHandler) SnapshotHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r)
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	proyectoID, err := pathID(r, "proyectoID")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := models.GetProyectoByID(database.DB, proyectoID, userID); err != nil {
		if err == sql.ErrNoRows {
			sendJSONError(w, "Proyecto not found", http.StatusNotFound)
		} else {
			sendJSONError(w, "Failed to load proyecto", http.StatusInternalServerError)
		}
		return
	}

	raw, err := models.GetSnapshot(database.DB, proyectoID)
	if err != nil {
		logger.L.Error("Failed to load snapshot", "proyectoID", proyectoID, "error", err)
		sendJSONError(w, "Failed to load snapshot", http.StatusInternalServerError)
		return
	}
	if raw == nil {
		raw = []byte("{}")
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

// ResumenHandler returns the derived dashboard figures. The response
// carries an ETag; a matching If-None-Match short-circuits to 304 so a
// polling sheet only repaints on change.
func (h *ProyectoHandler) ResumenHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r)
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	proyectoID, err := pathID(r, "proyectoID")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	resumen, err := h.projectService.Resumen(proyectoID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			sendJSONError(w, "Proyecto not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to build resumen", "proyectoID", proyectoID, "error", err)
		sendJSONError(w, "Failed to build resumen", http.StatusInternalServerError)
		return
	}

	etag, err := utils.GenerateETag(resumen)
	if err == nil {
		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}

	utils.SendJSON(w, map[string]interface{}{"ok": true, "resumen": resumen}, http.StatusOK)
}

func (h *ProyectoHandler) CaptacionHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r)
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	proyectoID, err := pathID(r, "proyectoID")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	captacion, err := h.projectService.Captacion(proyectoID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			sendJSONError(w, "Proyecto not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to build captacion", "proyectoID", proyectoID, "error", err)
		sendJSONError(w, "Failed to build captacion", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]interface{}{"ok": true, "captacion": captacion}, http.StatusOK)
}

func (h *ProyectoHandler) CambiarEstadoHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r)
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	proyectoID, err := pathID(r, "proyectoID")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var input struct {
		Estado        string `json:"estado"`
		InversorEmail string `json:"inversor_email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	previo, err := h.projectService.CambiarEstado(proyectoID, userID, input.Estado, input.InversorEmail)
	if err != nil {
		if err == sql.ErrNoRows {
			sendJSONError(w, "Proyecto not found", http.StatusNotFound)
			return
		}
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	utils.SendJSON(w, map[string]interface{}{"ok": true, "estado_anterior": previo}, http.StatusOK)
}
