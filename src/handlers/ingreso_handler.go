package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/username/inversure/backend/src/database"
	"github.com/username/inversure/backend/src/logger"
	"github.com/username/inversure/backend/src/models"
	"github.com/username/inversure/backend/src/security/validation"
	"github.com/username/inversure/backend/src/services"
	"github.com/username/inversure/backend/src/utils"
)

type IngresoHandler struct {
	projectService services.ProjectService
}

func NewIngresoHandler(projectService services.ProjectService) *IngresoHandler {
	return &IngresoHandler{projectService: projectService}
}

type ingresoInput struct {
	Fecha         *string          `json:"fecha"`
	Tipo          *string          `json:"tipo"`
	Concepto      *string          `json:"concepto"`
	Importe       *json.RawMessage `json:"importe"`
	Estado        *string          `json:"estado"`
	Observaciones *string          `json:"observaciones"`
}

func (h *IngresoHandler) ListIngresosHandler(w http.ResponseWriter, r *http.Request) {
	proyectoID, ok := ownedProyectoID(w, r)
	if !ok {
		return
	}

	ingresos, err := models.ListIngresosByProyecto(database.DB, proyectoID)
	if err != nil {
		logger.L.Error("Failed to list ingresos", "proyectoID", proyectoID, "error", err)
		sendJSONError(w, "Failed to list ingresos", http.StatusInternalServerError)
		return
	}
	if ingresos == nil {
		ingresos = []models.Ingreso{}
	}
	utils.SendJSON(w, map[string]interface{}{"ok": true, "ingresos": ingresos}, http.StatusOK)
}

func (h *IngresoHandler) CreateIngresoHandler(w http.ResponseWriter, r *http.Request) {
	switch effectiveMethod(r) {
	case http.MethodPatch:
		h.UpdateIngresoHandler(w, r)
		return
	case http.MethodDelete:
		h.DeleteIngresoHandler(w, r)
		return
	}

	proyectoID, ok := ownedProyectoID(w, r)
	if !ok {
		return
	}

	var input ingresoInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.Tipo == nil {
		sendJSONError(w, "tipo is required", http.StatusBadRequest)
		return
	}
	tipo := validation.NormalizeToken(*input.Tipo)
	if !models.IsValidTipo(tipo) {
		sendJSONError(w, fmt.Sprintf("tipo '%s' is not valid", tipo), http.StatusBadRequest)
		return
	}

	in := &models.Ingreso{
		ProyectoID: proyectoID,
		Fecha:      utils.TodayISO(),
		Tipo:       tipo,
		Estado:     models.EntradaEstimada,
	}
	if input.Fecha != nil {
		if _, err := utils.ParseISODate(*input.Fecha); err != nil {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		in.Fecha = *input.Fecha
	}
	if input.Concepto != nil {
		in.Concepto = validation.CleanFreeText(*input.Concepto)
	}
	if input.Importe != nil {
		v, err := parseImporte(*input.Importe)
		if err != nil {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		in.Importe = v
	}
	if input.Estado != nil {
		estado := validation.NormalizeToken(*input.Estado)
		if !models.IsValidEntradaEstado(estado) {
			sendJSONError(w, fmt.Sprintf("estado '%s' is not valid", estado), http.StatusBadRequest)
			return
		}
		in.Estado = estado
	}
	if input.Observaciones != nil {
		in.Observaciones = validation.CleanFreeText(*input.Observaciones)
	}

	if err := models.CreateIngreso(database.DB, in); err != nil {
		logger.L.Error("Failed to create ingreso", "proyectoID", proyectoID, "error", err)
		sendJSONError(w, "Failed to create ingreso", http.StatusInternalServerError)
		return
	}
	h.projectService.InvalidateCache(proyectoID)

	utils.SendJSON(w, map[string]interface{}{"ok": true, "ingreso": in}, http.StatusCreated)
}

func (h *IngresoHandler) UpdateIngresoHandler(w http.ResponseWriter, r *http.Request) {
	proyectoID, ok := ownedProyectoID(w, r)
	if !ok {
		return
	}
	ingresoID, err := pathID(r, "ingresoID")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	in, err := models.GetIngresoByID(database.DB, ingresoID, proyectoID)
	if err != nil {
		if err == sql.ErrNoRows {
			sendJSONError(w, "Ingreso not found", http.StatusNotFound)
		} else {
			logger.L.Error("Failed to load ingreso", "ingresoID", ingresoID, "error", err)
			sendJSONError(w, "Failed to load ingreso", http.StatusInternalServerError)
		}
		return
	}

	var input ingresoInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if input.Fecha != nil {
		if _, err := utils.ParseISODate(*input.Fecha); err != nil {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		in.Fecha = *input.Fecha
	}
	if input.Tipo != nil {
		tipo := validation.NormalizeToken(*input.Tipo)
		if !models.IsValidTipo(tipo) {
			sendJSONError(w, fmt.Sprintf("tipo '%s' is not valid", tipo), http.StatusBadRequest)
			return
		}
		in.Tipo = tipo
	}
	if input.Concepto != nil {
		in.Concepto = validation.CleanFreeText(*input.Concepto)
	}
	if input.Importe != nil {
		v, err := parseImporte(*input.Importe)
		if err != nil {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		in.Importe = v
	}
	if input.Estado != nil {
		estado := validation.NormalizeToken(*input.Estado)
		if !models.IsValidEntradaEstado(estado) {
			sendJSONError(w, fmt.Sprintf("estado '%s' is not valid", estado), http.StatusBadRequest)
			return
		}
		if estado == models.EntradaConfirmada && in.Estado == models.EntradaEstimada && input.Importe == nil {
			sendJSONError(w, "confirming an ingreso requires its final importe", http.StatusBadRequest)
			return
		}
		in.Estado = estado
	}
	if input.Observaciones != nil {
		in.Observaciones = validation.CleanFreeText(*input.Observaciones)
	}

	if err := models.UpdateIngreso(database.DB, in); err != nil {
		logger.L.Error("Failed to update ingreso", "ingresoID", ingresoID, "error", err)
		sendJSONError(w, "Failed to update ingreso", http.StatusInternalServerError)
		return
	}
	h.projectService.InvalidateCache(proyectoID)

	utils.SendJSON(w, map[string]interface{}{"ok": true, "ingreso": in}, http.StatusOK)
}

func (h *IngresoHandler) DeleteIngresoHandler(w http.ResponseWriter, r *http.Request) {
	proyectoID, ok := ownedProyectoID(w, r)
	if !ok {
		return
	}
	ingresoID, err := pathID(r, "ingresoID")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := models.DeleteIngreso(database.DB, ingresoID, proyectoID); err != nil {
		if err == sql.ErrNoRows {
			sendJSONError(w, "Ingreso not found", http.StatusNotFound)
		} else {
			logger.L.Error("Failed to delete ingreso", "ingresoID", ingresoID, "error", err)
			sendJSONError(w, "Failed to delete ingreso", http.StatusInternalServerError)
		}
		return
	}
	h.projectService.InvalidateCache(proyectoID)

	utils.SendJSON(w, map[string]interface{}{"ok": true}, http.StatusOK)
}
