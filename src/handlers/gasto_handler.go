package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/username/inversure/backend/src/database"
	"github.com/username/inversure/backend/src/logger"
	"github.com/username/inversure/backend/src/models"
	"github.com/username/inversure/backend/src/numeric"
	"github.com/username/inversure/backend/src/security/validation"
	"github.com/username/inversure/backend/src/services"
	"github.com/username/inversure/backend/src/utils"
)

type GastoHandler struct {
	projectService services.ProjectService
}

func NewGastoHandler(projectService services.ProjectService) *GastoHandler {
	return &GastoHandler{projectService: projectService}
}

// gastoDTO is the wire shape of one expense line. Amounts travel as
// numbers; display formatting happens on the dashboard side.
type gastoDTO struct {
	ID                  int64   `json:"id"`
	Fecha               string  `json:"fecha"`
	Categoria           string  `json:"categoria"`
	Concepto            string  `json:"concepto"`
	Importe             float64 `json:"importe"`
	Estado              string  `json:"estado"`
	Pagado              bool    `json:"pagado"`
	FacturaURL          string  `json:"factura_url,omitempty"`
	HasFactura          bool    `json:"has_factura"`
	ImputableInversores bool    `json:"imputable_inversores"`
	Observaciones       string  `json:"observaciones"`
}

func gastoToDTO(g *models.Gasto) gastoDTO {
	dto := gastoDTO{
		ID:                  g.ID,
		Fecha:               g.Fecha,
		Categoria:           g.Categoria,
		Concepto:            g.Concepto,
		Importe:             g.Importe,
		Estado:              g.Estado,
		Pagado:              g.Pagado,
		HasFactura:          g.HasFactura(),
		ImputableInversores: g.ImputableInversores,
		Observaciones:       g.Observaciones,
	}
	if g.HasFactura() {
		dto.FacturaURL = fmt.Sprintf("/api/documentos/%d/descargar", g.DocumentoID.Int64)
	}
	return dto
}

// ownedProyectoID resolves the {proyectoID} path segment and checks the
// project belongs to the authenticated user.
func ownedProyectoID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := GetUserIDFromContext(r)
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	proyectoID, err := pathID(r, "proyectoID")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	if _, err := models.GetProyectoByID(database.DB, proyectoID, userID); err != nil {
		if err == sql.ErrNoRows {
			sendJSONError(w, "Proyecto not found", http.StatusNotFound)
		} else {
			logger.L.Error("Failed to load proyecto", "proyectoID", proyectoID, "error", err)
			sendJSONError(w, "Failed to load proyecto", http.StatusInternalServerError)
		}
		return 0, false
	}
	return proyectoID, true
}

func (h *GastoHandler) ListGastosHandler(w http.ResponseWriter, r *http.Request) {
	proyectoID, ok := ownedProyectoID(w, r)
	if !ok {
		return
	}

	gastos, err := models.ListGastosByProyecto(database.DB, proyectoID)
	if err != nil {
		logger.L.Error("Failed to list gastos", "proyectoID", proyectoID, "error", err)
		sendJSONError(w, "Failed to list gastos", http.StatusInternalServerError)
		return
	}

	dtos := make([]gastoDTO, 0, len(gastos))
	for i := range gastos {
		dtos = append(dtos, gastoToDTO(&gastos[i]))
	}
	utils.SendJSON(w, map[string]interface{}{"ok": true, "gastos": dtos}, http.StatusOK)
}

type gastoInput struct {
	Fecha               *string          `json:"fecha"`
	Categoria           *string          `json:"categoria"`
	Concepto            *string          `json:"concepto"`
	Importe             *json.RawMessage `json:"importe"`
	Estado              *string          `json:"estado"`
	Pagado              *bool            `json:"pagado"`
	ImputableInversores *bool            `json:"imputable_inversores"`
	Observaciones       *string          `json:"observaciones"`
}

// parseImporte accepts a JSON number or the raw text of an amount field.
func parseImporte(raw json.RawMessage) (float64, error) {
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if v, ok := numeric.ParseAmount(text); ok {
			return v, nil
		}
		return 0, fmt.Errorf("importe '%s' is not a valid amount", text)
	}
	return 0, fmt.Errorf("importe must be a number or a string")
}

func (h *GastoHandler) CreateGastoHandler(w http.ResponseWriter, r *http.Request) {
	// POST doubles as the override carrier for PATCH and DELETE on
	// clients that cannot send those verbs.
	switch effectiveMethod(r) {
	case http.MethodPatch:
		h.UpdateGastoHandler(w, r)
		return
	case http.MethodDelete:
		h.DeleteGastoHandler(w, r)
		return
	}

	proyectoID, ok := ownedProyectoID(w, r)
	if !ok {
		return
	}

	var input gastoInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.Categoria == nil {
		sendJSONError(w, "categoria is required", http.StatusBadRequest)
		return
	}
	categoria := validation.NormalizeToken(*input.Categoria)
	if !models.IsValidCategoria(categoria) {
		sendJSONError(w, fmt.Sprintf("categoria '%s' is not valid", categoria), http.StatusBadRequest)
		return
	}

	g := &models.Gasto{
		ProyectoID:          proyectoID,
		Fecha:               utils.TodayISO(),
		Categoria:           categoria,
		Estado:              models.EntradaEstimada,
		ImputableInversores: true,
	}
	if input.Fecha != nil {
		if _, err := utils.ParseISODate(*input.Fecha); err != nil {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		g.Fecha = *input.Fecha
	}
	if input.Concepto != nil {
		g.Concepto = validation.CleanFreeText(*input.Concepto)
	}
	if input.Importe != nil {
		v, err := parseImporte(*input.Importe)
		if err != nil {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		g.Importe = v
	}
	if input.Estado != nil {
		estado := validation.NormalizeToken(*input.Estado)
		if !models.IsValidEntradaEstado(estado) {
			sendJSONError(w, fmt.Sprintf("estado '%s' is not valid", estado), http.StatusBadRequest)
			return
		}
		g.Estado = estado
	}
	if input.Pagado != nil {
		g.Pagado = *input.Pagado
	}
	if input.ImputableInversores != nil {
		g.ImputableInversores = *input.ImputableInversores
	}
	if input.Observaciones != nil {
		g.Observaciones = validation.CleanFreeText(*input.Observaciones)
	}

	if err := models.CreateGasto(database.DB, g); err != nil {
		logger.L.Error("Failed to create gasto", "proyectoID", proyectoID, "error", err)
		sendJSONError(w, "Failed to create gasto", http.StatusInternalServerError)
		return
	}
	h.projectService.InvalidateCache(proyectoID)

	utils.SendJSON(w, map[string]interface{}{"ok": true, "gasto": gastoToDTO(g)}, http.StatusCreated)
}

func (h *GastoHandler) UpdateGastoHandler(w http.ResponseWriter, r *http.Request) {
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

	var input gastoInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if input.Fecha != nil {
		if _, err := utils.ParseISODate(*input.Fecha); err != nil {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		g.Fecha = *input.Fecha
	}
	if input.Categoria != nil {
		categoria := validation.NormalizeToken(*input.Categoria)
		if !models.IsValidCategoria(categoria) {
			sendJSONError(w, fmt.Sprintf("categoria '%s' is not valid", categoria), http.StatusBadRequest)
			return
		}
		g.Categoria = categoria
	}
	if input.Concepto != nil {
		g.Concepto = validation.CleanFreeText(*input.Concepto)
	}
	if input.Importe != nil {
		v, err := parseImporte(*input.Importe)
		if err != nil {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		g.Importe = v
	}
	if input.Estado != nil {
		estado := validation.NormalizeToken(*input.Estado)
		if !models.IsValidEntradaEstado(estado) {
			sendJSONError(w, fmt.Sprintf("estado '%s' is not valid", estado), http.StatusBadRequest)
			return
		}
		// Confirming without a final amount would freeze the estimate
		// as if it were real.
		if estado == models.EntradaConfirmada && g.Estado == models.EntradaEstimada && input.Importe == nil {
			sendJSONError(w, "confirming a gasto requires its final importe", http.StatusBadRequest)
			return
		}
		g.Estado = estado
	}
	if input.Pagado != nil {
		g.Pagado = *input.Pagado
	}
	if input.ImputableInversores != nil {
		g.ImputableInversores = *input.ImputableInversores
	}
	if input.Observaciones != nil {
		g.Observaciones = validation.CleanFreeText(*input.Observaciones)
	}

	if err := models.UpdateGasto(database.DB, g); err != nil {
		logger.L.Error("Failed to update gasto", "gastoID", gastoID, "error", err)
		sendJSONError(w, "Failed to update gasto", http.StatusInternalServerError)
		return
	}
	h.projectService.InvalidateCache(proyectoID)

	utils.SendJSON(w, map[string]interface{}{"ok": true, "gasto": gastoToDTO(g)}, http.StatusOK)
}

func (h *GastoHandler) DeleteGastoHandler(w http.ResponseWriter, r *http.Request) {
	proyectoID, ok := ownedProyectoID(w, r)
	if !ok {
		return
	}
	gastoID, err := pathID(r, "gastoID")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := models.DeleteGasto(database.DB, gastoID, proyectoID); err != nil {
		if err == sql.ErrNoRows {
			sendJSONError(w, "Gasto not found", http.StatusNotFound)
		} else {
			logger.L.Error("Failed to delete gasto", "gastoID", gastoID, "error", err)
			sendJSONError(w, "Failed to delete gasto", http.StatusInternalServerError)
		}
		return
	}
	h.projectService.InvalidateCache(proyectoID)

	utils.SendJSON(w, map[string]interface{}{"ok": true}, http.StatusOK)
}
