package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/inversure/backend/src/database"
	"github.com/username/inversure/backend/src/models"
	"github.com/username/inversure/backend/src/processors"
	"github.com/username/inversure/backend/src/services"
)

func newProyectoHandler(t *testing.T) *ProyectoHandler {
	t.Helper()
	svc := services.NewProjectService(database.DB, processors.DefaultPolicy(), &services.MockEmailService{})
	return NewProyectoHandler(svc)
}

func TestGuardarAppliesSnapshot(t *testing.T) {
	h := newProyectoHandler(t)
	const userID = 301
	p := createTestProyecto(t, userID)
	pid := strconv.FormatInt(p.ID, 10)

	body := `{"payload":{"economico":{"precio_compra":"150.000,00 €","precio_venta_previsto":"200.000,00 €"}}}`
	r := authedRequest(http.MethodPost, "/api/proyectos/"+pid+"/guardar", body, userID)
	r.SetPathValue("proyectoID", pid)
	w := httptest.NewRecorder()
	h.GuardarHandler(w, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"saved":true`)

	updated, err := models.GetProyectoByID(database.DB, p.ID, userID)
	require.NoError(t, err)
	require.True(t, updated.PrecioCompra.Valid)
	assert.InDelta(t, 150000.0, updated.PrecioCompra.Float64, 1e-9)

	// The raw body is retrievable for form restore.
	r = authedRequest(http.MethodGet, "/api/proyectos/"+pid+"/snapshot", "", userID)
	r.SetPathValue("proyectoID", pid)
	w = httptest.NewRecorder()
	h.SnapshotHandler(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, body, w.Body.String())
}

func TestGuardarEmptySnapshotIsNoop(t *testing.T) {
	h := newProyectoHandler(t)
	const userID = 302
	p := createTestProyecto(t, userID)
	pid := strconv.FormatInt(p.ID, 10)

	r := authedRequest(http.MethodPost, "/api/proyectos/"+pid+"/guardar", `{"payload":{}}`, userID)
	r.SetPathValue("proyectoID", pid)
	w := httptest.NewRecorder()
	h.GuardarHandler(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"saved":false`)
}

func TestResumenETagRoundTrip(t *testing.T) {
	h := newProyectoHandler(t)
	const userID = 303
	p := createTestProyecto(t, userID)
	pid := strconv.FormatInt(p.ID, 10)

	r := authedRequest(http.MethodGet, "/api/proyectos/"+pid+"/resumen", "", userID)
	r.SetPathValue("proyectoID", pid)
	w := httptest.NewRecorder()
	h.ResumenHandler(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	// A repeat poll with the tag gets 304 and no body to repaint.
	r = authedRequest(http.MethodGet, "/api/proyectos/"+pid+"/resumen", "", userID)
	r.Header.Set("If-None-Match", etag)
	r.SetPathValue("proyectoID", pid)
	w = httptest.NewRecorder()
	h.ResumenHandler(w, r)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestCambiarEstadoEndpoint(t *testing.T) {
	h := newProyectoHandler(t)
	const userID = 304
	p := createTestProyecto(t, userID)
	pid := strconv.FormatInt(p.ID, 10)

	r := authedRequest(http.MethodPost, "/api/proyectos/"+pid+"/estado",
		`{"estado":"comprado"}`, userID)
	r.SetPathValue("proyectoID", pid)
	w := httptest.NewRecorder()
	h.CambiarEstadoHandler(w, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"estado_anterior":"captacion"`)

	r = authedRequest(http.MethodPost, "/api/proyectos/"+pid+"/estado",
		`{"estado":"volando"}`, userID)
	r.SetPathValue("proyectoID", pid)
	w = httptest.NewRecorder()
	h.CambiarEstadoHandler(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCSRFMiddleware(t *testing.T) {
	protected := CSRFMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// GET passes without tokens.
	r := httptest.NewRequest(http.MethodGet, "/api/proyectos", nil)
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	// POST without tokens is rejected.
	r = httptest.NewRequest(http.MethodPost, "/api/proyectos", nil)
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// POST with matching cookie and header passes.
	r = httptest.NewRequest(http.MethodPost, "/api/proyectos", nil)
	r.AddCookie(&http.Cookie{Name: "csrftoken", Value: "tok"})
	r.Header.Set("X-CSRFToken", "tok")
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	// Mismatched tokens are rejected.
	r = httptest.NewRequest(http.MethodPost, "/api/proyectos", nil)
	r.AddCookie(&http.Cookie{Name: "csrftoken", Value: "tok"})
	r.Header.Set("X-CSRFToken", "other")
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
