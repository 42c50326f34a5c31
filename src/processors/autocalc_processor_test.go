package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/username/inversure/backend/src/models"
)

func TestPurchaseCosts(t *testing.T) {
	t.Parallel()
	p := NewAutocalcProcessor(DefaultPolicy())

	c := p.PurchaseCosts(300000)
	assert.InDelta(t, 6000.0, c.ITP, 1e-9)
	assert.InDelta(t, 600.0, c.Notaria, 1e-9)
	assert.InDelta(t, 600.0, c.Registro, 1e-9)

	// Cheap purchases still pay the notary and registry floors.
	c = p.PurchaseCosts(100000)
	assert.InDelta(t, 2000.0, c.ITP, 1e-9)
	assert.InDelta(t, 500.0, c.Notaria, 1e-9)
	assert.InDelta(t, 500.0, c.Registro, 1e-9)
}

func TestSaleFees(t *testing.T) {
	t.Parallel()
	p := NewAutocalcProcessor(DefaultPolicy())

	f := p.SaleFees(20000)
	assert.InDelta(t, 1000.0, f.GestionComercial, 1e-9)
	assert.InDelta(t, 1000.0, f.GestionAdministracion, 1e-9)

	// Large profits hit the caps.
	f = p.SaleFees(100000)
	assert.InDelta(t, 2000.0, f.GestionComercial, 1e-9)
	assert.InDelta(t, 1500.0, f.GestionAdministracion, 1e-9)

	// A loss pays nothing.
	f = p.SaleFees(-5000)
	assert.Zero(t, f.GestionComercial)
	assert.Zero(t, f.GestionAdministracion)
}

func TestMediaValoraciones(t *testing.T) {
	t.Parallel()
	p := NewAutocalcProcessor(DefaultPolicy())

	proy := &models.Proyecto{
		Valoracion1: nf(300000),
		Valoracion3: nf(320000),
	}
	avg, ok := p.MediaValoraciones(proy)
	assert.True(t, ok)
	assert.InDelta(t, 310000.0, avg, 1e-9)

	_, ok = p.MediaValoraciones(&models.Proyecto{})
	assert.False(t, ok)
}
