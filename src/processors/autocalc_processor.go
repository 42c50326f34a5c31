package processors

import (
	"github.com/username/inversure/backend/src/models"
)

// autocalcProcessorImpl implements the AutocalcProcessor interface.
type autocalcProcessorImpl struct {
	policy Policy
}

// NewAutocalcProcessor creates a new instance of AutocalcProcessor.
func NewAutocalcProcessor(policy Policy) AutocalcProcessor {
	return &autocalcProcessorImpl{policy: policy}
}

// PurchaseCosts derives the transfer tax, notary and registry costs
// from a purchase price. Notary and registry carry a floor.
func (p *autocalcProcessorImpl) PurchaseCosts(precioCompra float64) PurchaseCosts {
	c := PurchaseCosts{
		ITP:      precioCompra * p.policy.ItpPct,
		Notaria:  precioCompra * p.policy.NotariaPct,
		Registro: precioCompra * p.policy.RegistroPct,
	}
	if c.Notaria < p.policy.NotariaMinimo {
		c.Notaria = p.policy.NotariaMinimo
	}
	if c.Registro < p.policy.RegistroMinimo {
		c.Registro = p.policy.RegistroMinimo
	}
	return c
}

// SaleFees derives the management fees from gross profit. A loss pays
// no fee, and each fee has its own cap.
func (p *autocalcProcessorImpl) SaleFees(beneficioBruto float64) SaleFees {
	base := beneficioBruto
	if base < 0 {
		base = 0
	}
	f := SaleFees{
		GestionComercial:      base * p.policy.GestionComercialPct,
		GestionAdministracion: base * p.policy.GestionAdminPct,
	}
	if f.GestionComercial > p.policy.GestionComercialTope {
		f.GestionComercial = p.policy.GestionComercialTope
	}
	if f.GestionAdministracion > p.policy.GestionAdminTope {
		f.GestionAdministracion = p.policy.GestionAdminTope
	}
	return f
}

// MediaValoraciones averages whichever third-party valuations are
// present. With none present the second return is false.
func (p *autocalcProcessorImpl) MediaValoraciones(proy *models.Proyecto) (float64, bool) {
	var sum float64
	var n int
	for _, v := range []struct {
		valid bool
		val   float64
	}{
		{proy.Valoracion1.Valid, proy.Valoracion1.Float64},
		{proy.Valoracion2.Valid, proy.Valoracion2.Float64},
		{proy.Valoracion3.Valid, proy.Valoracion3.Float64},
	} {
		if v.valid {
			sum += v.val
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
