/**
 * @description
 * Plan catalog and payment reference generation for the upgrade flow.
 * Payment is handled by a manual messaging handoff, so the reference is an
 * advisory token matched by a human downstream; it is collision-resistant,
 * not guaranteed unique.
 */
package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Plan describes one tier of the catalog, with prices in CUP.
type Plan struct {
	ID          PlanType `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Monthly     int      `json:"monthly"`
	Annual      int      `json:"annual"`
	Features    []string `json:"features"`
	Limitations []string `json:"limitations,omitempty"`
}

// Plans is the full catalog keyed by tier.
var Plans = map[PlanType]Plan{
	PlanFree: {
		ID:          PlanFree,
		Name:        "Gratis",
		Description: "Perfecto para empezar",
		Monthly:     0,
		Annual:      0,
		Features: []string{
			"Perfil digital básico",
			"Hasta 3 enlaces sociales",
			"Código QR básico",
			"Compartir perfil",
		},
		Limitations: []string{
			"Sin estadísticas avanzadas",
			"Sin personalización de colores",
			"Sin temas premium",
			"Marca de agua Pulpy",
		},
	},
	PlanPremium: {
		ID:          PlanPremium,
		Name:        "Premium",
		Description: "Todas las funcionalidades",
		Monthly:     500,
		Annual:      4800,
		Features: []string{
			"Perfil digital completo",
			"Enlaces sociales ilimitados",
			"Código QR personalizado",
			"Estadísticas avanzadas",
			"Personalización completa de colores",
			"Todos los temas disponibles",
			"Sin marca de agua",
			"Soporte prioritario",
		},
	},
}

// Price returns the amount in CUP for a billing cycle.
func (p Plan) Price(cycle BillingCycle) int {
	if cycle == CycleAnnual {
		return p.Annual
	}
	return p.Monthly
}

// paymentReferencePrefix marks every reference produced by this service.
const paymentReferencePrefix = "PLP"

// GeneratePaymentReference produces an advisory payment token of the form
// PLP-<base36 timestamp>-<4 random chars>, uppercased.
func GeneratePaymentReference() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return paymentReferencePrefix + "-" + ts + "-" + random
}
