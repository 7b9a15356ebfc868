// Package whatsapp builds the outbound messaging handoff for manual
// payments: a pre-filled wa.me deep link the user opens to notify support.
// Purely generative, there is no response channel back into the service.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Ghavvvo/pulpy/internal/domain"
)

// Support is the messaging destination for payment requests.
type Support struct {
	// Number is the support WhatsApp number in international format.
	Number string
}

// PaymentRequest carries everything the templated message needs.
type PaymentRequest struct {
	Reference    string
	PlanName     string
	BillingCycle domain.BillingCycle
	Amount       int
	UserName     string
}

// Message renders the human-readable payment request text, unencoded.
func (s Support) Message(req PaymentRequest) string {
	cycleText := "Mensual"
	if req.BillingCycle == domain.CycleAnnual {
		cycleText = "Anual"
	}

	return fmt.Sprintf(`🍊 *SOLICITUD DE PAGO PULPY*

📋 *Referencia:* %s
👤 *Usuario:* %s
📦 *Plan:* %s (%s)
💰 *Monto:* %s CUP

Por favor, confirmen cuando el pago sea procesado.

¡Gracias! 🙏`,
		req.Reference, req.UserName, req.PlanName, cycleText, formatAmount(req.Amount))
}

// PaymentURL builds the wa.me deep link with the message pre-filled.
func (s Support) PaymentURL(req PaymentRequest) string {
	number := strings.TrimPrefix(s.Number, "+")
	return "https://wa.me/" + number + "?text=" + url.QueryEscape(s.Message(req))
}

// formatAmount renders an amount with dot thousands separators, the way
// es-CU locales group digits.
func formatAmount(amount int) string {
	digits := fmt.Sprintf("%d", amount)
	if len(digits) <= 3 {
		return digits
	}

	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)
	return strings.Join(groups, ".")
}
