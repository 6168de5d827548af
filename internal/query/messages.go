package query

import (
	"fmt"
	"strings"

	"creditline/internal/domain"
)

// Support contact surfaced in the informational template.
const supportPhone = "01-614-9000 opc 3"

// defaultName addresses the client when no channel resolved a name.
const defaultName = "Cliente"

// Return codes of the outward contract.
const (
	ReturnCodeSuccess = 0
	ReturnCodeNoOffer = 1
	ReturnCodeError   = 2
)

// Compose renders the user-facing message for a result and reports whether it
// announces an offer. Messages are a pure function of the result state; error
// details never leak into them.
func Compose(result domain.QueryResult) (string, bool) {
	switch {
	case result.State == domain.StateSuccess && result.HasOffer:
		return offerMessage(result.Record), true
	case result.State == domain.StateNoCredit:
		return noCreditMessage(result.Record), false
	case result.State == domain.StateNotFound:
		return noCreditMessage(nil), false
	default:
		return errorMessage(), false
	}
}

// ReturnCode maps a result state to the outward contract's return code:
// 0 success, 1 no offer or not found, 2 error.
func ReturnCode(result domain.QueryResult) int {
	switch result.State {
	case domain.StateSuccess:
		return ReturnCodeSuccess
	case domain.StateNotFound, domain.StateNoCredit:
		return ReturnCodeNoOffer
	default:
		return ReturnCodeError
	}
}

func offerMessage(record *domain.ClientRecord) string {
	name := defaultName
	amount := 0.0
	if record != nil {
		if record.Name != "" {
			name = record.Name
		}
		amount = record.CreditLimit
	}

	return strings.TrimSpace(fmt.Sprintf(`🎉 ¡FELICITACIONES!

Hola *%s*,
¡Tenemos excelentes noticias para ti!

¡Tienes una línea de crédito APROBADA por:
💰 S/ %s!
`, name, FormatAmount(amount)))
}

func noCreditMessage(record *domain.ClientRecord) string {
	greeting := ""
	if record != nil && record.Name != "" {
		greeting = fmt.Sprintf("Hola *%s*,\n", record.Name)
	}

	return strings.TrimSpace(fmt.Sprintf(`ℹ️ INFORMACIÓN DE TU CONSULTA

%sGracias por tu interés en nuestros servicios de crédito.
En este momento no cuentas con una línea de crédito disponible.

💡 ¿Cómo puedo calificar?
- Mantén tus pagos al día
- Continúa usando nuestro servicio regularmente
- Evaluamos periódicamente a nuestros clientes

📞 Para más información: %s
`, greeting, supportPhone))
}

func errorMessage() string {
	return strings.TrimSpace(fmt.Sprintf(`⚠️ INFORMACIÓN

Hola %s,
En este momento no podemos procesar tu consulta.

¡Gracias por tu comprensión!
`, defaultName))
}

// FormatAmount renders a currency amount with thousands separators and two
// decimals, e.g. 1234.5 -> "1,234.50".
func FormatAmount(amount float64) string {
	raw := fmt.Sprintf("%.2f", amount)

	dot := strings.Index(raw, ".")
	intPart, fracPart := raw[:dot], raw[dot:]

	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	return sign + b.String() + fracPart
}
