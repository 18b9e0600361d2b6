// Package composer builds the WhatsApp check-in message for a reservation.
package composer

import (
	"net/url"
	"strings"

	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
	"github.com/onurcolak/checkin-dispatch-service/internal/normalize"
)

const whatsAppBaseURL = "https://wa.me/"

var templates = map[string]string{
	domain.BrandAudaar: `Olá {nome}! ✨

Sua reserva está confirmada!
Bem-vindo ao {unidade}!
Seu check-in está agendado para: {checkin}
Localizador: {localizador}

Para fazer seu check-in online, acesse: https://pms.audaar.com.br/checkin/vivapp/access

Tenha uma ótima estadia! 🏨✨`,
	domain.BrandLobie: `Olá {nome}! 🏨

Bem-vindo ao {unidade}!
Seu check-in está agendado para: {checkin}
Localizador: {localizador}

Faça seu check-in online aqui: https://pms.audaar.com.br/checkin/vivapp/access

Aguardamos você! 😉`,
}

// QueryEscape output differs from a URI component encoding on these.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// TemplateFor returns the brand template used for an establishment name.
func TemplateFor(establishment string) string {
	if strings.Contains(strings.ToLower(establishment), domain.BrandLobie) {
		return domain.BrandLobie
	}
	return domain.BrandAudaar
}

// Message fills the record into its brand template. Each placeholder is
// replaced at its first occurrence only.
func Message(record domain.CheckInRecord) string {
	checkin := ""
	if strings.TrimSpace(record.Checkin) != "" {
		checkin = normalize.Date(record.Checkin)
	}

	msg := templates[TemplateFor(record.Establishment)]
	msg = strings.Replace(msg, "{nome}", record.Responsible, 1)
	msg = strings.Replace(msg, "{localizador}", record.Locator, 1)
	msg = strings.Replace(msg, "{checkin}", checkin, 1)
	msg = strings.Replace(msg, "{unidade}", record.Establishment, 1)
	return msg
}

// Compose returns the message and its wa.me deep link. The phone is only
// normalized, never validated.
func Compose(record domain.CheckInRecord) domain.WhatsAppLink {
	phone := normalize.Phone(record.ResponsiblePhone)
	msg := Message(record)

	return domain.WhatsAppLink{
		Phone:    phone,
		Template: TemplateFor(record.Establishment),
		Message:  msg,
		URL:      whatsAppBaseURL + phone + "?text=" + EncodeComponent(msg),
	}
}

// EncodeComponent percent-encodes s the way browsers encode a URI component:
// spaces become %20 and !'()* stay literal.
func EncodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
