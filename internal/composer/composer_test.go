package composer

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
)

func TestTemplateFor(t *testing.T) {
	assert.Equal(t, domain.BrandLobie, TemplateFor("Lobie Barra"))
	assert.Equal(t, domain.BrandLobie, TemplateFor("HOTEL LOBIE centro"))
	assert.Equal(t, domain.BrandAudaar, TemplateFor("Rock Suites CGH"))
	assert.Equal(t, domain.BrandAudaar, TemplateFor(""))
}

func TestMessage_FillsPlaceholders(t *testing.T) {
	record := domain.CheckInRecord{
		Responsible:   "Maria",
		Locator:       "LOC1",
		Checkin:       "2025-03-07",
		Establishment: "Lobie Barra",
	}

	msg := Message(record)

	assert.True(t, strings.HasPrefix(msg, "Olá Maria! 🏨"))
	assert.Contains(t, msg, "Bem-vindo ao Lobie Barra!")
	assert.Contains(t, msg, "Seu check-in está agendado para: 07/03/2025")
	assert.Contains(t, msg, "Localizador: LOC1")
	assert.NotContains(t, msg, "{")
}

func TestMessage_EmptyCheckin(t *testing.T) {
	msg := Message(domain.CheckInRecord{Responsible: "João", Establishment: "Rock Suites CGH"})

	assert.Contains(t, msg, "Sua reserva está confirmada!")
	assert.Contains(t, msg, "Seu check-in está agendado para: \n")
}

func TestMessage_ReplacesFirstOccurrenceOnly(t *testing.T) {
	msg := Message(domain.CheckInRecord{Responsible: "{nome}", Establishment: "Rock Suites CGH"})

	assert.True(t, strings.HasPrefix(msg, "Olá {nome}! ✨"))
}

func TestCompose(t *testing.T) {
	record := domain.CheckInRecord{
		Responsible:      "Ana (VIP)",
		ResponsiblePhone: "(11) 99999-0000",
		Locator:          "LOC1",
		Checkin:          "07/03/2025",
		Establishment:    "Rock Suites CGH",
	}

	link := Compose(record)

	assert.Equal(t, "5511999990000", link.Phone)
	assert.Equal(t, domain.BrandAudaar, link.Template)
	require.True(t, strings.HasPrefix(link.URL, "https://wa.me/5511999990000?text="))

	encoded := strings.TrimPrefix(link.URL, "https://wa.me/5511999990000?text=")
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, " ")
	assert.Contains(t, encoded, "Ol%C3%A1%20Ana%20(VIP)!")

	decoded, err := url.PathUnescape(encoded)
	require.NoError(t, err)
	assert.Equal(t, link.Message, decoded)
}

func TestEncodeComponent(t *testing.T) {
	assert.Equal(t, "a%20b%2Bc!*'()%26", EncodeComponent("a b+c!*'()&"))
}
