package cards

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/angelmondragon/membercards/pkg/db/models"
)

// ShareLink is what the admin console sends to a member over WhatsApp.
type ShareLink struct {
	CardURL     string `json:"cardUrl"`
	WhatsAppURL string `json:"whatsappUrl"`
	Message     string `json:"message"`
}

// Share composes the invitation message for m and a wa.me link addressed to
// the member's phone when one is on file.
func Share(m models.Member, organization, countryCode string) ShareLink {
	msg := fmt.Sprintf("Olá, %s! 🎉\n\n"+
		"Seu cartão de filiado da *%s* está pronto.\n\n"+
		"Acesse o link abaixo e adicione à tela inicial do seu celular para ter sempre à mão:\n\n"+
		"%s\n\n"+
		"_Este cartão funciona offline após o primeiro acesso._",
		m.Nome, organization, m.CardURL)

	text := strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
	phone := digitsOnly(m.Telefone)

	link := "https://wa.me/?text=" + text
	if phone != "" {
		link = "https://wa.me/" + digitsOnly(countryCode) + phone + "?text=" + text
	}
	return ShareLink{CardURL: m.CardURL, WhatsAppURL: link, Message: msg}
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
