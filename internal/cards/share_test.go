package cards

import (
	"net/url"
	"strings"
	"testing"

	"github.com/angelmondragon/membercards/pkg/db/models"
	"github.com/stretchr/testify/require"
)

func TestShareAddressesMemberPhone(t *testing.T) {
	m := models.Member{Nome: "Ana Silva", Telefone: "(54) 99999-0000", CardURL: "http://h/card.html?id=abc123"}

	link := Share(m, "Conexão Arq Serra", "55")

	require.Equal(t, m.CardURL, link.CardURL)
	require.True(t, strings.HasPrefix(link.WhatsAppURL, "https://wa.me/5554999990000?text="))
	require.Contains(t, link.Message, "Olá, Ana Silva!")
	require.Contains(t, link.Message, "*Conexão Arq Serra*")
	require.Contains(t, link.Message, m.CardURL)
	require.NotContains(t, link.WhatsAppURL, "+", "spaces must be percent-encoded")

	u, err := url.Parse(link.WhatsAppURL)
	require.NoError(t, err)
	require.Equal(t, link.Message, u.Query().Get("text"))
}

func TestShareWithoutPhone(t *testing.T) {
	link := Share(models.Member{Nome: "Bruno", CardURL: "http://h/card.html?id=x"}, "Org", "55")
	require.True(t, strings.HasPrefix(link.WhatsAppURL, "https://wa.me/?text="))
}
