package cardclient

import (
	"github.com/angelmondragon/membercards/pkg/db/models"
	"github.com/angelmondragon/membercards/pkg/validity"
)

const (
	StatusActive   = "ATIVO"
	StatusInactive = "INATIVO"
)

// View is everything the card face shows.
type View struct {
	Nome     string `json:"nome"`
	Numero   string `json:"numero"`
	Validade string `json:"validade"`
	Status   string `json:"status"`
	Ativo    bool   `json:"ativo"`
	Photo    string `json:"photo,omitempty"`
	QRCode   string `json:"qrCode,omitempty"`
	Offline  bool   `json:"offline"`
}

// Render projects m onto the card face. It has no side effects.
func Render(m models.Member, offline bool) View {
	v := View{
		Nome:     m.Nome,
		Numero:   "#" + m.NumeroFiliacao,
		Validade: validity.Display(m.Validade),
		Status:   StatusInactive,
		Ativo:    m.Ativo,
		QRCode:   m.QRCode,
		Offline:  offline,
	}
	if m.Ativo {
		v.Status = StatusActive
	}
	if m.Photo != nil {
		v.Photo = *m.Photo
	}
	return v
}
