package models

import (
	"time"

	"github.com/angelmondragon/membercards/pkg/enums"
)

// Member is a registered affiliate and the card issued to them. The JSON
// form is both the API payload and the file store's on-disk record.
type Member struct {
	ID             string               `gorm:"column:id;primaryKey" json:"id"`
	NumeroFiliacao string               `gorm:"column:numero_filiacao;not null" json:"numeroFiliacao"`
	Nome           string               `gorm:"column:nome;not null" json:"nome"`
	Email          string               `gorm:"column:email;not null" json:"email"`
	Telefone       string               `gorm:"column:telefone;not null" json:"telefone"`
	CPF            string               `gorm:"column:cpf;not null" json:"cpf"`
	Categoria      enums.MemberCategory `gorm:"column:categoria;not null" json:"categoria"`
	Photo          *string              `gorm:"column:photo" json:"photo"`
	DataFiliacao   time.Time            `gorm:"column:data_filiacao;not null" json:"dataFiliacao"`
	Validade       string               `gorm:"column:validade;not null" json:"validade"`
	Ativo          bool                 `gorm:"column:ativo;not null" json:"ativo"`
	QRCode         string               `gorm:"column:qr_code;not null" json:"qrCode"`
	CardURL        string               `gorm:"column:card_url;not null" json:"cardUrl"`
}

func (Member) TableName() string {
	return "members"
}
