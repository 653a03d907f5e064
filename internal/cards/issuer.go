package cards

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/membercards/pkg/db/models"
	"github.com/angelmondragon/membercards/pkg/enums"
	"github.com/angelmondragon/membercards/pkg/validity"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize = 256
	qrDataPrefix  = "data:image/png;base64,"
)

// Counter reports the current registry size used for numbering.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Draft carries the validated fields of a member that is about to be issued.
type Draft struct {
	Nome      string
	Email     string
	Telefone  string
	CPF       string
	Categoria enums.MemberCategory
	Validade  string
	Photo     *string
}

// Issuer turns a Draft into a complete, unsaved member record.
type Issuer struct {
	counter Counter
	qrSize  int
	now     func() time.Time
	newID   func() string
	encode  func(content string, size int) ([]byte, error)
}

// NewIssuer builds an issuer numbering from counter. qrSize <= 0 uses DefaultQRSize.
func NewIssuer(counter Counter, qrSize int) (*Issuer, error) {
	if counter == nil {
		return nil, fmt.Errorf("member counter required")
	}
	if qrSize <= 0 {
		qrSize = DefaultQRSize
	}
	return &Issuer{
		counter: counter,
		qrSize:  qrSize,
		now:     time.Now,
		newID:   uuid.NewString,
		encode: func(content string, size int) ([]byte, error) {
			return qrcode.Encode(content, qrcode.Medium, size)
		},
	}, nil
}

// Issue assigns id, membership number, card URL, QR code and dates. The
// number is derived from the size of the registry before this member is
// added, so concurrent issues (or issues after a delete) can repeat it.
func (i *Issuer) Issue(ctx context.Context, draft Draft, baseURL string) (*models.Member, error) {
	count, err := i.counter.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}

	id := i.newID()
	cardURL := CardURL(baseURL, id)
	qr, err := i.qrDataURI(cardURL)
	if err != nil {
		return nil, err
	}

	now := i.now().UTC().Truncate(time.Millisecond)
	validade := draft.Validade
	if validade == "" {
		validade = validity.Default(now)
	}

	return &models.Member{
		ID:             id,
		NumeroFiliacao: FormatNumero(count + 1),
		Nome:           draft.Nome,
		Email:          draft.Email,
		Telefone:       draft.Telefone,
		CPF:            draft.CPF,
		Categoria:      draft.Categoria,
		Photo:          draft.Photo,
		DataFiliacao:   now,
		Validade:       validade,
		Ativo:          true,
		QRCode:         qr,
		CardURL:        cardURL,
	}, nil
}

func (i *Issuer) qrDataURI(content string) (string, error) {
	png, err := i.encode(content, i.qrSize)
	if err != nil {
		return "", fmt.Errorf("generate qr code: %w", err)
	}
	return qrDataPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// FormatNumero renders a membership number as five zero-padded digits.
func FormatNumero(n int64) string {
	return fmt.Sprintf("%05d", n)
}

// CardURL is the public card page for id under baseURL.
func CardURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/card.html?id=" + url.QueryEscape(id)
}
