package members

import (
	"context"

	"github.com/angelmondragon/membercards/pkg/db/models"
	"github.com/angelmondragon/membercards/pkg/enums"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
)

// ErrNotFound is returned by every Store when no member has the requested id.
// It already carries CodeNotFound so logged dumps classify it.
var ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "member not found")

// Store persists the member collection. Implementations: FileStore (JSON
// file) and Repository (postgres/sqlite via gorm).
type Store interface {
	List(ctx context.Context) ([]models.Member, error)
	Count(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id string) (*models.Member, error)
	Append(ctx context.Context, member *models.Member) error
	Update(ctx context.Context, id string, patch Patch) (*models.Member, error)
	Remove(ctx context.Context, id string) error
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Nome      *string
	Email     *string
	Telefone  *string
	CPF       *string
	Categoria *enums.MemberCategory
	Validade  *string
	Photo     *string
	Ativo     *bool
}

// IsEmpty reports whether the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return p.Nome == nil && p.Email == nil && p.Telefone == nil && p.CPF == nil &&
		p.Categoria == nil && p.Validade == nil && p.Photo == nil && p.Ativo == nil
}

// Apply copies the set fields onto m.
func (p Patch) Apply(m *models.Member) {
	if p.Nome != nil {
		m.Nome = *p.Nome
	}
	if p.Email != nil {
		m.Email = *p.Email
	}
	if p.Telefone != nil {
		m.Telefone = *p.Telefone
	}
	if p.CPF != nil {
		m.CPF = *p.CPF
	}
	if p.Categoria != nil {
		m.Categoria = *p.Categoria
	}
	if p.Validade != nil {
		m.Validade = *p.Validade
	}
	if p.Photo != nil {
		photo := *p.Photo
		m.Photo = &photo
	}
	if p.Ativo != nil {
		m.Ativo = *p.Ativo
	}
}

// columns maps the set fields onto column names. A map is used so gorm
// writes false/empty values instead of skipping them as zero values.
func (p Patch) columns() map[string]any {
	cols := map[string]any{}
	if p.Nome != nil {
		cols["nome"] = *p.Nome
	}
	if p.Email != nil {
		cols["email"] = *p.Email
	}
	if p.Telefone != nil {
		cols["telefone"] = *p.Telefone
	}
	if p.CPF != nil {
		cols["cpf"] = *p.CPF
	}
	if p.Categoria != nil {
		cols["categoria"] = string(*p.Categoria)
	}
	if p.Validade != nil {
		cols["validade"] = *p.Validade
	}
	if p.Photo != nil {
		cols["photo"] = *p.Photo
	}
	if p.Ativo != nil {
		cols["ativo"] = *p.Ativo
	}
	return cols
}
