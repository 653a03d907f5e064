package members

import (
	"strings"

	"github.com/angelmondragon/membercards/pkg/db/models"
	"github.com/angelmondragon/membercards/pkg/enums"
)

// Filter narrows a listing. The zero value matches everyone.
type Filter struct {
	Query     string
	Categoria *enums.MemberCategory
	Ativo     *bool
}

// Apply returns the members matching every set criterion, preserving order.
// Query is a case-insensitive substring match over nome, email and numero.
func (f Filter) Apply(all []models.Member) []models.Member {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" && f.Categoria == nil && f.Ativo == nil {
		return all
	}

	out := make([]models.Member, 0, len(all))
	for _, m := range all {
		if f.Categoria != nil && m.Categoria != *f.Categoria {
			continue
		}
		if f.Ativo != nil && m.Ativo != *f.Ativo {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(m.Nome), q) &&
			!strings.Contains(strings.ToLower(m.Email), q) &&
			!strings.Contains(m.NumeroFiliacao, q) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Stats summarises the registry for the admin dashboard.
type Stats struct {
	Total    int `json:"total"`
	Ativos   int `json:"ativos"`
	Inativos int `json:"inativos"`
}

// ComputeStats counts active and inactive members.
func ComputeStats(all []models.Member) Stats {
	st := Stats{Total: len(all)}
	for _, m := range all {
		if m.Ativo {
			st.Ativos++
		}
	}
	st.Inativos = st.Total - st.Ativos
	return st
}
