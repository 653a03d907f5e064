package members

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/membercards/internal/cards"
	"github.com/angelmondragon/membercards/pkg/db/models"
	"github.com/angelmondragon/membercards/pkg/enums"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/angelmondragon/membercards/pkg/validity"
)

type issuer interface {
	Issue(ctx context.Context, draft cards.Draft, baseURL string) (*models.Member, error)
}

type mutationRecorder interface {
	IncMutation(operation string)
}

// Service exposes the member registry operations behind the HTTP API.
type Service interface {
	List(ctx context.Context, filter Filter) ([]models.Member, error)
	Stats(ctx context.Context) (Stats, error)
	Get(ctx context.Context, id string) (*models.Member, error)
	Create(ctx context.Context, input CreateInput) (*models.Member, error)
	Update(ctx context.Context, id string, patch Patch) (*models.Member, error)
	Delete(ctx context.Context, id string) error
	Share(ctx context.Context, id string) (*cards.ShareLink, error)
}

// ServiceParams groups the service collaborators.
type ServiceParams struct {
	Store        Store
	Issuer       issuer
	Metrics      mutationRecorder
	Organization string
	CountryCode  string
}

type service struct {
	store        Store
	issuer       issuer
	metrics      mutationRecorder
	organization string
	countryCode  string
}

// CreateInput holds the raw registration fields. BaseURL is the origin card
// links are built from.
type CreateInput struct {
	Nome      string
	Email     string
	Telefone  string
	CPF       string
	Categoria string
	Validade  string
	Photo     *string
	BaseURL   string
}

// NewService builds the member service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("member store required")
	}
	if params.Issuer == nil {
		return nil, fmt.Errorf("card issuer required")
	}
	return &service{
		store:        params.Store,
		issuer:       params.Issuer,
		metrics:      params.Metrics,
		organization: params.Organization,
		countryCode:  params.CountryCode,
	}, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]models.Member, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, storeFault(err, "list members")
	}
	return filter.Apply(all), nil
}

func (s *service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return Stats{}, storeFault(err, "list members")
	}
	return ComputeStats(all), nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Member, error) {
	m, err := s.store.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, mapStoreErr(err, "load member")
	}
	return m, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Member, error) {
	draft, err := input.draft()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.BaseURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "card base url unavailable")
	}

	member, err := s.issuer.Issue(ctx, draft, input.BaseURL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue member card")
	}
	if err := s.store.Append(ctx, member); err != nil {
		return nil, storeFault(err, "save member")
	}
	s.record("create")
	return member, nil
}

func (s *service) Update(ctx context.Context, id string, patch Patch) (*models.Member, error) {
	id = strings.TrimSpace(id)
	if patch.IsEmpty() {
		// an unknown id is reported before the empty body
		if _, err := s.store.FindByID(ctx, id); err != nil {
			return nil, mapStoreErr(err, "load member")
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	if patch.Categoria != nil && !patch.Categoria.IsValid() {
		return nil, invalidCategoria(string(*patch.Categoria))
	}
	if patch.Validade != nil {
		validade, err := validity.Normalize(*patch.Validade)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid validade")
		}
		patch.Validade = &validade
	}

	m, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, mapStoreErr(err, "update member")
	}
	s.record("update")
	return m, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.store.Remove(ctx, strings.TrimSpace(id)); err != nil {
		return mapStoreErr(err, "delete member")
	}
	s.record("delete")
	return nil
}

func (s *service) Share(ctx context.Context, id string) (*cards.ShareLink, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	link := cards.Share(*m, s.organization, s.countryCode)
	return &link, nil
}

func (s *service) record(operation string) {
	if s.metrics != nil {
		s.metrics.IncMutation(operation)
	}
}

func (in CreateInput) draft() (cards.Draft, error) {
	nome := strings.TrimSpace(in.Nome)
	rawCategoria := strings.TrimSpace(in.Categoria)
	if nome == "" || rawCategoria == "" {
		missing := map[string]string{}
		if nome == "" {
			missing["nome"] = "is required"
		}
		if rawCategoria == "" {
			missing["categoria"] = "is required"
		}
		return cards.Draft{}, pkgerrors.New(pkgerrors.CodeValidation, "nome and categoria are required").WithDetails(missing)
	}

	categoria, err := enums.ParseMemberCategory(rawCategoria)
	if err != nil {
		return cards.Draft{}, invalidCategoria(rawCategoria)
	}

	validade, err := validity.Normalize(in.Validade)
	if err != nil {
		return cards.Draft{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid validade")
	}

	return cards.Draft{
		Nome:      nome,
		Email:     strings.TrimSpace(in.Email),
		Telefone:  strings.TrimSpace(in.Telefone),
		CPF:       strings.TrimSpace(in.CPF),
		Categoria: categoria,
		Validade:  validade,
		Photo:     in.Photo,
	}, nil
}

func invalidCategoria(value string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid categoria").
		WithDetails(map[string]any{"categoria": value, "allowed": enums.MemberCategories()})
}

func mapStoreErr(err error, action string) error {
	if errors.Is(err, ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
	}
	return storeFault(err, action)
}

func storeFault(err error, action string) error {
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}
