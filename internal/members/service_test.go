package members

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/angelmondragon/membercards/internal/cards"
	"github.com/angelmondragon/membercards/pkg/db/models"
	"github.com/angelmondragon/membercards/pkg/enums"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/stretchr/testify/require"
)

type recordingMetrics struct {
	ops []string
}

func (r *recordingMetrics) IncMutation(op string) { r.ops = append(r.ops, op) }

func newTestService(t *testing.T) (Service, Store, *recordingMetrics) {
	t.Helper()
	store := newTestFileStore(t)
	issuer, err := cards.NewIssuer(store, 64)
	require.NoError(t, err)
	metrics := &recordingMetrics{}
	svc, err := NewService(ServiceParams{
		Store:        store,
		Issuer:       issuer,
		Metrics:      metrics,
		Organization: "Conexão Arq Serra",
		CountryCode:  "55",
	})
	require.NoError(t, err)
	return svc, store, metrics
}

func codeOf(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	return typed.Code()
}

func TestCreateFirstMember(t *testing.T) {
	svc, _, metrics := newTestService(t)

	m, err := svc.Create(context.Background(), CreateInput{
		Nome:      "Ana Silva",
		Categoria: "Standard",
		BaseURL:   "http://localhost:3000",
	})
	require.NoError(t, err)

	require.Equal(t, "00001", m.NumeroFiliacao)
	require.True(t, m.Ativo)
	require.NotEmpty(t, m.QRCode)
	require.Contains(t, m.CardURL, m.ID)
	require.Equal(t, enums.MemberCategoryStandard, m.Categoria)
	require.Equal(t, []string{"create"}, metrics.ops)
}

func TestCreateRequiresNomeAndCategoria(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	cases := []CreateInput{
		{Nome: "", Categoria: "Standard"},
		{Nome: "   ", Categoria: "Standard"},
		{Nome: "Ana", Categoria: ""},
		{Nome: "Ana", Categoria: "Gold"},
		{Nome: "Ana", Categoria: "Standard", Validade: "31/2027"},
	}
	for _, in := range cases {
		in.BaseURL = "http://h"
		_, err := svc.Create(ctx, in)
		require.Error(t, err)
		require.Equal(t, pkgerrors.CodeValidation, codeOf(t, err), "input %+v", in)
	}

	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n, "rejected creates must persist nothing")
}

func TestCreateNormalizesInput(t *testing.T) {
	svc, _, _ := newTestService(t)

	m, err := svc.Create(context.Background(), CreateInput{
		Nome:      "  Bruno Costa ",
		Email:     " bruno@example.org ",
		Categoria: "premium",
		Validade:  "3/2028",
		Photo:     ptr("/uploads/b.png"),
		BaseURL:   "http://h",
	})
	require.NoError(t, err)
	require.Equal(t, "Bruno Costa", m.Nome)
	require.Equal(t, "bruno@example.org", m.Email)
	require.Equal(t, enums.MemberCategoryPremium, m.Categoria)
	require.Equal(t, "03/2028", m.Validade)
	require.Equal(t, "/uploads/b.png", *m.Photo)
}

func TestNumeroFollowsRegistrySize(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	var last *models.Member
	for i := 0; i < 3; i++ {
		m, err := svc.Create(ctx, CreateInput{Nome: "M", Categoria: "Estudante", BaseURL: "http://h"})
		require.NoError(t, err)
		last = m
	}
	require.Equal(t, "00003", last.NumeroFiliacao)

	require.NoError(t, svc.Delete(ctx, last.ID))
	again, err := svc.Create(ctx, CreateInput{Nome: "N", Categoria: "Estudante", BaseURL: "http://h"})
	require.NoError(t, err)
	require.Equal(t, "00003", again.NumeroFiliacao, "numbers are size based and may repeat after deletes")
}

func TestGetAfterCreateReturnsIdenticalRecord(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Nome: "Ana Silva", Categoria: "Standard", BaseURL: "http://h"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, *created, *got)
}

func TestUpdateOnlyChangesSuppliedFields(t *testing.T) {
	svc, _, metrics := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Nome: "Ana Silva", Categoria: "Standard", Email: "ana@example.org", BaseURL: "http://h"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, Patch{Ativo: ptr(false)})
	require.NoError(t, err)

	want := *created
	want.Ativo = false
	require.Equal(t, want, *updated)
	require.Equal(t, []string{"create", "update"}, metrics.ops)
}

func TestUpdateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Nome: "Ana Silva", Categoria: "Standard", BaseURL: "http://h"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, Patch{})
	require.Equal(t, pkgerrors.CodeValidation, codeOf(t, err))

	_, err = svc.Update(ctx, "missing", Patch{})
	require.Equal(t, pkgerrors.CodeNotFound, codeOf(t, err))

	_, err = svc.Update(ctx, created.ID, Patch{Validade: ptr("garbage")})
	require.Equal(t, pkgerrors.CodeValidation, codeOf(t, err))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Validade, got.Validade)

	updated, err := svc.Update(ctx, created.ID, Patch{Validade: ptr("7/2029")})
	require.NoError(t, err)
	require.Equal(t, "07/2029", updated.Validade)

	bad := enums.MemberCategory("Gold")
	_, err = svc.Update(ctx, "whatever", Patch{Categoria: &bad})
	require.Equal(t, pkgerrors.CodeValidation, codeOf(t, err))

	_, err = svc.Update(ctx, "missing", Patch{Nome: ptr("x")})
	require.Equal(t, pkgerrors.CodeNotFound, codeOf(t, err))
}

func TestDelete(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Nome: "Ana", Categoria: "Standard", BaseURL: "http://h"})
	require.NoError(t, err)

	err = svc.Delete(ctx, "unknown")
	require.Equal(t, pkgerrors.CodeNotFound, codeOf(t, err))
	n, _ := store.Count(ctx)
	require.EqualValues(t, 1, n)

	require.NoError(t, svc.Delete(ctx, created.ID))
	n, _ = store.Count(ctx)
	require.Zero(t, n)

	_, err = svc.Get(ctx, created.ID)
	require.Equal(t, pkgerrors.CodeNotFound, codeOf(t, err))
}

func TestListFiltersAndStats(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	ana, err := svc.Create(ctx, CreateInput{Nome: "Ana Silva", Email: "ana@arq.org", Categoria: "Standard", BaseURL: "http://h"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Nome: "Bruno", Categoria: "Premium", BaseURL: "http://h"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, ana.ID, Patch{Ativo: ptr(false)})
	require.NoError(t, err)

	all, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	byQuery, err := svc.List(ctx, Filter{Query: "ARQ"})
	require.NoError(t, err)
	require.Len(t, byQuery, 1)
	require.Equal(t, ana.ID, byQuery[0].ID)

	byNumero, err := svc.List(ctx, Filter{Query: "00002"})
	require.NoError(t, err)
	require.Len(t, byNumero, 1)

	premium := enums.MemberCategoryPremium
	byCat, err := svc.List(ctx, Filter{Categoria: &premium, Ativo: ptr(true)})
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	require.Equal(t, "Bruno", byCat[0].Nome)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, Stats{Total: 2, Ativos: 1, Inativos: 1}, stats)
}

func TestShare(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateInput{Nome: "Ana Silva", Telefone: "54 99999-0000", Categoria: "Standard", BaseURL: "http://h"})
	require.NoError(t, err)

	link, err := svc.Share(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, m.CardURL, link.CardURL)
	require.True(t, strings.HasPrefix(link.WhatsAppURL, "https://wa.me/5554999990000?text="))

	_, err = svc.Share(ctx, "missing")
	require.Equal(t, pkgerrors.CodeNotFound, codeOf(t, err))
}

type faultyStore struct {
	Store
	err error
}

func (f faultyStore) List(context.Context) ([]models.Member, error)            { return nil, f.err }
func (f faultyStore) Count(context.Context) (int64, error)                     { return 0, nil }
func (f faultyStore) FindByID(context.Context, string) (*models.Member, error) { return nil, f.err }
func (f faultyStore) Append(context.Context, *models.Member) error             { return f.err }
func (f faultyStore) Update(context.Context, string, Patch) (*models.Member, error) {
	return nil, f.err
}
func (f faultyStore) Remove(context.Context, string) error { return f.err }

func TestStoreFaultsBecomeInternalErrors(t *testing.T) {
	store := faultyStore{err: errors.New("disk full")}
	issuer, err := cards.NewIssuer(store, 64)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{Store: store, Issuer: issuer})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.List(ctx, Filter{})
	require.Equal(t, pkgerrors.CodeInternal, codeOf(t, err))
	_, err = svc.Get(ctx, "x")
	require.Equal(t, pkgerrors.CodeInternal, codeOf(t, err))
	_, err = svc.Create(ctx, CreateInput{Nome: "Ana", Categoria: "Standard", BaseURL: "http://h"})
	require.Equal(t, pkgerrors.CodeInternal, codeOf(t, err))
	require.True(t, errors.Is(err, store.err), "cause must stay on the chain")
	err = svc.Delete(ctx, "x")
	require.Equal(t, pkgerrors.CodeInternal, codeOf(t, err))
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Store: newTestFileStore(t)})
	require.Error(t, err)
}
