package members

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/membercards/pkg/db/models"
	"github.com/angelmondragon/membercards/pkg/enums"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleMember(id, numero string, joined time.Time) *models.Member {
	return &models.Member{
		ID:             id,
		NumeroFiliacao: numero,
		Nome:           "Member " + numero,
		Email:          numero + "@example.org",
		Categoria:      enums.MemberCategoryStandard,
		DataFiliacao:   joined.UTC().Truncate(time.Millisecond),
		Validade:       "12/2027",
		Ativo:          true,
		QRCode:         "data:image/png;base64,cG5n",
		CardURL:        "http://h/card.html?id=" + id,
	}
}

// runStoreContract exercises the behaviour every Store must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	t.Run("empty store", func(t *testing.T) {
		store := newStore(t)
		all, err := store.List(ctx)
		require.NoError(t, err)
		require.Empty(t, all)

		n, err := store.Count(ctx)
		require.NoError(t, err)
		require.Zero(t, n)

		_, err = store.FindByID(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("append then read back", func(t *testing.T) {
		store := newStore(t)
		first := sampleMember("id-1", "00001", base)
		second := sampleMember("id-2", "00002", base.Add(time.Minute))
		second.Photo = ptr("/uploads/p.png")
		require.NoError(t, store.Append(ctx, first))
		require.NoError(t, store.Append(ctx, second))

		n, err := store.Count(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 2, n)

		all, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		require.Equal(t, "id-1", all[0].ID)
		require.Equal(t, "id-2", all[1].ID)

		got, err := store.FindByID(ctx, "id-2")
		require.NoError(t, err)
		require.Equal(t, *second, *got)
	})

	t.Run("patch changes only supplied fields", func(t *testing.T) {
		store := newStore(t)
		original := sampleMember("id-1", "00001", base)
		require.NoError(t, store.Append(ctx, original))

		updated, err := store.Update(ctx, "id-1", Patch{Ativo: ptr(false)})
		require.NoError(t, err)

		want := *original
		want.Ativo = false
		require.Equal(t, want, *updated)

		reread, err := store.FindByID(ctx, "id-1")
		require.NoError(t, err)
		require.Equal(t, want, *reread)

		updated, err = store.Update(ctx, "id-1", Patch{
			Email:     ptr(""),
			Categoria: ptr(enums.MemberCategoryPremium),
			Photo:     ptr("/uploads/new.png"),
		})
		require.NoError(t, err)
		require.Equal(t, "", updated.Email)
		require.Equal(t, enums.MemberCategoryPremium, updated.Categoria)
		require.Equal(t, "/uploads/new.png", *updated.Photo)
		require.Equal(t, original.QRCode, updated.QRCode)
		require.Equal(t, original.NumeroFiliacao, updated.NumeroFiliacao)
	})

	t.Run("update unknown", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Update(ctx, "nope", Patch{Nome: ptr("x")})
		require.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	})

	t.Run("remove", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Append(ctx, sampleMember("id-1", "00001", base)))
		require.NoError(t, store.Append(ctx, sampleMember("id-2", "00002", base.Add(time.Second))))

		require.ErrorIs(t, store.Remove(ctx, "unknown"), ErrNotFound)
		n, err := store.Count(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 2, n)

		require.NoError(t, store.Remove(ctx, "id-1"))
		n, err = store.Count(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		_, err = store.FindByID(ctx, "id-1")
		require.ErrorIs(t, err, ErrNotFound)
	})
}
