package members

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/membercards/pkg/db/models"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "data", "members.json"))
	require.NoError(t, err)
	return store
}

func TestFileStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return newTestFileStore(t) })
}

func TestFileStoreWritesIndentedArray(t *testing.T) {
	store := newTestFileStore(t)
	require.NoError(t, store.Append(context.Background(), sampleMember("id-1", "00001", time.Now())))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), "[\n  {\n    \"id\": \"id-1\""), "got %s", raw)

	var decoded []models.Member
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)
	require.Nil(t, decoded[0].Photo)
	require.Contains(t, string(raw), `"photo": null`)

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStoreCorruptFileIsAFault(t *testing.T) {
	store := newTestFileStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o644))

	_, err := store.List(context.Background())
	require.Error(t, err)

	err = store.Append(context.Background(), sampleMember("id-1", "00001", time.Now()))
	require.Error(t, err)

	raw, readErr := os.ReadFile(store.Path())
	require.NoError(t, readErr)
	require.Equal(t, "{not json", string(raw), "a corrupt file must not be overwritten")
}

func TestFileStoreEmptyFileReadsAsEmpty(t *testing.T) {
	store := newTestFileStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), nil, 0o644))

	all, err := store.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestFileStoreConcurrentAppendsAreNotLost(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("id-%02d", i)
			require.NoError(t, store.Append(ctx, sampleMember(id, fmt.Sprintf("%05d", i+1), time.Now())))
		}(i)
	}
	wg.Wait()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 20, n)
}

func TestFileStoreRejectsDuplicateID(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, sampleMember("id-1", "00001", time.Now())))
	require.Error(t, store.Append(ctx, sampleMember("id-1", "00002", time.Now())))
}

func TestFileStoreHonoursCancelledContext(t *testing.T) {
	store := newTestFileStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.List(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	_, err := NewFileStore("  ")
	require.Error(t, err)
}
