package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func newTestKV(t *testing.T, namespace string) (*KV, string) {
	t.Helper()
	dir := t.TempDir()
	kv, err := NewKV(dir, namespace)
	require.NoError(t, err)
	return kv, dir
}

func TestKV_SetGet(t *testing.T) {
	ctx := context.Background()
	kv, _ := newTestKV(t, "session:tab-1")

	require.NoError(t, kv.Set(ctx, "panier", []byte(`[{"quantity":1}]`)))

	got, err := kv.Get(ctx, "panier")
	require.NoError(t, err)
	assert.Equal(t, `[{"quantity":1}]`, string(got))
}

func TestKV_Overwrite(t *testing.T) {
	ctx := context.Background()
	kv, _ := newTestKV(t, "durable")

	require.NoError(t, kv.Set(ctx, "token", []byte("a")))
	require.NoError(t, kv.Set(ctx, "token", []byte("b")))

	got, err := kv.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))
}

func TestKV_GetMissing(t *testing.T) {
	kv, _ := newTestKV(t, "durable")

	_, err := kv.Get(context.Background(), "token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestKV_NamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tab1, err := NewKV(dir, "session:tab-1")
	require.NoError(t, err)
	tab2, err := NewKV(dir, "session:tab-2")
	require.NoError(t, err)

	require.NoError(t, tab1.Set(ctx, "panier", []byte("one")))

	_, err = tab2.Get(ctx, "panier")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestKV_NoTempFilesLeft(t *testing.T) {
	ctx := context.Background()
	kv, dir := newTestKV(t, "durable")

	require.NoError(t, kv.Set(ctx, "token", []byte("abc")))

	entries, err := os.ReadDir(filepath.Join(dir, "durable"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "token.json", entries[0].Name())
}

func TestKV_Delete(t *testing.T) {
	ctx := context.Background()
	kv, _ := newTestKV(t, "durable")

	require.NoError(t, kv.Set(ctx, "token", []byte("abc")))
	require.NoError(t, kv.Delete(ctx, "token"))
	require.NoError(t, kv.Delete(ctx, "token"))

	_, err := kv.Get(ctx, "token")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestKV_RejectsPathTraversal(t *testing.T) {
	kv, _ := newTestKV(t, "durable")

	err := kv.Set(context.Background(), "../../etc/passwd", []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = NewKV(t.TempDir(), "a/b")
	assert.Error(t, err)
}
