package blob

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func putString(t *testing.T, store Store, key, payload string) Info {
	t.Helper()
	info, err := store.Put(context.Background(), key, strings.NewReader(payload), PutOptions{ContentType: "text/plain"})
	require.NoError(t, err)
	return info
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	var buf bytes.Buffer
	_, err := io.Copy(&buf, rc)
	require.NoError(t, err)
	return buf.String()
}

func TestFilesystemRoundTrip(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)

	info := putString(t, store, "archives/run1/rounds.json", `[{"id":"r1"}]`)
	require.Equal(t, "archives/run1/rounds.json", info.Key)
	require.Equal(t, int64(13), info.Size)
	require.Equal(t, "text/plain", info.ContentType)

	got, rc, err := store.Get(context.Background(), "archives/run1/rounds.json")
	require.NoError(t, err)
	require.Equal(t, `[{"id":"r1"}]`, readAll(t, rc))
	require.Equal(t, info.ETag, got.ETag)

	head, err := store.Head(context.Background(), "archives/run1/rounds.json")
	require.NoError(t, err)
	require.Equal(t, info.Size, head.Size)

	removed, err := store.Delete(context.Background(), "archives/run1/rounds.json")
	require.NoError(t, err)
	require.True(t, removed)
	_, _, err = store.Get(context.Background(), "archives/run1/rounds.json")
	require.Error(t, err)
}

func TestFilesystemPutIsCreateOnly(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)

	putString(t, store, "a/b.json", "one")
	_, err = store.Put(context.Background(), "a/b.json", strings.NewReader("two"), PutOptions{})
	require.Error(t, err)
}

func TestFilesystemRejectsEscapingKeys(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"../outside", "/abs/path", "a/../../b"} {
		_, err := store.Put(context.Background(), key, strings.NewReader("x"), PutOptions{})
		require.Error(t, err, "key %q", key)
	}
}

func TestFilesystemList(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystem(root)
	require.NoError(t, err)

	putString(t, store, "archives/run1/rounds.json", "{}")
	putString(t, store, "archives/run1/scores.json", "{}")
	putString(t, store, "archives/run2/rounds.json", "{}")

	infos, err := store.List(context.Background(), "archives/run1/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Equal(t, "archives/run1/rounds.json", infos[0].Key)
	require.Equal(t, "archives/run1/scores.json", infos[1].Key)

	// meta sidecars stay internal
	matches, err := filepath.Glob(filepath.Join(root, "archives", "run1", "*.meta"))
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemory()

	putString(t, store, "k1", "payload")
	_, err := store.Put(context.Background(), "k1", strings.NewReader("again"), PutOptions{})
	require.Error(t, err)

	_, rc, err := store.Get(context.Background(), "k1")
	require.NoError(t, err)
	require.Equal(t, "payload", readAll(t, rc))

	infos, err := store.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, infos, 1)

	_, err = store.PresignURL(context.Background(), "k1", SignedURLOptions{})
	require.ErrorIs(t, err, ErrUnsupported)

	removed, err := store.Delete(context.Background(), "k1")
	require.NoError(t, err)
	require.True(t, removed)
	_, err = store.Head(context.Background(), "k1")
	require.Error(t, err)
}

func TestS3MockRoundTrip(t *testing.T) {
	store := NewS3MockForTests()
	ctx := context.Background()

	_, err := store.Put(ctx, "archives/run1/rounds.json", strings.NewReader(`{"n":1}`), PutOptions{ContentType: "application/json"})
	require.NoError(t, err)

	info, rc, err := store.Get(ctx, "archives/run1/rounds.json")
	require.NoError(t, err)
	require.Equal(t, `{"n":1}`, readAll(t, rc))
	require.Equal(t, "archives/run1/rounds.json", info.Key)

	_, err = store.Put(ctx, "archives/run1/scores.json", strings.NewReader("[]"), PutOptions{})
	require.NoError(t, err)

	infos, err := store.List(ctx, "archives/run1/")
	require.NoError(t, err)
	require.Len(t, infos, 2)

	_, err = store.Delete(ctx, "archives/run1/scores.json")
	require.NoError(t, err)
	infos, err = store.List(ctx, "archives/run1/")
	require.NoError(t, err)
	require.Len(t, infos, 1)
}
