package catalog

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io"
	"os"
	"path/filepath"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/anima/internal/model"
	"github.com/verte-zerg/anima/internal/store"
)

type usageFunc func(id string) bool

func (f usageFunc) InUse(id string) bool { return f(id) }

var unused = usageFunc(func(string) bool { return false })

type fixture struct {
	cat       *Catalog
	store     *store.Store
	importDir string
	srcDir    string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	st, err := store.Open(filepath.Join(root, "anima.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	l, _ := logtest.NewNullLogger()
	importDir := filepath.Join(root, "gifs")
	cat, err := New(context.Background(), Options{
		Builtins:  Bundled(),
		ImportDir: importDir,
		Store:     st,
		Logger:    l,
	})
	require.NoError(t, err)
	srcDir := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))
	return fixture{cat: cat, store: st, importDir: importDir, srcDir: srcDir}
}

func writeGIF(t *testing.T, path string) {
	t.Helper()
	palette := color.Palette{color.RGBA{}, color.RGBA{R: 0xff, A: 0xff}}
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), palette)
	img.SetColorIndex(1, 1, 1)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()
	require.NoError(t, gif.EncodeAll(f, &gif.GIF{Image: []*image.Paletted{img}, Delay: []int{10}}))
}

func ids(chars []model.Character) []string {
	out := make([]string, len(chars))
	for i, c := range chars {
		out[i] = c.ID
	}
	return out
}

func TestListBuiltinsFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chars, err := f.cat.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"blob.gif", "cat.gif", "ghost.gif"}, ids(chars))
	for _, c := range chars {
		assert.True(t, c.Builtin())
	}
	assert.Equal(t, "blob.gif", f.cat.Default().ID)

	src := filepath.Join(f.srcDir, "zeta.gif")
	writeGIF(t, src)
	_, err = f.cat.Import(ctx, src)
	require.NoError(t, err)
	src = filepath.Join(f.srcDir, "alpha.gif")
	writeGIF(t, src)
	_, err = f.cat.Import(ctx, src)
	require.NoError(t, err)

	chars, err = f.cat.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"blob.gif", "cat.gif", "ghost.gif", "zeta.gif", "alpha.gif"}, ids(chars))
}

func TestImportCopiesIntoImportDir(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src := filepath.Join(f.srcDir, "My Pet!.gif")
	writeGIF(t, src)

	ch, err := f.cat.Import(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, "My-Pet.gif", ch.ID)
	assert.Equal(t, model.OriginImported, ch.Origin)
	assert.Equal(t, filepath.Join(f.importDir, "My-Pet.gif"), ch.Path)
	_, err = os.Stat(ch.Path)
	require.NoError(t, err)

	got, err := f.cat.Get(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, ch, got)

	entry, err := f.store.GetCharacter(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Frames)
	assert.Equal(t, 4, entry.Width)
}

func TestImportDisambiguatesCollisions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src := filepath.Join(f.srcDir, "cat.gif")
	writeGIF(t, src)

	first, err := f.cat.Import(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, "cat-2.gif", first.ID, "builtin name must not be reused")

	second, err := f.cat.Import(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, "cat-3.gif", second.ID)
}

func TestImportRejectsNonGIF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before, err := f.cat.List(ctx)
	require.NoError(t, err)

	src := filepath.Join(f.srcDir, "notes.gif")
	require.NoError(t, os.WriteFile(src, []byte("definitely not a gif"), 0o644))
	_, err = f.cat.Import(ctx, src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidFormat))
	var derr *model.AssetDecodeError
	assert.True(t, errors.As(err, &derr))

	after, err := f.cat.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	files, err := os.ReadDir(f.importDir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestImportMissingSource(t *testing.T) {
	f := newFixture(t)
	_, err := f.cat.Import(context.Background(), filepath.Join(f.srcDir, "missing.gif"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, model.ErrInvalidFormat))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDeleteBuiltinIsRejected(t *testing.T) {
	f := newFixture(t)
	err := f.cat.Delete(context.Background(), "blob.gif", unused)
	assert.True(t, errors.Is(err, model.ErrNotDeletable))
	_, err = f.cat.Get(context.Background(), "blob.gif")
	assert.NoError(t, err)
}

func TestDeleteInUseIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src := filepath.Join(f.srcDir, "busy.gif")
	writeGIF(t, src)
	ch, err := f.cat.Import(ctx, src)
	require.NoError(t, err)

	inUse := usageFunc(func(id string) bool { return id == ch.ID })
	err = f.cat.Delete(ctx, ch.ID, inUse)
	assert.True(t, errors.Is(err, model.ErrNotDeletable))
	_, err = os.Stat(ch.Path)
	assert.NoError(t, err)
}

func TestDeleteImportedRemovesFileAndEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src := filepath.Join(f.srcDir, "gone.gif")
	writeGIF(t, src)
	ch, err := f.cat.Import(ctx, src)
	require.NoError(t, err)

	require.NoError(t, f.cat.Delete(ctx, ch.ID, unused))
	_, err = os.Stat(ch.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	chars, err := f.cat.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids(chars), ch.ID)

	err = f.cat.Delete(ctx, ch.ID, unused)
	assert.True(t, errors.Is(err, model.ErrUnknownCharacter))
}

func TestReconcileDropsMissingAndAdoptsValidFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src := filepath.Join(f.srcDir, "vanishing.gif")
	writeGIF(t, src)
	ch, err := f.cat.Import(ctx, src)
	require.NoError(t, err)
	require.NoError(t, os.Remove(ch.Path))

	writeGIF(t, filepath.Join(f.importDir, "manual.gif"))
	require.NoError(t, os.WriteFile(filepath.Join(f.importDir, "broken.gif"), []byte("nope"), 0o644))

	l, hook := logtest.NewNullLogger()
	reopened, err := New(ctx, Options{Builtins: Bundled(), ImportDir: f.importDir, Store: f.store, Logger: l})
	require.NoError(t, err)

	chars, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"blob.gif", "cat.gif", "ghost.gif", "manual.gif"}, ids(chars))
	assert.NotEmpty(t, hook.AllEntries())
}

func TestOpenReadsBuiltinAndImported(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rc, err := f.cat.Open(f.cat.Default())
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "GIF89a", string(data[:6]))

	src := filepath.Join(f.srcDir, "open.gif")
	writeGIF(t, src)
	ch, err := f.cat.Import(ctx, src)
	require.NoError(t, err)
	rc, err = f.cat.Open(ch)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"cat.gif":        "cat.gif",
		"My Pet!.GIF":    "My-Pet.gif",
		"???.gif":        "character.gif",
		"dancing_cat.gi": "dancing_cat.gif",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizeName(in), in)
	}
}
