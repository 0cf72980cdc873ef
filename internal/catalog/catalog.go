// Package catalog enumerates, imports and deletes pet characters.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/anima/internal/model"
	"github.com/verte-zerg/anima/internal/sprite"
	"github.com/verte-zerg/anima/internal/store"
)

const gifExt = ".gif"

// Usage reports whether a character is assigned to an active pet.
type Usage interface {
	InUse(id string) bool
}

// Options configures a Catalog.
type Options struct {
	Builtins  fs.FS
	ImportDir string
	Store     *store.Store
	Logger    logrus.FieldLogger
	Now       func() time.Time
}

// Catalog is the universe of selectable characters: read-only builtins
// followed by user imports in import order.
type Catalog struct {
	builtins  fs.FS
	builtin   []model.Character
	importDir string
	store     *store.Store
	l         logrus.FieldLogger
	now       func() time.Time
}

// New indexes the builtins and reconciles the import directory with the store.
func New(ctx context.Context, opts Options) (*Catalog, error) {
	if opts.Builtins == nil {
		return nil, fmt.Errorf("builtin assets are required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Catalog{
		builtins:  opts.Builtins,
		importDir: opts.ImportDir,
		store:     opts.Store,
		l:         opts.Logger,
		now:       opts.Now,
	}
	if c.l == nil {
		c.l = logrus.StandardLogger()
	}

	entries, err := fs.ReadDir(opts.Builtins, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read builtin assets: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isGIFName(entry.Name()) {
			continue
		}
		c.builtin = append(c.builtin, model.Character{
			ID:     entry.Name(),
			Path:   entry.Name(),
			Origin: model.OriginBuiltin,
		})
	}
	if len(c.builtin) == 0 {
		return nil, fmt.Errorf("no builtin characters found")
	}

	if err := os.MkdirAll(c.importDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create import directory: %w", err)
	}
	if err := c.reconcile(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// reconcile drops index rows whose files vanished and adopts valid GIFs
// that were placed in the import directory by hand.
func (c *Catalog) reconcile(ctx context.Context) error {
	indexed, err := c.store.ListCharacters(ctx)
	if err != nil {
		return fmt.Errorf("failed to list imported characters: %w", err)
	}
	known := make(map[string]struct{}, len(indexed))
	for _, e := range indexed {
		if _, err := os.Stat(e.FilePath); errors.Is(err, os.ErrNotExist) {
			c.l.Warnf("Imported character [%s] is missing at [%s], removing it from the catalog.", e.ID, e.FilePath)
			if err := c.store.DeleteCharacter(ctx, e.ID); err != nil {
				return fmt.Errorf("failed to drop missing character: %w", err)
			}
			continue
		}
		known[e.ID] = struct{}{}
	}

	files, err := os.ReadDir(c.importDir)
	if err != nil {
		return fmt.Errorf("failed to read import directory: %w", err)
	}
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !isGIFName(name) || strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := known[name]; ok {
			continue
		}
		if c.isBuiltin(name) {
			c.l.Warnf("Ignoring [%s] in import directory: name clashes with a builtin.", name)
			continue
		}
		full := filepath.Join(c.importDir, name)
		info, err := probeFile(full)
		if err != nil {
			c.l.WithError(err).Warnf("Ignoring [%s] in import directory.", full)
			continue
		}
		if err := c.index(ctx, name, full, full, info); err != nil {
			return err
		}
		c.l.Infof("Adopted [%s] from the import directory.", name)
	}
	return nil
}

// List returns builtins first, then imports in import order.
func (c *Catalog) List(ctx context.Context) ([]model.Character, error) {
	entries, err := c.store.ListCharacters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list imported characters: %w", err)
	}
	result := make([]model.Character, 0, len(c.builtin)+len(entries))
	result = append(result, c.builtin...)
	for _, e := range entries {
		result = append(result, importedCharacter(e))
	}
	return result, nil
}

// Get looks a character up by id.
func (c *Catalog) Get(ctx context.Context, id string) (model.Character, error) {
	for _, ch := range c.builtin {
		if ch.ID == id {
			return ch, nil
		}
	}
	e, err := c.store.GetCharacter(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Character{}, fmt.Errorf("%w: %s", model.ErrUnknownCharacter, id)
	}
	if err != nil {
		return model.Character{}, err
	}
	return importedCharacter(e), nil
}

// Default returns the first builtin character.
func (c *Catalog) Default() model.Character {
	return c.builtin[0]
}

// Import validates sourcePath as a GIF and copies it into the import directory.
func (c *Catalog) Import(ctx context.Context, sourcePath string) (model.Character, error) {
	info, err := probeFile(sourcePath)
	if err != nil {
		var derr *model.AssetDecodeError
		if errors.As(err, &derr) {
			return model.Character{}, err
		}
		return model.Character{}, fmt.Errorf("failed to read %s: %w", sourcePath, err)
	}

	id, err := c.uniqueID(ctx, sanitizeName(filepath.Base(sourcePath)))
	if err != nil {
		return model.Character{}, err
	}
	dst := filepath.Join(c.importDir, id)
	if err := copyFile(sourcePath, dst); err != nil {
		return model.Character{}, fmt.Errorf("failed to copy %s: %w", sourcePath, err)
	}
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		abs = sourcePath
	}
	if err := c.index(ctx, id, dst, abs, info); err != nil {
		if rerr := os.Remove(dst); rerr != nil {
			// Best-effort cleanup of the copied file.
			_ = rerr
		}
		return model.Character{}, err
	}
	c.l.Infof("Imported character [%s] from [%s].", id, sourcePath)
	return model.Character{ID: id, Path: dst, Origin: model.OriginImported}, nil
}

// Delete removes an imported character that no active pet uses.
func (c *Catalog) Delete(ctx context.Context, id string, usage Usage) error {
	if c.isBuiltin(id) {
		return fmt.Errorf("%w: %s is a builtin character", model.ErrNotDeletable, id)
	}
	e, err := c.store.GetCharacter(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", model.ErrUnknownCharacter, id)
	}
	if err != nil {
		return err
	}
	if usage != nil && usage.InUse(id) {
		return fmt.Errorf("%w: %s is in use", model.ErrNotDeletable, id)
	}
	if err := os.Remove(e.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", e.FilePath, err)
	}
	if err := c.store.DeleteCharacter(ctx, id); err != nil {
		return fmt.Errorf("failed to unindex %s: %w", id, err)
	}
	c.l.Infof("Deleted imported character [%s].", id)
	return nil
}

// Open returns the GIF data of a character.
func (c *Catalog) Open(ch model.Character) (io.ReadCloser, error) {
	if ch.Builtin() {
		return c.builtins.Open(path.Clean(ch.Path))
	}
	return os.Open(ch.Path)
}

func (c *Catalog) isBuiltin(id string) bool {
	for _, ch := range c.builtin {
		if ch.ID == id {
			return true
		}
	}
	return false
}

func (c *Catalog) index(ctx context.Context, id, filePath, sourcePath string, info sprite.Info) error {
	err := c.store.InsertCharacter(ctx, store.Entry{
		ID:         id,
		FilePath:   filePath,
		SourcePath: sourcePath,
		Frames:     info.Frames,
		Width:      info.Width,
		Height:     info.Height,
		ImportedAt: c.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", id, err)
	}
	return nil
}

func (c *Catalog) uniqueID(ctx context.Context, name string) (string, error) {
	base := strings.TrimSuffix(name, gifExt)
	candidate := name
	for n := 2; ; n++ {
		taken, err := c.taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n) + gifExt
	}
}

func (c *Catalog) taken(ctx context.Context, id string) (bool, error) {
	if c.isBuiltin(id) {
		return true, nil
	}
	if _, err := c.store.GetCharacter(ctx, id); err == nil {
		return true, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	if _, err := os.Stat(filepath.Join(c.importDir, id)); err == nil {
		return true, nil
	}
	return false, nil
}

func importedCharacter(e store.Entry) model.Character {
	return model.Character{ID: e.ID, Path: e.FilePath, Origin: model.OriginImported}
}

func probeFile(p string) (sprite.Info, error) {
	f, err := os.Open(p)
	if err != nil {
		return sprite.Info{}, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close for read-only asset.
			_ = cerr
		}
	}()
	info, err := sprite.Probe(f)
	if err != nil {
		return sprite.Info{}, &model.AssetDecodeError{Path: p, Err: err}
	}
	return info, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()
	tmpFile, err := os.CreateTemp(filepath.Dir(dst), ".import-*.gif")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := io.Copy(tmpFile, in); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, dst)
}

func isGIFName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), gifExt)
}

// sanitizeName maps a file name to a safe character id ending in ".gif".
func sanitizeName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "character"
	}
	return out + gifExt
}
