package catalog

import (
	"embed"
	"io/fs"
)

//go:embed gifs/*.gif
var bundled embed.FS

// Bundled returns the builtin GIFs shipped with the binary.
func Bundled() fs.FS {
	sub, err := fs.Sub(bundled, "gifs")
	if err != nil {
		panic(err)
	}
	return sub
}
