// Package web embeds the single-page ranking UI.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var assets embed.FS

// Static returns the UI assets rooted at static/
func Static() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		// static/ is embedded at build time
		panic(err)
	}
	return sub
}

// IndexHandler serves index.html
func IndexHandler() http.Handler {
	fsys := Static()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, fsys, "index.html")
	})
}

// AssetHandler serves files under /static/
func AssetHandler() http.Handler {
	return http.StripPrefix("/static/", http.FileServerFS(Static()))
}
