// Package web holds the browser chat UI served at "/".
package web

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var staticFS embed.FS

// Static returns the UI files rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
