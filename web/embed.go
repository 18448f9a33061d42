// Package web carries the browser client served by the API.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var content embed.FS

// StaticFS returns the client assets rooted at the static directory.
func StaticFS() fs.FS {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
