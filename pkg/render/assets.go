package render

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFiles embed.FS

// StylesheetPath is where the embedded stylesheet is served.
const StylesheetPath = "/static/app.css"

// StaticFS exposes the embedded assets rooted at the static directory.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
