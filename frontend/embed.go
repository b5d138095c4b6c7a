// Package frontend embeds the desktop UI served by the Wails asset server.
package frontend

import (
	"embed"
	"io/fs"
)

//go:embed index.html app.js style.css
var assets embed.FS

// Assets returns the UI files with index.html at the root.
func Assets() fs.FS {
	return assets
}
