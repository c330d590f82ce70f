package web

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// EmbeddedFS carries the page templates and the fallback static assets.
//
//go:embed static/* templates/*.html
var EmbeddedFS embed.FS

const faviconContentType = "image/vnd.microsoft.icon"

// ListEmbeddedFiles returns a list of all embedded files for debugging
func ListEmbeddedFiles() ([]string, error) {
	var files []string
	err := fs.WalkDir(EmbeddedFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// diskFile returns the path of name below dir if it is a regular file.
// name is cleaned as an absolute URL path first so it cannot leave dir.
func diskFile(dir, name string) (string, bool) {
	clean := path.Clean("/" + name)
	full := filepath.Join(dir, filepath.FromSlash(clean))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", false
	}
	return full, true
}

// StaticHandler serves files from the static directory on disk, falling
// back to the embedded copies.
func (s *WebServer) StaticHandler() gin.HandlerFunc {
	staticFS, err := fs.Sub(EmbeddedFS, "static")
	if err != nil {
		panic("Failed to create embedded static filesystem: " + err.Error())
	}
	fileServer := http.FileServer(http.FS(staticFS))

	return func(c *gin.Context) {
		name := c.Param("filepath")
		if name == "" || name == "/" || strings.HasSuffix(name, "/") {
			// no directory listings
			c.String(http.StatusNotFound, "404 page not found")
			return
		}

		if full, ok := diskFile(s.Config.StaticDir, name); ok {
			c.File(full)
			return
		}

		clean := strings.TrimPrefix(path.Clean("/"+name), "/")
		if _, err := fs.Stat(staticFS, clean); err != nil {
			c.String(http.StatusNotFound, "404 page not found")
			return
		}

		c.Header("Cache-Control", "public, max-age=3600") // browser caches an hour
		req := c.Request.Clone(c.Request.Context())
		req.URL.Path = "/" + clean
		fileServer.ServeHTTP(c.Writer, req)
	}
}

// faviconHandler serves favicon.ico from the static directory, or the
// embedded icon when the directory has none.
func (s *WebServer) faviconHandler(c *gin.Context) {
	if full, ok := diskFile(s.Config.StaticDir, "favicon.ico"); ok {
		// set before ServeFile so it is not sniffed from the extension
		c.Header("Content-Type", faviconContentType)
		c.File(full)
		return
	}
	content, err := fs.ReadFile(EmbeddedFS, "static/favicon.ico")
	if err != nil {
		c.String(http.StatusNotFound, "404 page not found")
		return
	}
	c.Data(http.StatusOK, faviconContentType, content)
}
