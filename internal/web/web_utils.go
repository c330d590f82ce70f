package web

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-mcpdir/internal/config"
	"github.com/go-while/go-mcpdir/internal/listings"
)

// TemplateData represents common template data
type TemplateData struct {
	Title       string
	CurrentTime string
	AppVersion  string
	Debug       bool
}

var tabLabels = map[string]string{
	"all":         "All",
	"featured":    "Featured",
	"database":    "Databases",
	"search":      "Search",
	"project":     "Project Management",
	"development": "Development",
	"cloud":       "Cloud",
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"categoryClass": listings.CategoryClass,
		"pluralServers": pluralServers,
		"tabLabel": func(tab string) string {
			if label, ok := tabLabels[tab]; ok {
				return label
			}
			return tab
		},
		"rawJSON": func(r listings.Record) string {
			return string(r.Raw)
		},
	}
}

// parseTemplates loads every page template from the embedded filesystem.
func parseTemplates() (*template.Template, error) {
	return template.New("pages").Funcs(templateFuncs()).ParseFS(EmbeddedFS, "templates/*.html")
}

// pluralServers renders "1 Server" / "N Servers".
func pluralServers(n int) string {
	if n == 1 {
		return "1 Server"
	}
	return strconv.Itoa(n) + " Servers"
}

// getBaseTemplateData creates base template data used by all page handlers
func (s *WebServer) getBaseTemplateData(title string) TemplateData {
	return TemplateData{
		Title:       title,
		CurrentTime: time.Now().Format("2006-01-02 15:04:05"),
		AppVersion:  config.AppVersion,
		Debug:       s.Config.Debug,
	}
}

// renderTemplate executes the base layout around the page's content block.
// Output is buffered so a failing template never sends a partial 200.
func (s *WebServer) renderTemplate(c *gin.Context, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "base", data); err != nil {
		s.Log.Errorf("[WEB]: Error rendering template: %v", err)
		c.String(http.StatusInternalServerError, "Template error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// queryFromRequest reads the index filters from the query string.
func queryFromRequest(c *gin.Context) listings.Query {
	q := listings.Query{
		Search:   strings.TrimSpace(c.Query("q")),
		Category: strings.TrimSpace(c.Query("category")),
		Tab:      strings.ToLower(strings.TrimSpace(c.Query("tab"))),
	}
	if q.Tab == "" {
		q.Tab = "all"
	}
	return q
}
