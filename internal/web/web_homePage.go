package web

import (
	"github.com/gin-gonic/gin"

	"github.com/go-while/go-mcpdir/internal/listings"
)

// IndexPageData represents data for the server directory page
type IndexPageData struct {
	TemplateData
	Servers    []listings.Record // after filtering, file order
	Total      int               // before filtering
	Categories []string
	Tabs       []string
	Query      listings.Query
}

// homePage renders the directory. Read or parse failures are logged inside
// LoadOrEmpty and render as an empty list.
func (s *WebServer) homePage(c *gin.Context) {
	all := listings.LoadOrEmpty(s.Config.DataFile, s.Log)
	q := queryFromRequest(c)

	data := IndexPageData{
		TemplateData: s.getBaseTemplateData("MCP Server Directory"),
		Servers:      listings.Filter(all, q),
		Total:        len(all),
		Categories:   listings.Categories(all),
		Tabs:         listings.Tabs,
		Query:        q,
	}
	s.renderTemplate(c, data)
}
