package listings

import (
	"sort"
	"strings"
)

// Query narrows the index page. The zero value matches everything.
type Query struct {
	Search   string // case-insensitive substring of name or description
	Category string // exact category
	Tab      string // key of TabCategories; "" and "all" match everything
}

// TabCategories maps index tabs to the categories they show.
var TabCategories = map[string][]string{
	"featured":    {"Search Engine", "Database", "Version Control", "Cloud Storage"},
	"database":    {"Database"},
	"search":      {"Search Engine"},
	"project":     {"Project Management"},
	"development": {"Development Tools", "Version Control", "API Integration"},
	"cloud":       {"Cloud Storage"},
}

// Tabs lists the index tabs in display order.
var Tabs = []string{"all", "featured", "database", "search", "project", "development", "cloud"}

var categoryClasses = map[string]string{
	"Database":               "category-database",
	"Search Engine":          "category-search",
	"Web Scraping & Content": "category-web",
	"File Management":        "category-workflow",
	"Version Control":        "category-development",
	"Project Management":     "category-project",
	"Knowledge Base":         "category-knowledge",
	"Cloud Storage":          "category-cloud",
	"Maps & Location":        "category-web",
	"Language & Translation": "category-knowledge",
	"API Integration":        "category-development",
	"Development Tools":      "category-development",
	"Messaging":              "category-workflow",
	"Productivity":           "category-workflow",
}

// CategoryClass returns the CSS class for a category, "" when unknown.
func CategoryClass(category string) string {
	return categoryClasses[category]
}

// IsEmpty reports whether q filters nothing.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Search) == "" && q.Category == "" && (q.Tab == "" || q.Tab == "all")
}

// Filter returns the records matching q, in their original order.
func Filter(records []Record, q Query) []Record {
	if q.IsEmpty() {
		return records
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))
	tabCats, tabFilters := TabCategories[q.Tab]

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if tabFilters && !contains(tabCats, r.Category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Name), search) &&
			!strings.Contains(strings.ToLower(r.Description), search) {
			continue
		}
		if q.Category != "" && r.Category != q.Category {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Categories returns the distinct non-empty categories, sorted.
func Categories(records []Record) []string {
	seen := make(map[string]bool)
	var cats []string
	for _, r := range records {
		if r.Category == "" || seen[r.Category] {
			continue
		}
		seen[r.Category] = true
		cats = append(cats, r.Category)
	}
	sort.Strings(cats)
	return cats
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
