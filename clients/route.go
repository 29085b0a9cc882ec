package clients

import (
	"net/url"
	"strings"
)

// Route pairs the concrete request path with the path template it was built
// from. Metrics are labelled by template so ids never explode cardinality.
type Route struct {
	Template string
	Path     string
}

// Path fills each "{...}" placeholder of template, left to right, with the
// path-escaped args. Missing args leave the placeholder in place.
func Path(template string, args ...string) Route {
	var b strings.Builder
	rest := template
	for _, arg := range args {
		start := strings.Index(rest, "{")
		if start < 0 {
			break
		}
		end := strings.Index(rest[start:], "}")
		if end < 0 {
			break
		}
		b.WriteString(rest[:start])
		b.WriteString(url.PathEscape(arg))
		rest = rest[start+end+1:]
	}
	b.WriteString(rest)
	return Route{Template: template, Path: b.String()}
}

func (r Route) String() string {
	return r.Path
}
