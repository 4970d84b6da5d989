// templates/funcs.go
package templates

import (
	"html/template"
	"strings"
)

// Funcs returns helpers available to all templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"lower": strings.ToLower,
		// {{ attrIf .View.Disabled "disabled" }}
		"attrIf": func(cond bool, attr string) template.HTMLAttr {
			if !cond {
				return ""
			}
			return template.HTMLAttr(attr)
		},
	}
}
