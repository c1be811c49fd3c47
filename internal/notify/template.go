package notify

import "strings"

// Render substitutes {{key}} placeholders in a template with values from
// the map. Unknown keys render as empty strings. Substitution is literal
// text replacement; templates never evaluate expressions or run code, so
// operator-editable templates stay inert.
func Render(template string, values map[string]string) string {
	var sb strings.Builder
	sb.Grow(len(template))

	rest := template
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			sb.WriteString(rest)
			return sb.String()
		}
		end := strings.Index(rest[open+2:], "}}")
		if end < 0 {
			sb.WriteString(rest)
			return sb.String()
		}

		sb.WriteString(rest[:open])
		key := rest[open+2 : open+2+end]
		sb.WriteString(values[key])
		rest = rest[open+2+end+2:]
	}
}
