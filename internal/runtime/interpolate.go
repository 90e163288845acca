package runtime

import "regexp"

// placeholder matches {{name}}; surrounding whitespace inside the braces is ignored.
var placeholder = regexp.MustCompile(`\{\{\s*([\p{L}\p{N}_]+)\s*\}\}`)

// Interpolate replaces every {{name}} in template with vars[name].
// Placeholders without a mapping are left verbatim so missing variables stay visible.
func Interpolate(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}
	return placeholder.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return match
	})
}
