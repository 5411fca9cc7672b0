package generate

import "regexp"

var htmlDocument = regexp.MustCompile(`(?is)<!DOCTYPE html>.*?</html>`)

// ExtractHTML returns the first <!DOCTYPE html> ... </html> span of raw,
// matched case-insensitively across lines, and true. When raw holds no such
// span it is returned unchanged with false.
func ExtractHTML(raw string) (string, bool) {
	loc := htmlDocument.FindStringIndex(raw)
	if loc == nil {
		return raw, false
	}
	return raw[loc[0]:loc[1]], true
}
