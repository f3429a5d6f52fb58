package anki

import "strings"

// stripHTML removes markup from a note field, keeping the text content.
// Line breaks become newlines and common entities are decoded. Non-HTML
// references such as [sound:...] pass through untouched.
func stripHTML(s string) string {
	for _, br := range []string{"<br>", "<br/>", "<br />"} {
		s = strings.ReplaceAll(s, br, "\n")
	}

	var sb strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}

	out := sb.String()
	replacements := [][2]string{
		{"&nbsp;", " "},
		{"&amp;", "&"},
		{"&lt;", "<"},
		{"&gt;", ">"},
		{"&quot;", `"`},
		{"&#39;", "'"},
	}
	for _, rep := range replacements {
		out = strings.ReplaceAll(out, rep[0], rep[1])
	}
	return strings.TrimSpace(out)
}

// splitFields splits a note's flds column on the unit separator.
func splitFields(flds string) []string {
	return strings.Split(flds, fieldSep)
}

// joinFields joins note fields with the unit separator.
func joinFields(fields []string) string {
	return strings.Join(fields, fieldSep)
}
