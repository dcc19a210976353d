package reference

import (
	"strings"
	"unicode"
)

// ParseNames splits a BibTeX name list ("A and B and others") into authors.
// Separators inside braces are ignored, so "{Barnes and Noble}" stays one name.
func ParseNames(field string) []Author {
	var authors []Author
	for _, name := range splitTopLevel(field) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		authors = append(authors, ParseName(name))
	}
	return authors
}

// ParseName parses a single name in one of the three BibTeX forms:
// "First von Last", "von Last, First" or "von Last, Jr, First".
func ParseName(name string) Author {
	parts := splitCommas(name)
	switch len(parts) {
	case 1:
		return parseFirstVonLast(words(parts[0]))
	case 2:
		von, last := splitVonLast(words(parts[0]))
		return Author{First: parts[1], Von: von, Last: last}
	default:
		von, last := splitVonLast(words(parts[0]))
		return Author{First: strings.Join(parts[2:], ", "), Von: von, Last: last, Jr: parts[1]}
	}
}

// parseFirstVonLast handles names without commas.
// The von part starts at the first lowercase word that is not the last word.
func parseFirstVonLast(ws []string) Author {
	if len(ws) == 0 {
		return Author{}
	}
	if len(ws) == 1 {
		return Author{Last: ws[0]}
	}
	vonStart, vonEnd := -1, -1
	for i := 0; i < len(ws)-1; i++ {
		if isLowerWord(ws[i]) {
			if vonStart < 0 {
				vonStart = i
			}
			vonEnd = i + 1
		}
	}
	if vonStart < 0 {
		return Author{
			First: strings.Join(ws[:len(ws)-1], " "),
			Last:  ws[len(ws)-1],
		}
	}
	return Author{
		First: strings.Join(ws[:vonStart], " "),
		Von:   strings.Join(ws[vonStart:vonEnd], " "),
		Last:  strings.Join(ws[vonEnd:], " "),
	}
}

// splitVonLast separates leading lowercase words from the last name.
// The final word always belongs to the last name.
func splitVonLast(ws []string) (string, string) {
	end := 0
	for end < len(ws)-1 && isLowerWord(ws[end]) {
		end++
	}
	return strings.Join(ws[:end], " "), strings.Join(ws[end:], " ")
}

// isLowerWord reports whether the first letter outside braces is lowercase.
// Braced words like "{de}" count as uppercase, matching BibTeX.
func isLowerWord(w string) bool {
	for _, r := range w {
		if r == '{' {
			return false
		}
		if unicode.IsLetter(r) {
			return unicode.IsLower(r)
		}
	}
	return false
}

// splitTopLevel splits on the word "and" at brace depth zero.
func splitTopLevel(s string) []string {
	var (
		out   []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
		if depth != 0 || !isSpace(s[i]) {
			continue
		}
		// Look for " and " with any whitespace around it.
		j := i
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j+3 < len(s) && strings.EqualFold(s[j:j+3], "and") && isSpace(s[j+3]) {
			out = append(out, s[start:i])
			k := j + 3
			for k < len(s) && isSpace(s[k]) {
				k++
			}
			start = k
			i = k - 1
		}
	}
	return append(out, s[start:])
}

// splitCommas splits on commas at brace depth zero and trims each part.
func splitCommas(s string) []string {
	var (
		out   []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

// words splits on whitespace at brace depth zero.
func words(s string) []string {
	var (
		out   []string
		depth int
		cur   strings.Builder
	)
	for _, r := range s {
		switch {
		case r == '{':
			depth++
		case r == '}' && depth > 0:
			depth--
		}
		if depth == 0 && unicode.IsSpace(r) {
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
