// Package reference defines the author-name types shared by the bibliography
// parser, the citation formatter and the search index.
package reference

import "strings"

// Author represents one name from a BibTeX name list.
type Author struct {
	First string `json:"first,omitempty"` // Given name(s)
	Von   string `json:"von,omitempty"`   // Lowercase particle: "van", "de la"
	Last  string `json:"last"`            // Family name
	Jr    string `json:"jr,omitempty"`    // Suffix: "Jr.", "III"
}

// Others is the BibTeX placeholder for truncated author lists.
const Others = "others"

// IsOthers reports whether the author is the "and others" placeholder.
func (a Author) IsOthers() bool {
	return a.First == "" && a.Von == "" && a.Jr == "" && strings.EqualFold(a.Last, Others)
}

// Matches reports whether name equals the author's last name, ignoring case.
// The von particle is accepted as part of the name ("van Rossum").
func (a Author) Matches(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if strings.EqualFold(a.Last, name) {
		return true
	}
	return a.Von != "" && strings.EqualFold(a.Von+" "+a.Last, name)
}

// FullName formats an author as "First von Last, Jr".
func (a Author) FullName() string {
	parts := make([]string, 0, 3)
	if a.First != "" {
		parts = append(parts, a.First)
	}
	if a.Von != "" {
		parts = append(parts, a.Von)
	}
	parts = append(parts, a.Last)
	name := strings.Join(parts, " ")
	if a.Jr != "" {
		name += ", " + a.Jr
	}
	return name
}

// ShortName formats an author as "F. von Last" with abbreviated given names.
func (a Author) ShortName() string {
	var b strings.Builder
	for _, given := range strings.Fields(a.First) {
		b.WriteString(initial(given))
		b.WriteString(" ")
	}
	if a.Von != "" {
		b.WriteString(a.Von)
		b.WriteString(" ")
	}
	b.WriteString(a.Last)
	if a.Jr != "" {
		b.WriteString(", ")
		b.WriteString(a.Jr)
	}
	return b.String()
}

// initial abbreviates one given name, keeping hyphenated parts: "Jean-Paul" -> "J.-P.".
func initial(given string) string {
	parts := strings.Split(given, "-")
	for i, p := range parts {
		r := []rune(p)
		if len(r) == 0 {
			continue
		}
		parts[i] = string(r[0]) + "."
	}
	return strings.Join(parts, "-")
}
