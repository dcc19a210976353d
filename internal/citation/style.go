package citation

import (
	"strings"

	"github.com/matsen/bibpub/internal/bibtex"
	"github.com/matsen/bibpub/internal/reference"
)

// FormattedEntry is the citation text for one entry.
type FormattedEntry struct {
	Key  string
	Text Text
}

// Style formats entries as author list, title, venue and year.
type Style struct {
	// Strong names the author to emphasise, matched against last names.
	// Empty disables emphasis.
	Strong string
}

// FormatEntries formats entries in the order given. The style applies no
// sorting of its own.
func (s Style) FormatEntries(entries []*bibtex.Entry) []FormattedEntry {
	out := make([]FormattedEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, s.FormatEntry(e))
	}
	return out
}

// FormatEntry formats a single entry.
func (s Style) FormatEntry(e *bibtex.Entry) FormattedEntry {
	f := fields{e}

	var sentences []Text
	switch e.Type {
	case "article":
		sentences = []Text{
			s.authors(f),
			plain(f.clean("title")),
			join(", ", emph(f.clean("journal")), volume(f), f.pages(), plain(f.clean("year"))),
		}
	case "inproceedings", "conference", "incollection", "inbook":
		sentences = []Text{
			s.authors(f),
			plain(f.clean("title")),
			join(", ", in(f.clean("booktitle")), f.pages(), plain(f.clean("publisher")), plain(f.clean("year"))),
		}
	case "book", "booklet", "proceedings":
		sentences = []Text{
			s.authors(f),
			emph(f.clean("title")),
			join(", ", plain(f.clean("publisher")), plain(f.clean("address")), plain(f.clean("year"))),
		}
	case "phdthesis", "mastersthesis":
		kind := "PhD thesis"
		if e.Type == "mastersthesis" {
			kind = "Master's thesis"
		}
		if t := f.clean("type"); t != "" {
			kind = t
		}
		sentences = []Text{
			s.authors(f),
			plain(f.clean("title")),
			join(", ", plain(kind), plain(f.clean("school")), plain(f.clean("year"))),
		}
	case "techreport":
		kind := "Technical Report"
		if t := f.clean("type"); t != "" {
			kind = t
		}
		if n := f.clean("number"); n != "" {
			kind += " " + n
		}
		sentences = []Text{
			s.authors(f),
			plain(f.clean("title")),
			join(", ", plain(kind), plain(f.clean("institution")), plain(f.clean("year"))),
		}
	default:
		sentences = []Text{
			s.authors(f),
			plain(f.clean("title")),
			join(", ", plain(f.clean("howpublished")), plain(f.clean("year"))),
			plain(f.clean("note")),
		}
	}
	sentences = append(sentences, f.locator())

	return FormattedEntry{Key: e.Key, Text: sentencesText(sentences)}
}

// authors renders the name list, emphasising the strong author.
// Editors stand in when an entry has no authors.
func (s Style) authors(f fields) Text {
	raw, ok := f.e.Field("author")
	suffix := ""
	if !ok || strings.TrimSpace(raw) == "" {
		raw, ok = f.e.Field("editor")
		if !ok {
			return nil
		}
		suffix = ", editors"
	}

	var (
		names  []Text
		others bool
	)
	for _, a := range reference.ParseNames(raw) {
		if a.IsOthers() {
			others = true
			continue
		}
		ca := cleanAuthor(a)
		name := ca.FullName()
		if s.Strong != "" && ca.Matches(Clean(s.Strong)) {
			names = append(names, Text{{Kind: Strong, Text: name}})
		} else {
			names = append(names, plain(name))
		}
	}
	if len(names) == 1 && suffix != "" && !others {
		suffix = ", editor"
	}

	var out Text
	switch {
	case others && len(names) == 1:
		out = append(names[0], Span{Kind: Plain, Text: " et al."})
	case others:
		out = append(join(", ", names...), Span{Kind: Plain, Text: ", et al."})
	default:
		out = listJoin(names)
	}
	if suffix != "" && len(out) > 0 {
		out = append(out, Span{Kind: Plain, Text: suffix})
	}
	return out
}

// cleanAuthor strips markup from the name parts so "{\"O}zt{\"u}rk"
// matches a strong name given as "Öztürk".
func cleanAuthor(a reference.Author) reference.Author {
	return reference.Author{First: Clean(a.First), Von: Clean(a.Von), Last: Clean(a.Last), Jr: Clean(a.Jr)}
}

// listJoin joins names as "A", "A and B" or "A, B, and C".
func listJoin(names []Text) Text {
	switch len(names) {
	case 0:
		return nil
	case 1:
		return names[0]
	case 2:
		return join(" and ", names[0], names[1])
	}
	out := join(", ", names[:len(names)-1]...)
	out = append(out, Span{Kind: Plain, Text: ", and "})
	return append(out, names[len(names)-1]...)
}

// sentencesText ends each non-empty part with a period and joins them.
func sentencesText(parts []Text) Text {
	var out Text
	for _, p := range parts {
		if len(p) == 0 || p.String() == "" {
			continue
		}
		if len(out) > 0 {
			out = append(out, Span{Kind: Plain, Text: " "})
		}
		out = append(out, p...)
		if !p.endsWithPunct() {
			out = append(out, Span{Kind: Plain, Text: "."})
		}
	}
	return out
}

func in(booktitle string) Text {
	if booktitle == "" {
		return nil
	}
	return append(plain("In "), emph(booktitle)...)
}

// volume renders "12(3)" from volume and number.
func volume(f fields) Text {
	v := f.clean("volume")
	if n := f.clean("number"); n != "" {
		if v == "" {
			return plain("no. " + n)
		}
		v += "(" + n + ")"
	}
	if v == "" {
		return nil
	}
	return plain(v)
}

// fields reads cleaned entry fields.
type fields struct {
	e *bibtex.Entry
}

func (f fields) clean(name string) string {
	v, ok := f.e.Field(name)
	if !ok {
		return ""
	}
	return Clean(v)
}

func (f fields) pages() Text {
	p := f.clean("pages")
	if p == "" {
		return nil
	}
	if strings.ContainsAny(p, "–-,") {
		return plain("pp. " + p)
	}
	return plain("p. " + p)
}

// locator links the DOI, falling back to the URL.
func (f fields) locator() Text {
	if doi := f.clean("doi"); doi != "" {
		doi = strings.TrimPrefix(strings.TrimPrefix(doi, "https://doi.org/"), "doi:")
		return link("doi:"+doi, "https://doi.org/"+doi)
	}
	if u, ok := f.e.Field("url"); ok && strings.TrimSpace(u) != "" {
		u = strings.Trim(strings.TrimSpace(u), "{}")
		return link(u, u)
	}
	return nil
}
