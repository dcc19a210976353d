package citation

import (
	"strings"
	"testing"

	"github.com/matsen/bibpub/internal/bibtex"
)

func newEntry(typ, key string, fields ...string) *bibtex.Entry {
	e := bibtex.NewEntry(typ, key)
	for i := 0; i+1 < len(fields); i += 2 {
		e.Set(fields[i], fields[i+1])
	}
	return e
}

func TestFormatEntry_ArticleHTML(t *testing.T) {
	e := newEntry("article", "Razik2019",
		"author", "Razik, Joseph and Doe, Jane",
		"title", "A {BibTeX} Study",
		"journal", "Nature",
		"volume", "5",
		"number", "2",
		"pages", "10--20",
		"year", "2019",
		"doi", "10.1000/xyz",
	)

	got := Style{Strong: "Razik"}.FormatEntry(e)
	if got.Key != "Razik2019" {
		t.Errorf("Key = %q, want Razik2019", got.Key)
	}

	want := `<strong>Joseph Razik</strong> and Jane Doe. A BibTeX Study. ` +
		`<em>Nature</em>, 5(2), pp. 10–20, 2019. ` +
		`<a href="https://doi.org/10.1000/xyz">doi:10.1000/xyz</a>.`
	if html := got.Text.Render(HTMLBackend{}); html != want {
		t.Errorf("Render(HTML) =\n%s\nwant\n%s", html, want)
	}
}

func TestFormatEntry_Types(t *testing.T) {
	tests := []struct {
		name  string
		entry *bibtex.Entry
		want  string
	}{
		{
			name: "inproceedings with others",
			entry: newEntry("inproceedings", "k",
				"author", "Smith, John and Doe, Jane and others",
				"title", "Paper",
				"booktitle", "Proc. of X",
				"pages", "1--2"),
			want: "John Smith, Jane Doe, et al. Paper. In Proc. of X, pp. 1–2.",
		},
		{
			name: "single author with others",
			entry: newEntry("misc", "k",
				"author", "Smith, John and others",
				"title", "Note"),
			want: "John Smith et al. Note.",
		},
		{
			name: "three authors",
			entry: newEntry("article", "k",
				"author", "A. One and B. Two and C. Three",
				"title", "Title?",
				"journal", "J",
				"year", "2001"),
			want: "A. One, B. Two, and C. Three. Title? J, 2001.",
		},
		{
			name: "book with editors",
			entry: newEntry("book", "k",
				"editor", "Ed, Alice and Tor, Bob",
				"title", "Rock \\& Roll",
				"publisher", "Pub",
				"address", "City",
				"year", "1999"),
			want: "Alice Ed and Bob Tor, editors. Rock & Roll. Pub, City, 1999.",
		},
		{
			name: "phdthesis",
			entry: newEntry("phdthesis", "k",
				"author", "Doe, Jane",
				"title", "Thesis",
				"school", "MIT",
				"year", "2010"),
			want: "Jane Doe. Thesis. PhD thesis, MIT, 2010.",
		},
		{
			name: "techreport",
			entry: newEntry("techreport", "k",
				"author", "Doe, Jane",
				"title", "Report",
				"number", "42",
				"institution", "Lab"),
			want: "Jane Doe. Report. Technical Report 42, Lab.",
		},
		{
			name:  "title only",
			entry: newEntry("misc", "k", "title", "Just a title"),
			want:  "Just a title.",
		},
		{
			name: "url locator",
			entry: newEntry("misc", "k",
				"title", "Page",
				"url", "https://example.org"),
			want: "Page. https://example.org.",
		},
		{
			name:  "no fields",
			entry: newEntry("misc", "k"),
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Style{}.FormatEntry(tt.entry).Text.String()
			if got != tt.want {
				t.Errorf("FormatEntry() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatEntry_StrongMatchesCleanedName(t *testing.T) {
	e := newEntry("misc", "k", "author", `{\"O}zt{\"u}rk, Ali and Doe, Jane`, "title", "T")

	got := Style{Strong: "Öztürk"}.FormatEntry(e).Text.Render(HTMLBackend{})
	if !strings.HasPrefix(got, "<strong>Ali Öztürk</strong>") {
		t.Errorf("strong author not emphasised: %s", got)
	}

	got = Style{}.FormatEntry(e).Text.Render(HTMLBackend{})
	if strings.Contains(got, "<strong>") {
		t.Errorf("empty Strong should not emphasise anyone: %s", got)
	}
}

func TestFormatEntries_PreservesOrder(t *testing.T) {
	entries := []*bibtex.Entry{
		newEntry("misc", "b", "year", "2001"),
		newEntry("misc", "a", "year", "2020"),
		newEntry("misc", "c"),
	}

	got := Style{}.FormatEntries(entries)
	if len(got) != len(entries) {
		t.Fatalf("FormatEntries() returned %d entries, want %d", len(got), len(entries))
	}
	for i, fe := range got {
		if fe.Key != entries[i].Key {
			t.Errorf("entry %d key = %q, want %q", i, fe.Key, entries[i].Key)
		}
	}
}

func TestHTMLBackend_Escapes(t *testing.T) {
	text := Text{
		{Kind: Plain, Text: "<script>"},
		{Kind: Link, Text: "a&b", Href: `https://x.org/?a="b"`},
	}
	got := text.Render(HTMLBackend{})
	want := `&lt;script&gt;<a href="https://x.org/?a=&#34;b&#34;">a&amp;b</a>`
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}
