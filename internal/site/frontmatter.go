package site

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the optional YAML header of a content page.
type FrontMatter struct {
	Title    string `yaml:"title"`
	Template string `yaml:"template"` // Page layout; default "page"
}

var fence = []byte("---")

// SplitFrontMatter separates a leading "---" delimited YAML block from the
// Markdown body. Content without a header is returned unchanged.
func SplitFrontMatter(src []byte) (FrontMatter, []byte, error) {
	var fm FrontMatter

	src = bytes.TrimPrefix(src, []byte("\ufeff"))
	first, rest, ok := cutLine(src)
	if !ok || !bytes.Equal(bytes.TrimRight(first, " \t\r"), fence) {
		return fm, src, nil
	}

	var header []byte
	for len(rest) > 0 {
		line, next, _ := cutLine(rest)
		if bytes.Equal(bytes.TrimRight(line, " \t\r"), fence) {
			if err := yaml.Unmarshal(header, &fm); err != nil {
				return fm, nil, fmt.Errorf("parsing front matter: %w", err)
			}
			return fm, next, nil
		}
		header = append(header, line...)
		header = append(header, '\n')
		rest = next
	}
	return fm, nil, fmt.Errorf("parsing front matter: missing closing %q", fence)
}

// cutLine splits off the first line. ok is false when src is empty.
func cutLine(src []byte) (line, rest []byte, ok bool) {
	if len(src) == 0 {
		return nil, nil, false
	}
	line, rest, _ = bytes.Cut(src, []byte("\n"))
	return line, rest, true
}
