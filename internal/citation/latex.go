package citation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// combining marks for TeX accent commands, used when no precomposed
// character is listed in composed.
var accentMarks = map[string]string{
	"'":  "\u0301",
	"`":  "\u0300",
	"^":  "\u0302",
	"\"": "\u0308",
	"~":  "\u0303",
	"=":  "\u0304",
	".":  "\u0307",
	"c":  "\u0327",
	"v":  "\u030c",
	"u":  "\u0306",
	"H":  "\u030b",
	"r":  "\u030a",
}

var composed = map[string]string{
	"'a": "á", "'e": "é", "'i": "í", "'o": "ó", "'u": "ú", "'y": "ý",
	"'A": "Á", "'E": "É", "'I": "Í", "'O": "Ó", "'U": "Ú", "'c": "ć", "'n": "ń", "'s": "ś", "'z": "ź",
	"`a": "à", "`e": "è", "`i": "ì", "`o": "ò", "`u": "ù",
	"`A": "À", "`E": "È", "`I": "Ì", "`O": "Ò", "`U": "Ù",
	"^a": "â", "^e": "ê", "^i": "î", "^o": "ô", "^u": "û",
	"^A": "Â", "^E": "Ê", "^I": "Î", "^O": "Ô", "^U": "Û",
	"\"a": "ä", "\"e": "ë", "\"i": "ï", "\"o": "ö", "\"u": "ü", "\"y": "ÿ",
	"\"A": "Ä", "\"E": "Ë", "\"I": "Ï", "\"O": "Ö", "\"U": "Ü",
	"~n": "ñ", "~a": "ã", "~o": "õ", "~N": "Ñ", "~A": "Ã", "~O": "Õ",
	"cc": "ç", "cC": "Ç", "cs": "ş", "cS": "Ş",
	"vc": "č", "vs": "š", "vz": "ž", "vr": "ř", "ve": "ě", "vC": "Č", "vS": "Š", "vZ": "Ž", "vR": "Ř",
	"ra": "å", "rA": "Å", "Ho": "ő", "Hu": "ű",
}

// symbols for argument-less TeX commands.
var symbols = map[string]string{
	"ss": "ß", "o": "ø", "O": "Ø", "ae": "æ", "AE": "Æ", "oe": "œ", "OE": "Œ",
	"aa": "å", "AA": "Å", "l": "ł", "L": "Ł", "i": "ı", "j": "ȷ",
	"textendash": "–", "textemdash": "—", "ldots": "…", "dots": "…",
	"textasciitilde": "~", "textasciicircum": "^", "textbackslash": "\\",
	"LaTeX": "LaTeX", "TeX": "TeX",
}

// Clean converts BibTeX field markup to plain Unicode text: protective
// braces are dropped, escapes and accent commands are decoded, "--" and
// "---" become dashes and "~" becomes a non-breaking space. Unknown
// commands such as \emph are dropped while their argument is kept.
func Clean(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		switch c := s[i]; c {
		case '{', '}':
			i++
		case '~':
			b.WriteString("\u00a0")
			i++
		case '-':
			switch {
			case strings.HasPrefix(s[i:], "---"):
				b.WriteString("—")
				i += 3
			case strings.HasPrefix(s[i:], "--"):
				b.WriteString("–")
				i += 2
			default:
				b.WriteByte('-')
				i++
			}
		case '\\':
			i = command(s, i+1, &b)
		default:
			b.WriteByte(c)
			i++
		}
	}
	return strings.TrimSpace(b.String())
}

// command decodes the TeX command starting at s[i] (just past the
// backslash) and returns the index after it.
func command(s string, i int, b *strings.Builder) int {
	if i >= len(s) {
		return i
	}
	c := s[i]

	if strings.IndexByte("&%$#_{} ", c) >= 0 {
		b.WriteByte(c)
		return i + 1
	}

	if strings.IndexByte("'`^\"~=.", c) >= 0 {
		return accent(s, string(c), i+1, b)
	}

	if !isLetter(c) {
		return i + 1
	}

	j := i
	for j < len(s) && isLetter(s[j]) {
		j++
	}
	name := s[i:j]

	if _, ok := accentMarks[name]; ok && len(name) == 1 {
		return accent(s, name, skipSpaces(s, j), b)
	}
	if sym, ok := symbols[name]; ok {
		b.WriteString(sym)
	}
	// TeX swallows the space after a command word.
	if j < len(s) && s[j] == ' ' {
		j++
	}
	return j
}

// accent applies an accent to the next letter, which may be braced.
func accent(s, mark string, i int, b *strings.Builder) int {
	braced := i < len(s) && s[i] == '{'
	if braced {
		i++
	}
	if i >= len(s) {
		return i
	}
	if braced && s[i] == '}' {
		// Empty argument: \'{}
		return i + 1
	}

	var (
		letter string
		r      rune
	)
	if s[i] == '\\' && i+1 < len(s) && (s[i+1] == 'i' || s[i+1] == 'j') {
		// Dotless i/j under an accent: \'{\i}
		r = rune(s[i+1])
		letter = string(r)
		i += 2
	} else {
		var size int
		r, size = utf8.DecodeRuneInString(s[i:])
		letter = s[i : i+size]
		i += size
	}

	if braced && i < len(s) && s[i] == '}' {
		i++
	}

	if pre, ok := composed[mark+letter]; ok {
		b.WriteString(pre)
	} else if r != utf8.RuneError && unicode.IsLetter(r) {
		b.WriteString(letter + accentMarks[mark])
	} else {
		b.WriteString(letter)
	}
	return i
}

func skipSpaces(s string, i int) int {
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return i
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
