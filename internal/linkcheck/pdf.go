package linkcheck

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DOI pattern: 10.XXXX/... where XXXX is 4+ digits
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// doiPages is how many leading pages are searched for a DOI.
const doiPages = 3

// pdfInfo describes a local PDF.
type pdfInfo struct {
	Pages int
	DOI   string // First DOI found in the leading pages, empty if none
}

// inspectPDF opens a PDF and reads its page count and printed DOI.
func inspectPDF(path string) (info pdfInfo, err error) {
	// ledongthuc/pdf panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return info, err
	}
	defer f.Close()

	info.Pages = r.NumPage()
	if info.Pages < 1 {
		return info, fmt.Errorf("pdf has no pages")
	}

	maxPages := doiPages
	if info.Pages < maxPages {
		maxPages = info.Pages
	}
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := pageText(page)
		if err != nil {
			continue
		}

		if doi := findDOI(text); doi != "" {
			info.DOI = doi
			break
		}
	}

	return info, nil
}

// pageText extracts a page's text. A page whose text cannot be read is
// skipped rather than failing the whole file.
func pageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading page text: %v", r)
		}
	}()
	return page.GetPlainText(nil)
}

// findDOI finds a DOI in text.
func findDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

// isValidDOI performs basic validation on a DOI.
func isValidDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	return slashIdx != -1 && slashIdx < len(doi)-1
}

// sameDOI compares DOIs case-insensitively, ignoring resolver prefixes.
func sameDOI(a, b string) bool {
	return strings.EqualFold(normalizeDOI(a), normalizeDOI(b))
}

func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "doi:"} {
		if len(doi) >= len(prefix) && strings.EqualFold(doi[:len(prefix)], prefix) {
			return doi[len(prefix):]
		}
	}
	return doi
}
