package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the per-request timeout for remote links.
	DefaultTimeout = 15 * time.Second

	// DefaultRate is the default number of remote requests per second.
	DefaultRate = 2.0

	// UserAgent identifies link check requests.
	UserAgent = "bibpub-linkcheck/1.0"
)

// Status is the outcome of checking one link.
type Status string

const (
	StatusOK      Status = "ok"
	StatusBroken  Status = "broken"
	StatusWarning Status = "warning" // Reachable, but something looks off
	StatusSkipped Status = "skipped" // Scheme not checked (mailto:, ftp:, ...)
)

// Errors recorded in findings.
var (
	ErrNotFound    = errors.New("link target not found")
	ErrHTTPStatus  = errors.New("unexpected HTTP status")
	ErrNetwork     = errors.New("network error")
	ErrUnreadable  = errors.New("not a readable PDF")
	ErrDOIMismatch = errors.New("PDF DOI differs from entry DOI")
)

// Finding is the result for one link.
type Finding struct {
	Link
	Status     Status `json:"status"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Pages      int    `json:"pages,omitempty"` // Page count of a local PDF
	Err        error  `json:"-"`
}

// Broken counts findings with StatusBroken.
func Broken(findings []Finding) int {
	n := 0
	for _, f := range findings {
		if f.Status == StatusBroken {
			n++
		}
	}
	return n
}

// Checker checks links. Remote requests share one rate limiter.
type Checker struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseDir    string
	siteRoot   string
	logger     *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Checker) {
		c.httpClient = hc
	}
}

// WithRate sets the remote request rate in requests per second.
func WithRate(perSecond float64) Option {
	return func(c *Checker) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithBaseDir sets the directory relative local links resolve against.
func WithBaseDir(dir string) Option {
	return func(c *Checker) {
		c.baseDir = dir
	}
}

// WithSiteRoot sets the directory that root-relative links ("/pdfs/a.pdf")
// resolve against. Without it they resolve against the base directory.
func WithSiteRoot(dir string) Option {
	return func(c *Checker) {
		c.siteRoot = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChecker creates a Checker.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRate), 1),
		baseDir:    ".",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check verifies links in order. It returns early only when ctx is done.
func (c *Checker) Check(ctx context.Context, links []Link) ([]Finding, error) {
	findings := make([]Finding, 0, len(links))
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return findings, err
		}

		f := c.checkOne(ctx, link)
		if ctx.Err() != nil {
			return findings, ctx.Err()
		}
		if f.Status == StatusBroken {
			c.logger.Warn("broken link", "key", link.Key, "field", link.Field, "target", link.Target, "detail", f.Detail)
		} else {
			c.logger.Debug("checked link", "key", link.Key, "field", link.Field, "status", f.Status)
		}
		findings = append(findings, f)
	}
	return findings, nil
}

func (c *Checker) checkOne(ctx context.Context, link Link) Finding {
	u, err := url.Parse(link.Target)
	if err != nil {
		return broken(link, fmt.Errorf("%w: invalid URL: %v", ErrNotFound, err))
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return c.checkRemote(ctx, link)
	case "":
		return c.checkLocal(link, c.resolve(u.Path))
	case "file":
		return c.checkLocal(link, filepath.FromSlash(u.Path))
	default:
		return Finding{Link: link, Status: StatusSkipped, Detail: "scheme " + u.Scheme + " not checked"}
	}
}

// checkRemote sends HEAD, falling back to GET for servers that reject it.
func (c *Checker) checkRemote(ctx context.Context, link Link) Finding {
	status, err := c.request(ctx, http.MethodHead, link.Target)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = c.request(ctx, http.MethodGet, link.Target)
	}
	if err != nil {
		return broken(link, err)
	}

	f := Finding{Link: link, HTTPStatus: status, Status: StatusOK}
	if status >= 400 {
		f.Status = StatusBroken
		f.Err = fmt.Errorf("%w: %d", ErrHTTPStatus, status)
		f.Detail = f.Err.Error()
	}
	return f
}

func (c *Checker) request(ctx context.Context, method, target string) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	return resp.StatusCode, nil
}

// resolve maps a site link path to the filesystem. A leading slash means
// the site root, not the host root.
func (c *Checker) resolve(p string) string {
	if strings.HasPrefix(p, "/") {
		root := c.siteRoot
		if root == "" {
			root = c.baseDir
		}
		return filepath.Join(root, filepath.FromSlash(strings.TrimLeft(p, "/")))
	}
	return filepath.Join(c.baseDir, filepath.FromSlash(p))
}

func (c *Checker) checkLocal(link Link, path string) Finding {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return broken(link, fmt.Errorf("%w: %s", ErrNotFound, path))
		}
		return broken(link, fmt.Errorf("checking %s: %w", path, err))
	}
	if info.IsDir() {
		return broken(link, fmt.Errorf("%w: %s is a directory", ErrNotFound, path))
	}

	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return Finding{Link: link, Status: StatusOK}
	}

	pdfInfo, err := inspectPDF(path)
	if err != nil {
		return broken(link, fmt.Errorf("%w: %v", ErrUnreadable, err))
	}

	f := Finding{Link: link, Status: StatusOK, Pages: pdfInfo.Pages}
	if link.DOI != "" && pdfInfo.DOI != "" && !sameDOI(link.DOI, pdfInfo.DOI) {
		f.Status = StatusWarning
		f.Err = fmt.Errorf("%w: PDF has %s, entry has %s", ErrDOIMismatch, pdfInfo.DOI, link.DOI)
		f.Detail = f.Err.Error()
	}
	return f
}

func broken(link Link, err error) Finding {
	return Finding{Link: link, Status: StatusBroken, Detail: err.Error(), Err: err}
}
