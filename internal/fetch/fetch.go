// Package fetch retrieves raw source documents for a run.
// A source is "-" for standard input, an http(s) URL, or a local file path.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Size limits applied while reading a source.
const (
	MaxFileSizeBytes = 20 * 1024 * 1024
	MaxHTTPSizeBytes = 20 * 1024 * 1024
)

// HTTPRequestTimeout bounds one whole HTTP fetch.
const HTTPRequestTimeout = 30 * time.Second

// UserAgent is sent with every HTTP request.
const UserAgent = "dendro/0.1"

// Document is a fetched source held in memory.
type Document struct {
	Source  string
	Body    []byte
	HTML    bool
	BaseURL *url.URL // set for URL sources only
}

// Text returns the body as a string.
func (d *Document) Text() string {
	return string(d.Body)
}

// Fetcher loads sources. The zero value is not usable; call New.
type Fetcher struct {
	Client   *http.Client
	Stdin    io.Reader
	MaxBytes int64
}

// New returns a Fetcher with a timeout-bounded HTTP client reading stdin from os.Stdin.
func New() *Fetcher {
	return &Fetcher{
		Client: &http.Client{
			Timeout: HTTPRequestTimeout,
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: HTTPRequestTimeout / 6}).DialContext,
				TLSHandshakeTimeout:   HTTPRequestTimeout / 6,
				ResponseHeaderTimeout: HTTPRequestTimeout / 2,
			},
		},
		Stdin:    os.Stdin,
		MaxBytes: MaxFileSizeBytes,
	}
}

// IsURL reports whether source names an http or https resource.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Fetch reads source fully and sniffs whether it holds HTML.
// ctx cancels HTTP requests; file and stdin reads ignore it.
func (f *Fetcher) Fetch(ctx context.Context, source string) (*Document, error) {
	var (
		doc *Document
		err error
	)
	switch {
	case source == "-":
		doc, err = f.fromReader("stdin", f.Stdin, f.MaxBytes)
	case IsURL(source):
		doc, err = f.fromURL(ctx, source)
	default:
		doc, err = f.fromFile(source)
	}
	if err != nil {
		return nil, err
	}
	slog.Debug("Fetched source", "source", source, "bytes", len(doc.Body), "html", doc.HTML)
	return doc, nil
}

func (f *Fetcher) fromReader(name string, r io.Reader, limit int64) (*Document, error) {
	if r == nil {
		return nil, fmt.Errorf("no reader for %q", name)
	}
	body, err := readLimited(r, limit, name)
	if err != nil {
		return nil, err
	}
	return &Document{Source: name, Body: body, HTML: LooksLikeHTML(body, "")}, nil
}

func (f *Fetcher) fromURL(ctx context.Context, source string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for URL %q: %w", source, err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL %q: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP request failed for URL %q: status %d", source, resp.StatusCode)
	}
	if resp.ContentLength > MaxHTTPSizeBytes {
		return nil, fmt.Errorf("HTTP content too large (%d bytes > %d bytes limit)", resp.ContentLength, MaxHTTPSizeBytes)
	}

	body, err := readLimited(resp.Body, MaxHTTPSizeBytes, source)
	if err != nil {
		return nil, err
	}
	base, _ := url.Parse(source)
	return &Document{
		Source:  source,
		Body:    body,
		HTML:    LooksLikeHTML(body, resp.Header.Get("Content-Type")),
		BaseURL: base,
	}, nil
}

func (f *Fetcher) fromFile(path string) (*Document, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file %q does not exist", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to access file %q: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%q is a directory", path)
	}
	if info.Size() > f.MaxBytes {
		return nil, fmt.Errorf("file %q is too large (%d bytes > %d bytes limit)", path, info.Size(), f.MaxBytes)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", path, err)
	}
	defer file.Close()

	doc, err := f.fromReader(path, file, f.MaxBytes)
	if err != nil {
		return nil, err
	}
	doc.Source = path
	return doc, nil
}

// readLimited reads r fully and fails once more than limit bytes arrive.
func readLimited(r io.Reader, limit int64, source string) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", source, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("content from %q exceeds size limit of %d bytes", source, limit)
	}
	return body, nil
}

// LooksLikeHTML reports whether body is an HTML document. An explicit
// text/html content type wins; otherwise the leading bytes are sniffed.
func LooksLikeHTML(body []byte, contentType string) bool {
	if strings.HasPrefix(strings.ToLower(contentType), "text/html") {
		return true
	}
	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	if strings.HasPrefix(http.DetectContentType(head), "text/html") {
		return true
	}
	trimmed := bytes.ToLower(bytes.TrimSpace(head))
	return bytes.HasPrefix(trimmed, []byte("<!doctype html")) || bytes.HasPrefix(trimmed, []byte("<html"))
}
