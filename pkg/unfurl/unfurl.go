// Package unfurl fetches the title, description and preview image of a web
// page for the link tool.
package unfurl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rubiojr/edjs/pkg/log"
	"golang.org/x/net/html"
)

const DefaultMaxBytes = 1 << 20

var (
	ErrInvalidURL = errors.New("invalid url")
	ErrNotHTML    = errors.New("not an html page")
)

// Metadata is what the link tool shows for a URL.
type Metadata struct {
	Title       string
	Description string
	Image       string
}

// Fetcher retrieves link metadata.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Metadata, error)
}

// ValidURL parses raw and requires an absolute http or https URL with a host.
func ValidURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u, nil
}

// HTTPFetcher downloads pages over HTTP and reads their metadata from the
// document head.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	MaxBytes  int64
	log       *log.Logger
}

// NewHTTPFetcher returns a fetcher with the given request timeout.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		MaxBytes:  DefaultMaxBytes,
		log:       log.ForService("unfurl"),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Metadata, error) {
	u, err := ValidURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", u, resp.StatusCode)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != "text/html" && mediaType != "application/xhtml+xml" {
		return nil, fmt.Errorf("%w: %s", ErrNotHTML, mediaType)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}

	base := u
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}
	meta, err := Parse(io.LimitReader(resp.Body, limit), base)
	if err != nil {
		return nil, err
	}
	if f.log != nil {
		f.log.Debugf("unfurled %s: %q", u, meta.Title)
	}
	return meta, nil
}

// Parse extracts metadata from an HTML document. Open Graph values win over
// Twitter card values, which win over <title> and the description meta tag.
// The image URL is resolved against base.
func Parse(r io.Reader, base *url.URL) (*Metadata, error) {
	var (
		title, ogTitle, twTitle string
		desc, ogDesc, twDesc    string
		ogImage, twImage        string
		inTitle                 bool
	)

	z := html.NewTokenizer(r)
loop:
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != nil && err != io.EOF {
				return nil, fmt.Errorf("parsing html: %w", err)
			}
			break loop
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "body":
				break loop
			case "title":
				inTitle = tt == html.StartTagToken
			case "meta":
				if !hasAttr {
					continue
				}
				key, content := metaAttrs(z)
				switch key {
				case "og:title":
					ogTitle = firstNonEmpty(ogTitle, content)
				case "twitter:title":
					twTitle = firstNonEmpty(twTitle, content)
				case "og:description":
					ogDesc = firstNonEmpty(ogDesc, content)
				case "twitter:description":
					twDesc = firstNonEmpty(twDesc, content)
				case "description":
					desc = firstNonEmpty(desc, content)
				case "og:image", "og:image:url", "og:image:secure_url":
					ogImage = firstNonEmpty(ogImage, content)
				case "twitter:image", "twitter:image:src":
					twImage = firstNonEmpty(twImage, content)
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "title":
				inTitle = false
			case "head":
				break loop
			}
		case html.TextToken:
			if inTitle && title == "" {
				title = string(z.Text())
			}
		}
	}

	meta := &Metadata{
		Title:       clean(firstNonEmpty(ogTitle, twTitle, title)),
		Description: clean(firstNonEmpty(ogDesc, twDesc, desc)),
		Image:       resolve(base, firstNonEmpty(ogImage, twImage)),
	}
	return meta, nil
}

func metaAttrs(z *html.Tokenizer) (key, content string) {
	for {
		k, v, more := z.TagAttr()
		switch strings.ToLower(string(k)) {
		case "property", "name":
			if key == "" {
				key = strings.ToLower(strings.TrimSpace(string(v)))
			}
		case "content":
			content = string(v)
		}
		if !more {
			return key, content
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
