package filter

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// PlaceholderPrefix marks a document ID that was never filled in
const PlaceholderPrefix = "YOUR_GIST_ID"

// imagePattern matches Markdown image syntax ![alt](url)
var imagePattern = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)

var imageExtensions = map[string]bool{
	".apng":  true,
	".avif":  true,
	".bmp":   true,
	".gif":   true,
	".heic":  true,
	".ico":   true,
	".jfif":  true,
	".jpeg":  true,
	".jpg":   true,
	".pjp":   true,
	".pjpeg": true,
	".png":   true,
	".svg":   true,
	".tif":   true,
	".tiff":  true,
	".webp":  true,
}

// ImageChecker decides whether an extension-less URL points at an image
type ImageChecker interface {
	IsImage(ctx context.Context, rawURL string) bool
}

// ImageLinks returns every URL embedded as a Markdown image, in body order
func ImageLinks(body string) []string {
	matches := imagePattern.FindAllStringSubmatch(body, -1)
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		links = append(links, strings.TrimSpace(m[2]))
	}
	return links
}

// ImageURLs returns the image links of body that pass the image heuristic.
// checker may be nil, in which case only the extension check is applied.
func ImageURLs(ctx context.Context, body string, checker ImageChecker) []string {
	var urls []string
	for _, link := range ImageLinks(body) {
		if IsImageURL(link) {
			urls = append(urls, link)
			continue
		}
		if checker != nil && isHTTPURL(link) && !hasExtension(link) && checker.IsImage(ctx, link) {
			urls = append(urls, link)
			continue
		}
		slog.Debug("skipping non-image link", "url", link)
	}
	return urls
}

// IsImageURL reports whether rawURL is an http(s) URL whose path ends in a
// known image extension
func IsImageURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || !isHTTPScheme(u.Scheme) || u.Host == "" {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}

// ActiveDocumentIDs drops empty and placeholder IDs, keeping order
func ActiveDocumentIDs(ids []string) []string {
	active := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || strings.HasPrefix(id, PlaceholderPrefix) {
			continue
		}
		active = append(active, id)
	}
	return active
}

// HeadChecker asks the server for the content type with a HEAD request
type HeadChecker struct {
	Client *http.Client
}

func (p HeadChecker) IsImage(ctx context.Context, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		slog.Debug("image type check failed", "url", rawURL, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "image/")
}

func isHTTPURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && isHTTPScheme(u.Scheme) && u.Host != ""
}

func isHTTPScheme(scheme string) bool {
	return scheme == "http" || scheme == "https"
}

func hasExtension(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return path.Ext(u.Path) != ""
}
