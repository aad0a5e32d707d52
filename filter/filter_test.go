package filter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubChecker struct {
	images map[string]bool
	calls  []string
}

func (p *stubChecker) IsImage(_ context.Context, rawURL string) bool {
	p.calls = append(p.calls, rawURL)
	return p.images[rawURL]
}

func TestImageLinks(t *testing.T) {
	body := "Hello ![a](http://x.com/1.png) world ![b](http://x.com/2.txt)"
	assert.Equal(t, []string{"http://x.com/1.png", "http://x.com/2.txt"}, ImageLinks(body))
}

func TestImageLinks_IgnoresPlainLinks(t *testing.T) {
	body := "see [docs](https://x.com/a.png) and ![](https://x.com/b.jpg)"
	assert.Equal(t, []string{"https://x.com/b.jpg"}, ImageLinks(body))
}

func TestImageURLs_ExtensionHeuristic(t *testing.T) {
	body := "Hello ![a](http://x.com/1.png) world ![b](http://x.com/2.txt)"
	assert.Equal(t, []string{"http://x.com/1.png"}, ImageURLs(context.Background(), body, nil))
}

func TestImageURLs_KeepsBodyOrder(t *testing.T) {
	body := "![3](https://x.com/c.gif)\n![1](https://x.com/a.JPG)\n![2](https://x.com/b.webp?raw=true)"
	assert.Equal(t,
		[]string{"https://x.com/c.gif", "https://x.com/a.JPG", "https://x.com/b.webp?raw=true"},
		ImageURLs(context.Background(), body, nil))
}

func TestImageURLs_ChecksOnlyExtensionlessLinks(t *testing.T) {
	attachment := "https://github.com/user-attachments/assets/0f9c"
	body := "![a](" + attachment + ") ![b](https://x.com/2.txt) ![c](https://x.com/3.png) ![d](ftp://x.com/e)"
	checker := &stubChecker{images: map[string]bool{attachment: true}}

	got := ImageURLs(context.Background(), body, checker)

	assert.Equal(t, []string{attachment, "https://x.com/3.png"}, got)
	assert.Equal(t, []string{attachment}, checker.calls)
}

func TestIsImageURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{url: "http://x.com/1.png", want: true},
		{url: "https://x.com/path/photo.JPEG", want: true},
		{url: "https://x.com/photo.svg#frag", want: true},
		{url: "http://x.com/2.txt", want: false},
		{url: "https://x.com/no-extension", want: false},
		{url: "/relative/1.png", want: false},
		{url: "ftp://x.com/1.png", want: false},
		{url: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsImageURL(tt.url))
		})
	}
}

func TestActiveDocumentIDs(t *testing.T) {
	ids := []string{"abc", "", " def ", "YOUR_GIST_ID_3", "YOUR_GIST_ID", "ghi"}
	assert.Equal(t, []string{"abc", "def", "ghi"}, ActiveDocumentIDs(ids))
	assert.Empty(t, ActiveDocumentIDs(nil))
}

func TestHeadChecker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		switch r.URL.Path {
		case "/image":
			w.Header().Set("Content-Type", "image/png")
		case "/missing":
			w.Header().Set("Content-Type", "image/png")
			w.WriteHeader(http.StatusNotFound)
		default:
			w.Header().Set("Content-Type", "text/html")
		}
	}))
	defer srv.Close()

	p := HeadChecker{Client: srv.Client()}
	ctx := context.Background()

	assert.True(t, p.IsImage(ctx, srv.URL+"/image"))
	assert.False(t, p.IsImage(ctx, srv.URL+"/page"))
	assert.False(t, p.IsImage(ctx, srv.URL+"/missing"))
}
