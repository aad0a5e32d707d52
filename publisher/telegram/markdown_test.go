package telegram

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gotd/td/telegram/message/entity"
	"github.com/gotd/td/telegram/message/styling"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scipunch/issuesync/fetcher/types"
	"github.com/scipunch/issuesync/format"
)

// build applies the message parts the way the sender does and returns the
// resulting text and entities.
func build(t *testing.T, parts []styling.StyledTextOption) (string, []tg.MessageEntityClass) {
	t.Helper()
	var b entity.Builder
	require.NoError(t, styling.Perform(&b, parts...))
	return b.Complete()
}

// entityText returns the UTF-16 addressed slice of text an entity covers
func entityText(text string, e tg.MessageEntityClass) string {
	units := []rune(text)
	var out []rune
	pos := 0
	for _, r := range units {
		width := 1
		if r > 0xFFFF {
			width = 2
		}
		if pos >= e.GetOffset() && pos < e.GetOffset()+e.GetLength() {
			out = append(out, r)
		}
		pos += width
	}
	return string(out)
}

func textURLs(entities []tg.MessageEntityClass) []*tg.MessageEntityTextURL {
	var out []*tg.MessageEntityTextURL
	for _, e := range entities {
		if u, ok := e.(*tg.MessageEntityTextURL); ok {
			out = append(out, u)
		}
	}
	return out
}

func TestMessageText_LinkBecomesURLEntity(t *testing.T) {
	text, entities := build(t, messageText("Hello", "see [the docs](https://example.com/docs) please"))

	assert.Equal(t, "Hello\n\nsee the docs please", text)

	links := textURLs(entities)
	require.Len(t, links, 1)
	assert.Equal(t, "https://example.com/docs", links[0].URL)
	assert.Equal(t, "the docs", entityText(text, links[0]))
}

func TestMessageText_TitleIsBold(t *testing.T) {
	text, entities := build(t, messageText("Hello", "body"))

	require.NotEmpty(t, entities)
	bold, ok := entities[0].(*tg.MessageEntityBold)
	require.True(t, ok)
	assert.Equal(t, "Hello", entityText(text, bold))
}

func TestMessageText_Emphasis(t *testing.T) {
	text, entities := build(t, messageText("T", "**strong** and _soft_ and ~~gone~~ and `code`"))

	assert.Equal(t, "T\n\nstrong and soft and gone and code", text)

	var got []string
	for _, e := range entities[1:] {
		switch e.(type) {
		case *tg.MessageEntityBold:
			got = append(got, "bold:"+entityText(text, e))
		case *tg.MessageEntityItalic:
			got = append(got, "italic:"+entityText(text, e))
		case *tg.MessageEntityStrike:
			got = append(got, "strike:"+entityText(text, e))
		case *tg.MessageEntityCode:
			got = append(got, "code:"+entityText(text, e))
		}
	}
	assert.ElementsMatch(t, []string{"bold:strong", "italic:soft", "strike:gone", "code:code"}, got)
}

func TestMessageText_ImageBecomesLink(t *testing.T) {
	text, entities := build(t, messageText("T", "look ![a cat](https://x.com/cat.png)"))

	assert.Equal(t, "T\n\nlook a cat", text)
	links := textURLs(entities)
	require.Len(t, links, 1)
	assert.Equal(t, "https://x.com/cat.png", links[0].URL)
}

func TestMessageText_Blocks(t *testing.T) {
	body := "# Heading\n\nfirst line\nsecond line\n\n- one\n- two\n\n1. a\n2. b\n\n```go\nx := 1\n```"
	text, entities := build(t, messageText("T", body))

	assert.Equal(t,
		"T\n\nHeading\n\nfirst line\nsecond line\n\n• one\n• two\n\n1. a\n2. b\n\nx := 1",
		text)

	var pre *tg.MessageEntityPre
	for _, e := range entities {
		if p, ok := e.(*tg.MessageEntityPre); ok {
			pre = p
		}
	}
	require.NotNil(t, pre)
	assert.Equal(t, "go", pre.Language)
	assert.Equal(t, "x := 1", entityText(text, pre))
}

func TestMessageText_EscapesMarkup(t *testing.T) {
	text, entities := build(t, messageText("T", `a < b & "c" <span>raw</span> \*not bold\*`))

	assert.Equal(t, `T`+"\n\n"+`a < b & "c" <span>raw</span> *not bold*`, text)
	assert.Len(t, entities, 1, "only the title is formatted")
}

func TestMessageText_FormattedContent(t *testing.T) {
	f, err := format.New("https://simonaking.com/blog/weibo", "zh-CN", time.UTC)
	require.NoError(t, err)
	issue := types.Issue{
		Title:     "Hello",
		Body:      "Hi [there](https://example.com)",
		CreatedAt: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Labels:    []string{"bug", "discussion"},
	}

	text, entities := build(t, messageText(issue.Title, f.Content(issue)))

	assert.Equal(t,
		"Hello\n\nHi there\n\n---\n\nLabels: bug, discussion\n\nOriginal post: https://simonaking.com/blog/weibo",
		text)

	var urls []string
	for _, l := range textURLs(entities) {
		urls = append(urls, l.URL)
	}
	assert.Equal(t, []string{"https://example.com", "https://simonaking.com/blog/weibo"}, urls)
}

func TestPlainText(t *testing.T) {
	text, entities := build(t, plainText("T", "**raw** [x](https://x.com)"))

	assert.Equal(t, "T\n\n**raw** [x](https://x.com)", text)
	assert.Len(t, entities, 1)
}

func TestIsEntityError(t *testing.T) {
	assert.True(t, isEntityError(fmt.Errorf("send: %w", tgerr.New(400, "ENTITY_BOUNDS_INVALID"))))
	assert.True(t, isEntityError(tgerr.New(400, "ENTITY_TEXTURL_INVALID")))
	assert.False(t, isEntityError(tgerr.New(400, "MESSAGE_TOO_LONG")))
	assert.False(t, isEntityError(errors.New("connection reset")))
	assert.False(t, isEntityError(nil))
}
