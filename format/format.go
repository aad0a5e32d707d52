package format

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/scipunch/issuesync/fetcher/types"
)

// DefaultLocale is used when no locale is configured or nothing matches.
const DefaultLocale = "zh-CN"

// Numeric year/month/day layouts of the supported locales.
// The first entry is the fallback.
var dateLayouts = []struct {
	tag    language.Tag
	layout string
}{
	{language.MustParse("zh-CN"), "2006/01/02"},
	{language.MustParse("zh-TW"), "2006/01/02"},
	{language.MustParse("ja-JP"), "2006/01/02"},
	{language.MustParse("en-US"), "01/02/2006"},
	{language.MustParse("en-GB"), "02/01/2006"},
	{language.MustParse("de-DE"), "02.01.2006"},
	{language.MustParse("fr-FR"), "02/01/2006"},
	{language.MustParse("ru-RU"), "02.01.2006"},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(dateLayouts))
	for i, l := range dateLayouts {
		tags[i] = l.tag
	}
	return language.NewMatcher(tags)
}()

// Formatter renders issues into gist/chat content. It holds no mutable
// state, so Content and Title are deterministic.
type Formatter struct {
	footerURL  string
	dateLayout string
	location   *time.Location
}

// New creates a formatter. locale is a BCP 47 tag; a nil location means UTC.
func New(footerURL, locale string, location *time.Location) (Formatter, error) {
	layout, err := DateLayout(locale)
	if err != nil {
		return Formatter{}, err
	}
	if location == nil {
		location = time.UTC
	}
	return Formatter{
		footerURL:  footerURL,
		dateLayout: layout,
		location:   location,
	}, nil
}

// DateLayout returns the time layout of the closest supported locale.
func DateLayout(locale string) (string, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "", fmt.Errorf("invalid locale '%s' with %w", locale, err)
	}
	_, index, _ := matcher.Match(tag)
	return dateLayouts[index].layout, nil
}

// Content returns the issue body followed by a horizontal rule, the labels
// line when there are labels, and the attribution footer.
func (f Formatter) Content(issue types.Issue) string {
	var b strings.Builder
	b.WriteString(issue.Body)
	b.WriteString("\n\n---\n")
	if len(issue.Labels) > 0 {
		b.WriteString("Labels: ")
		b.WriteString(strings.Join(issue.Labels, ", "))
		b.WriteString("\n\n")
	}
	b.WriteString("Original post: ")
	b.WriteString(f.footerURL)
	return b.String()
}

// Title returns "<title> - <date>" with the creation date in the
// formatter's locale and time zone.
func (f Formatter) Title(issue types.Issue) string {
	date := issue.CreatedAt.In(f.location).Format(f.dateLayout)
	return fmt.Sprintf("%s - %s", issue.Title, date)
}
