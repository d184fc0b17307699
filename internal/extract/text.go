// Package extract derives normalised job fields from free text: plain text
// and sanitised HTML, labelled values, job type, employment type, region and
// remote-work flags.
package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s and strips diacritics so "São Paulo" and "SAO PAULO"
// compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// PlainText strips markup and collapses whitespace.
func PlainText(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return strings.Join(strings.Fields(content), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

var blockSelector = "p, div, li, tr, h1, h2, h3, h4, h5, h6, blockquote"

// PlainLines strips markup but keeps line structure: <br> and block elements
// end a line. Labelled values ("Empresa: Acme") are looked up in this form.
func PlainLines(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelector).AfterHtml("\n")

	lines := strings.Split(doc.Text(), "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// allowedTags maps element names to the attributes they may keep.
type allowedTags map[string][]string

// postTags is the allow-list for imported record content.
var postTags = allowedTags{
	"p": nil, "br": nil, "strong": nil, "b": nil, "em": nil, "i": nil, "u": nil,
	"ul": nil, "ol": nil, "li": nil, "blockquote": nil,
	"h1": nil, "h2": nil, "h3": nil, "h4": nil, "h5": nil, "h6": nil,
	"a":   {"href", "title"},
	"div": {"class"}, "span": {"class"},
}

// descriptionTags is the narrower allow-list for API descriptions.
var descriptionTags = allowedTags{
	"p": nil, "br": nil, "strong": nil, "b": nil, "em": nil, "i": nil,
	"ul": nil, "ol": nil, "li": nil,
	"h3": nil, "h4": nil, "h5": nil, "h6": nil,
	"div": {"class"}, "span": {"class"},
}

// SanitizeHTML keeps only a safe subset of markup. Disallowed elements are
// unwrapped, script and style are dropped with their content.
func SanitizeHTML(content string) string {
	return sanitize(content, postTags)
}

func sanitize(content string, allowed allowedTags) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return PlainText(content)
	}
	body := doc.Find("body")
	body.Find("script, style, iframe, object, embed, noscript").Remove()

	body.Find("*").Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		attrs, ok := allowed[name]
		if !ok {
			if s.Contents().Length() > 0 {
				s.Contents().Unwrap()
			} else {
				s.Remove()
			}
			return
		}

		var drop []string
		for _, a := range s.Nodes[0].Attr {
			if !contains(attrs, a.Key) {
				drop = append(drop, a.Key)
			}
		}
		for _, k := range drop {
			s.RemoveAttr(k)
		}
		if href, ok := s.Attr("href"); ok && !safeHref(href) {
			s.RemoveAttr("href")
		}
	})

	out, err := body.Html()
	if err != nil {
		return PlainText(content)
	}
	return strings.TrimSpace(out)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func safeHref(href string) bool {
	h := strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(h, "http://") || strings.HasPrefix(h, "https://") || strings.HasPrefix(h, "mailto:")
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	doubleBreak  = regexp.MustCompile(`(?i)<br\s*/?>\s*<br\s*/?>`)
	emptyPara    = regexp.MustCompile(`<p>\s*</p>`)
)

// CleanDescription normalises an API-supplied description: whitespace is
// collapsed, markup is limited to simple formatting, double line breaks
// become paragraph breaks and the result is wrapped in a paragraph.
func CleanDescription(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	content = whitespaceRe.ReplaceAllString(content, " ")
	content = sanitize(content, descriptionTags)
	content = doubleBreak.ReplaceAllString(content, "</p><p>")
	content = "<p>" + content + "</p>"
	content = emptyPara.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}
