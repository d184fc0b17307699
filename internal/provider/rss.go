package provider

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed/rss"
	"golang.org/x/net/html/charset"

	"github.com/amishk599/jobfeeds/internal/extract"
	"github.com/amishk599/jobfeeds/internal/ingest"
	"github.com/amishk599/jobfeeds/internal/model"
)

const (
	defaultRSSLimit = 50
	maxRSSLimit     = 200
)

var rssAccept = "application/rss+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"

// feedItem is one RSS item flattened for field extraction.
type feedItem struct {
	Title       string
	Link        string
	Description string
	PubDate     string
	Author      string
	Source      string
	Fields      map[string]string // other child elements by lower-case name
}

func (it feedItem) field(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(it.Fields[n]); v != "" {
			return v
		}
	}
	return ""
}

// parseItems reads RSS 2.0 items. Documents that are not RSS but contain
// bare <item> elements are read element by element.
func parseItems(body []byte) ([]feedItem, error) {
	var p rss.Parser
	feed, err := p.Parse(bytes.NewReader(body))
	if err == nil {
		items := make([]feedItem, 0, len(feed.Items))
		for _, it := range feed.Items {
			items = append(items, fromRSS(it))
		}
		return items, nil
	}

	items, bareErr := parseBareItems(body)
	if bareErr != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	return items, nil
}

func fromRSS(it *rss.Item) feedItem {
	fi := feedItem{
		Title:       strings.TrimSpace(it.Title),
		Link:        strings.TrimSpace(it.Link),
		Description: strings.TrimSpace(it.Description),
		PubDate:     strings.TrimSpace(it.PubDate),
		Author:      strings.TrimSpace(it.Author),
		Fields:      make(map[string]string, len(it.Custom)),
	}
	if it.Source != nil {
		fi.Source = strings.TrimSpace(it.Source.Title)
	}
	for k, v := range it.Custom {
		fi.Fields[strings.ToLower(k)] = v
	}
	return fi
}

type xmlChild struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
}

type bareItem struct {
	Children []xmlChild `xml:",any"`
}

// newXMLDecoder returns a decoder that converts documents declaring a
// non-UTF-8 encoding (ISO-8859-1, windows-1252, ...) to UTF-8.
func newXMLDecoder(body []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

func parseBareItems(body []byte) ([]feedItem, error) {
	dec := newXMLDecoder(body)
	dec.Strict = false

	var items []feedItem
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return items, nil
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || !strings.EqualFold(se.Name.Local, "item") {
			continue
		}

		var raw bareItem
		if err := dec.DecodeElement(&raw, &se); err != nil {
			return nil, err
		}
		fi := feedItem{Fields: make(map[string]string)}
		for _, c := range raw.Children {
			name := strings.ToLower(c.XMLName.Local)
			text := strings.TrimSpace(c.Text)
			switch name {
			case "title":
				fi.Title = text
			case "link":
				fi.Link = text
			case "description":
				fi.Description = text
			case "pubdate":
				fi.PubDate = text
			case "author":
				fi.Author = text
			case "source":
				fi.Source = text
			default:
				fi.Fields[name] = text
			}
		}
		items = append(items, fi)
	}
}

// rssSource is the fetch, parse and import cycle shared by RSS providers.
type rssSource struct {
	id    ID
	name  string
	deps  Deps
	toJob func(it feedItem) model.Job
}

func (s *rssSource) info(mapping map[string]string) model.ProviderInfo {
	return model.ProviderInfo{
		ID:      string(s.id),
		Name:    s.name,
		Type:    "rss",
		Channel: "rss",
		Params: []model.ParamSpec{
			{Key: "limit", Label: "Items limit", Kind: "int", Default: defaultRSSLimit, Min: 1, Max: maxRSSLimit,
				Description: "Maximum number of items read from the feed per import"},
			{Key: "default_category", Label: "Default category", Kind: "string",
				Description: "Category term attached to every imported job"},
			{Key: "default_region", Label: "Default region", Kind: "string",
				Description: "Region term attached to every imported job"},
		},
		FieldMapping: mapping,
	}
}

func (s *rssSource) fetch(ctx context.Context, feed model.Feed) ([]model.Job, error) {
	if strings.TrimSpace(feed.URL) == "" {
		return nil, &model.ConfigError{Field: "url", Msg: "feed URL is required"}
	}

	body, err := s.deps.Getter.Get(ctx, feed.URL, http.Header{"Accept": {rssAccept}})
	if err != nil {
		return nil, err
	}
	items, err := parseItems(body)
	if err != nil {
		return nil, err
	}

	limit := min(max(feed.Params.Int("limit", defaultRSSLimit), 1), maxRSSLimit)

	jobs := make([]model.Job, 0, len(items))
	for _, it := range items {
		if it.Title == "" || strings.TrimSpace(extract.PlainText(it.Description)) == "" {
			continue
		}
		jobs = append(jobs, s.toJob(it))
		if len(jobs) == limit {
			break
		}
	}
	return jobs, nil
}

func (s *rssSource) testConnection(ctx context.Context, feed model.Feed) model.ConnectionResult {
	ctx, cancel := context.WithTimeout(ctx, testTimeout)
	defer cancel()

	jobs, err := s.fetch(ctx, feed)
	if err != nil {
		return failure("%v", err)
	}
	return model.ConnectionResult{
		Success:    true,
		Message:    fmt.Sprintf("Connection successful. Found %d jobs.", len(jobs)),
		JobsFound:  len(jobs),
		SampleJobs: sample(jobs),
	}
}

func (s *rssSource) importJobs(ctx context.Context, feed model.Feed) (int, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, importTimeout)
	jobs, err := s.fetch(fetchCtx, feed)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("%s import: %w", s.id, err)
	}
	return s.deps.Importer.Import(ctx, ingest.Batch{
		ProviderID: string(s.id),
		Channel:    "rss",
		Feed:       feed,
		Jobs:       jobs,
	})
}
