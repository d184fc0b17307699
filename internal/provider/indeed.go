package provider

import (
	"context"
	"regexp"
	"strings"

	"github.com/amishk599/jobfeeds/internal/extract"
	"github.com/amishk599/jobfeeds/internal/model"
)

var (
	// "Desenvolvedor Go - Acme em São Paulo, SP"
	indeedTitleCompany  = regexp.MustCompile(`(?i)^(.+?)\s*-\s*(.+?)(?:\s*em\s|$)`)
	indeedTitleLocation = regexp.MustCompile(`(?i)em\s+([^-]+)$`)
)

// IndeedProvider imports Indeed RSS search feeds, whose titles carry the
// company and location.
type IndeedProvider struct {
	src rssSource
}

var _ model.Provider = (*IndeedProvider)(nil)

func NewIndeed(deps Deps) *IndeedProvider {
	p := &IndeedProvider{}
	p.src = rssSource{id: Indeed, name: "Indeed", deps: deps, toJob: indeedJob}
	return p
}

func (p *IndeedProvider) Info() model.ProviderInfo {
	return p.src.info(map[string]string{
		"title":       "title",
		"description": "description",
		"url":         "link",
		"date":        "pubDate",
		"company":     "source|title",
		"location":    "location|title",
		"salary":      "salary|description",
	})
}

func (p *IndeedProvider) TestConnection(ctx context.Context, feed model.Feed) model.ConnectionResult {
	return p.src.testConnection(ctx, feed)
}

func (p *IndeedProvider) ImportJobs(ctx context.Context, feed model.Feed) (int, error) {
	return p.src.importJobs(ctx, feed)
}

func indeedJob(it feedItem) model.Job {
	lines := extract.PlainLines(it.Description)

	company := it.field("company")
	if company == "" {
		company = it.Source
	}
	if company == "" {
		if m := indeedTitleCompany.FindStringSubmatch(it.Title); len(m) == 3 {
			company = strings.TrimSpace(m[2])
		}
	}
	if company == "" {
		company = extract.LabelledCompany(lines)
	}

	location := it.field("location")
	if location == "" {
		if m := indeedTitleLocation.FindStringSubmatch(it.Title); len(m) == 2 {
			location = strings.TrimSpace(m[1])
		}
	}
	if location == "" {
		location = extract.LabelledLocation(lines)
	}

	salary := it.field("salary")
	if salary == "" {
		salary = extract.LabelledSalary(lines)
	}

	return model.Job{
		Title:       it.Title,
		Description: it.Description,
		URL:         it.Link,
		Date:        it.PubDate,
		Company:     company,
		Location:    location,
		Salary:      salary,
	}
}
