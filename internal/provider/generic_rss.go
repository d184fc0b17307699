package provider

import (
	"context"

	"github.com/amishk599/jobfeeds/internal/extract"
	"github.com/amishk599/jobfeeds/internal/model"
)

// GenericRSSProvider imports any RSS 2.0 job feed.
type GenericRSSProvider struct {
	src rssSource
}

var _ model.Provider = (*GenericRSSProvider)(nil)

func NewGenericRSS(deps Deps) *GenericRSSProvider {
	p := &GenericRSSProvider{}
	p.src = rssSource{id: GenericRSS, name: "Generic RSS", deps: deps, toJob: genericJob}
	return p
}

func (p *GenericRSSProvider) Info() model.ProviderInfo {
	return p.src.info(map[string]string{
		"title":       "title",
		"description": "description",
		"url":         "link",
		"date":        "pubDate",
		"company":     "company|source|author",
		"location":    "location|city|address",
		"salary":      "salary|compensation|pay",
	})
}

func (p *GenericRSSProvider) TestConnection(ctx context.Context, feed model.Feed) model.ConnectionResult {
	return p.src.testConnection(ctx, feed)
}

func (p *GenericRSSProvider) ImportJobs(ctx context.Context, feed model.Feed) (int, error) {
	return p.src.importJobs(ctx, feed)
}

func genericJob(it feedItem) model.Job {
	lines := extract.PlainLines(it.Description)

	company := it.field("company")
	if company == "" {
		company = it.Source
	}
	if company == "" {
		company = it.Author
	}
	if company == "" {
		company = extract.LabelledCompany(lines)
	}

	location := it.field("location", "city", "address")
	if location == "" {
		location = extract.LabelledLocation(lines)
	}

	salary := it.field("salary", "compensation", "pay")
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
		JobType:     it.field("job_type", "type"),
	}
}
