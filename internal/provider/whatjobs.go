package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobfeeds/internal/extract"
	"github.com/amishk599/jobfeeds/internal/filter"
	"github.com/amishk599/jobfeeds/internal/ingest"
	"github.com/amishk599/jobfeeds/internal/model"
)

const (
	whatJobsBaseURL      = "https://api.whatjobs.com/api/v1/jobs.xml"
	defaultBotUserAgent  = "JobFeedsBot/1.0"
	whatJobsMaxLimit     = 100
	whatJobsUnknownAge   = 999
	whatJobsPublisherKey = "publisher_id"
)

// whatJobsResponse is the <data><job>...</job></data> document.
type whatJobsResponse struct {
	Jobs []whatJobsJob `xml:"job"`
}

type whatJobsJob struct {
	Title       string  `xml:"title"`
	Company     string  `xml:"company"`
	Location    string  `xml:"location"`
	Snippet     string  `xml:"snippet"`
	URL         string  `xml:"url"`
	JobType     string  `xml:"job_type"`
	Salary      string  `xml:"salary"`
	Logo        string  `xml:"logo"`
	AgeDays     *string `xml:"age_days"`
	Site        string  `xml:"site"`
	Date        string  `xml:"date"`
	Category    string  `xml:"category"`
	Subcategory string  `xml:"subcategory"`
	Country     string  `xml:"country"`
	State       string  `xml:"state"`
	City        string  `xml:"city"`
	PostalCode  string  `xml:"postal_code"`
}

// whatJobsParams are the typed feed parameters of a WhatJobs feed.
type whatJobsParams struct {
	Publisher string
	Keyword   string
	Location  string
	Limit     int // 0 means not sent
	Page      int // 0 means not sent
	AgeDays   int
	OnlyToday bool
}

func decodeWhatJobsParams(feed model.Feed) (whatJobsParams, error) {
	p := whatJobsParams{
		Publisher: strings.TrimSpace(feed.Auth[whatJobsPublisherKey]),
		Keyword:   feed.Params.String("keyword"),
		Location:  feed.Params.String("location"),
		OnlyToday: !feed.Params.Has("only_today") || feed.Params.Bool("only_today"),
	}
	if p.Publisher == "" {
		p.Publisher = feed.Params.String("publisher")
	}
	if p.Publisher == "" && feed.URL != "" {
		if u, err := url.Parse(feed.URL); err == nil {
			p.Publisher = strings.TrimSpace(u.Query().Get("publisher"))
		}
	}
	if p.Publisher == "" {
		return p, &model.ConfigError{Field: whatJobsPublisherKey, Msg: "Publisher ID is required for WhatJobs API"}
	}

	if feed.Params.Has("limit") {
		p.Limit = min(whatJobsMaxLimit, max(1, feed.Params.Int("limit", 1)))
	}
	if feed.Params.Has("page") {
		p.Page = max(1, feed.Params.Int("page", 1))
	}
	if feed.Params.Has("age_days") {
		p.AgeDays = max(0, feed.Params.Int("age_days", 0))
	}
	return p, nil
}

// WhatJobsProvider imports jobs from the WhatJobs publisher XML API.
type WhatJobsProvider struct {
	deps    Deps
	baseURL string
}

var _ model.Provider = (*WhatJobsProvider)(nil)

func NewWhatJobs(deps Deps) *WhatJobsProvider {
	base := deps.WhatJobsBaseURL
	if base == "" {
		base = whatJobsBaseURL
	}
	return &WhatJobsProvider{deps: deps, baseURL: base}
}

func (p *WhatJobsProvider) Info() model.ProviderInfo {
	return model.ProviderInfo{
		ID:      string(WhatJobs),
		Name:    "WhatJobs",
		Type:    "api",
		Channel: "whatjobs",
		AuthFields: []model.FieldSpec{
			{Key: whatJobsPublisherKey, Label: "Publisher ID", Required: true,
				Description: "Your WhatJobs Publisher ID (required for API access)"},
		},
		Params: []model.ParamSpec{
			{Key: "keyword", Label: "Keywords", Kind: "string", Description: "Job search keywords"},
			{Key: "location", Label: "Location", Kind: "string", Description: "City, state or country"},
			{Key: "limit", Label: "Results limit", Kind: "int", Default: 50, Min: 1, Max: whatJobsMaxLimit,
				Description: "Maximum number of jobs per request"},
			{Key: "page", Label: "Page", Kind: "int", Default: 1, Min: 1, Description: "Page number"},
			{Key: "age_days", Label: "Age in days", Kind: "int", Default: 0, Min: 0,
				Description: "Maximum posting age requested from the API"},
			{Key: "only_today", Label: "Only today's jobs", Kind: "bool", Default: true,
				Description: "Import only jobs posted today (age_days = 0)"},
		},
		FieldMapping: map[string]string{
			"title":       "title",
			"company":     "company",
			"location":    "location",
			"description": "snippet",
			"url":         "url",
			"job_type":    "job_type",
			"salary":      "salary",
			"logo":        "logo",
			"age_days":    "age_days",
			"date":        "date",
		},
	}
}

// BuildURL returns the API request URL for the feed.
func (p *WhatJobsProvider) BuildURL(ctx context.Context, feed model.Feed) (string, error) {
	params, err := decodeWhatJobsParams(feed)
	if err != nil {
		return "", err
	}
	return p.buildURL(ctx, params), nil
}

func (p *WhatJobsProvider) buildURL(ctx context.Context, params whatJobsParams) string {
	q := url.Values{}
	q.Set("publisher", params.Publisher)
	q.Set("user_ip", ClientIP(clientRequest(ctx)))
	q.Set("user_agent", p.userAgent(ctx))
	q.Set("snippet", "full")
	if params.Keyword != "" {
		q.Set("keyword", params.Keyword)
	}
	if params.Location != "" {
		q.Set("location", params.Location)
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	q.Set("age_days", strconv.Itoa(params.AgeDays))

	sep := "?"
	if strings.Contains(p.baseURL, "?") {
		sep = "&"
	}
	return p.baseURL + sep + q.Encode()
}

func (p *WhatJobsProvider) userAgent(ctx context.Context) string {
	fallback := p.deps.BotUserAgent
	if fallback == "" {
		fallback = defaultBotUserAgent
	}
	return userAgent(ctx, fallback)
}

// fetch requests apiURL and returns the usable jobs. With onlyToday, jobs
// whose age_days is not zero are dropped whatever the API was asked for.
func (p *WhatJobsProvider) fetch(ctx context.Context, apiURL string, onlyToday bool) ([]model.Job, error) {
	header := http.Header{
		"Accept":     {"application/xml"},
		"User-Agent": {p.userAgent(ctx)},
	}
	body, err := p.deps.Getter.Get(ctx, apiURL, header)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty response from WhatJobs API")
	}

	var resp whatJobsResponse
	if err := newXMLDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("XML parsing failed: %w", err)
	}

	jobs := make([]model.Job, 0, len(resp.Jobs))
	for _, wj := range resp.Jobs {
		job := wj.toJob()
		if job.Title == "" || strings.TrimSpace(extract.PlainText(wj.Snippet)) == "" {
			continue
		}
		jobs = append(jobs, job)
	}
	if onlyToday {
		jobs = filter.Apply(filter.OnlyToday{}, jobs)
	}
	return jobs, nil
}

func (wj whatJobsJob) toJob() model.Job {
	age := whatJobsUnknownAge
	if wj.AgeDays != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(*wj.AgeDays)); err == nil {
			age = n
		}
	}
	date := strings.TrimSpace(wj.Date)
	if date == "" {
		date = time.Now().Format(time.DateTime)
	}
	return model.Job{
		Title:       strings.TrimSpace(wj.Title),
		Description: extract.CleanDescription(wj.Snippet),
		URL:         strings.TrimSpace(wj.URL),
		Date:        date,
		Company:     strings.TrimSpace(wj.Company),
		Location:    strings.TrimSpace(wj.Location),
		Salary:      strings.TrimSpace(wj.Salary),
		JobType:     strings.TrimSpace(wj.JobType),
		Logo:        strings.TrimSpace(wj.Logo),
		AgeDays:     age,
		Site:        strings.TrimSpace(wj.Site),
		Category:    strings.TrimSpace(wj.Category),
		Subcategory: strings.TrimSpace(wj.Subcategory),
		Country:     strings.TrimSpace(wj.Country),
		State:       strings.TrimSpace(wj.State),
		City:        strings.TrimSpace(wj.City),
		PostalCode:  strings.TrimSpace(wj.PostalCode),
	}
}

// TestConnection fetches today's jobs without persisting anything.
func (p *WhatJobsProvider) TestConnection(ctx context.Context, feed model.Feed) model.ConnectionResult {
	ctx, cancel := context.WithTimeout(ctx, testTimeout)
	defer cancel()

	params, err := decodeWhatJobsParams(feed)
	if err != nil {
		return failure("%v", err)
	}
	apiURL := p.buildURL(ctx, params)
	p.deps.Logger.Info("testing WhatJobs API connection", "channel", "whatjobs", "url", apiURL)

	jobs, err := p.fetch(ctx, apiURL, true)
	if err != nil {
		r := failure("%v", err)
		r.Extra = map[string]string{"api_url": apiURL}
		return r
	}
	return model.ConnectionResult{
		Success:    true,
		Message:    fmt.Sprintf("Connection successful! Found %d jobs.", len(jobs)),
		JobsFound:  len(jobs),
		SampleJobs: sample(jobs),
		Extra:      map[string]string{"api_url": apiURL},
	}
}

// ImportJobs fetches and imports the feed's jobs.
func (p *WhatJobsProvider) ImportJobs(ctx context.Context, feed model.Feed) (int, error) {
	params, err := decodeWhatJobsParams(feed)
	if err != nil {
		return 0, err
	}

	// Only the request is bounded; persistence runs on the caller's context.
	fetchCtx, cancel := context.WithTimeout(ctx, importTimeout)
	jobs, err := p.fetch(fetchCtx, p.buildURL(ctx, params), params.OnlyToday)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("whatjobs import: %w", err)
	}
	return p.deps.Importer.Import(ctx, ingest.Batch{
		ProviderID: string(WhatJobs),
		Channel:    "whatjobs",
		Feed:       feed,
		Jobs:       jobs,
		Enricher:   whatJobsEnricher{},
	})
}

// whatJobsEnricher adds the API's extra fields to imported records.
type whatJobsEnricher struct{}

func (whatJobsEnricher) ExtraMeta(job model.Job) map[string]string {
	meta := map[string]string{
		"_job_killer_age_days":  strconv.Itoa(job.AgeDays),
		"_whatjobs_category":    job.Category,
		"_whatjobs_subcategory": job.Subcategory,
		"_whatjobs_country":     job.Country,
		"_whatjobs_state":       job.State,
		"_whatjobs_city":        job.City,
		"_whatjobs_postal_code": job.PostalCode,
		"_employment_type":      extract.EmploymentType(job.JobType),
		"_job_status":           "active",
	}
	if u, err := url.Parse(job.Logo); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		meta["_company_logo_url"] = job.Logo
	}
	return meta
}

func (whatJobsEnricher) ExtraTerms(job model.Job) map[string]string {
	return map[string]string{
		model.TaxonomyCategory: job.Site,
		model.TaxonomyRegion:   extract.Region(job.Location),
	}
}
