package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/amishk599/jobfeeds/internal/model"
)

const whatJobsXML = `<?xml version="1.0" encoding="UTF-8"?>
<data>
  <job>
    <title>Desenvolvedor Backend</title>
    <company>Acme</company>
    <location>São Paulo, SP</location>
    <snippet><![CDATA[Vaga para desenvolvedor backend.<br><br>Trabalho remoto.]]></snippet>
    <url>https://www.whatjobs.com/job/1</url>
    <job_type>Full Time</job_type>
    <salary>R$ 10.000</salary>
    <logo>https://cdn.whatjobs.com/acme.png</logo>
    <age_days>0</age_days>
    <site>Tecnologia</site>
    <country>BR</country>
    <city>São Paulo</city>
  </job>
  <job>
    <title>Analista Financeiro</title>
    <company>Beta</company>
    <location>Rio de Janeiro, RJ</location>
    <snippet>Analista financeiro pleno.</snippet>
    <url>https://www.whatjobs.com/job/2</url>
    <age_days>1</age_days>
  </job>
  <job>
    <title>Vendedor</title>
    <company>Gamma</company>
    <location>Salvador, BA</location>
    <snippet>Vendas internas.</snippet>
    <url>https://www.whatjobs.com/job/3</url>
    <age_days>2</age_days>
  </job>
  <job>
    <title>Sem idade</title>
    <snippet>Vaga sem age_days.</snippet>
    <url>https://www.whatjobs.com/job/4</url>
  </job>
  <job>
    <title></title>
    <snippet>Sem titulo.</snippet>
    <age_days>0</age_days>
  </job>
</data>`

func whatJobsFeed(params model.Params) model.Feed {
	return model.Feed{
		ID:       "wj",
		Name:     "WhatJobs BR",
		Provider: "whatjobs",
		Auth:     map[string]string{"publisher_id": "4242"},
		Params:   params,
	}
}

func TestWhatJobs_ImportOnlyToday(t *testing.T) {
	srv := xmlServer(t, whatJobsXML)
	imp := &recordingImporter{}
	p := NewWhatJobs(newTestDeps(srv, imp))

	n, err := p.ImportJobs(context.Background(), whatJobsFeed(nil))
	if err != nil {
		t.Fatalf("ImportJobs: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected only the age 0 job, got %d", n)
	}
	b := imp.batches[0]
	if b.ProviderID != "whatjobs" || b.Channel != "whatjobs" {
		t.Errorf("unexpected batch identity %q/%q", b.ProviderID, b.Channel)
	}
	if b.Enricher == nil {
		t.Fatal("expected enricher on whatjobs batch")
	}
	j := b.Jobs[0]
	if j.Title != "Desenvolvedor Backend" || j.AgeDays != 0 {
		t.Errorf("unexpected job %+v", j)
	}
	if !strings.HasPrefix(j.Description, "<p>") || !strings.Contains(j.Description, "</p><p>") {
		t.Errorf("expected cleaned paragraph description, got %q", j.Description)
	}
}

func TestWhatJobs_ImportAllAges(t *testing.T) {
	srv := xmlServer(t, whatJobsXML)
	imp := &recordingImporter{}
	p := NewWhatJobs(newTestDeps(srv, imp))

	n, err := p.ImportJobs(context.Background(), whatJobsFeed(model.Params{"only_today": false}))
	if err != nil {
		t.Fatalf("ImportJobs: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 jobs with a title, got %d", n)
	}
	if age := imp.batches[0].Jobs[3].AgeDays; age != 999 {
		t.Errorf("missing age_days should read as 999, got %d", age)
	}
}

func TestWhatJobs_TestConnectionForcesOnlyToday(t *testing.T) {
	srv := xmlServer(t, whatJobsXML)
	imp := &recordingImporter{}
	p := NewWhatJobs(newTestDeps(srv, imp))

	res := p.TestConnection(context.Background(), whatJobsFeed(model.Params{"only_today": false}))
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if res.JobsFound != 1 {
		t.Errorf("expected 1 job found, got %d", res.JobsFound)
	}
	if !strings.HasPrefix(res.Extra["api_url"], srv.URL) {
		t.Errorf("expected api_url in result, got %q", res.Extra["api_url"])
	}
	if len(imp.batches) != 0 {
		t.Error("test connection must not import")
	}
}

func TestWhatJobs_MissingPublisher(t *testing.T) {
	g := &countingGetter{}
	p := NewWhatJobs(Deps{Getter: g, Importer: &recordingImporter{}, Logger: discardLogger()})
	feed := model.Feed{Provider: "whatjobs"}

	res := p.TestConnection(context.Background(), feed)
	if res.Success {
		t.Fatal("expected failure without publisher")
	}
	if !strings.Contains(res.Message, "Publisher ID is required") {
		t.Errorf("unexpected message %q", res.Message)
	}
	if _, err := p.ImportJobs(context.Background(), feed); err == nil {
		t.Fatal("expected import error without publisher")
	}
	if g.calls != 0 {
		t.Errorf("expected no network calls, got %d", g.calls)
	}
}

func TestWhatJobs_PublisherFromURL(t *testing.T) {
	p := NewWhatJobs(Deps{Getter: &countingGetter{}, Importer: &recordingImporter{}, Logger: discardLogger()})
	raw, err := p.BuildURL(context.Background(), model.Feed{URL: "https://api.whatjobs.com/api/v1/jobs.xml?publisher=777"})
	if err != nil {
		t.Fatalf("BuildURL: %v", err)
	}
	u, _ := url.Parse(raw)
	if got := u.Query().Get("publisher"); got != "777" {
		t.Errorf("publisher = %q, want 777", got)
	}
}

func TestWhatJobs_QueryParameters(t *testing.T) {
	var got url.Values
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`<data></data>`))
	}))
	defer srv.Close()
	p := NewWhatJobs(newTestDeps(srv, &recordingImporter{}))

	t.Run("defaults", func(t *testing.T) {
		p.ImportJobs(context.Background(), whatJobsFeed(model.Params{"keyword": "golang"}))
		want := map[string]string{
			"publisher":  "4242",
			"snippet":    "full",
			"keyword":    "golang",
			"age_days":   "0",
			"user_ip":    "127.0.0.1",
			"user_agent": "JobFeedsBot/test",
		}
		for k, v := range want {
			if got.Get(k) != v {
				t.Errorf("%s = %q, want %q", k, got.Get(k), v)
			}
		}
		for _, k := range []string{"limit", "page", "location"} {
			if got.Has(k) {
				t.Errorf("%s should not be sent when unset", k)
			}
		}
		if gotUA != "JobFeedsBot/test" {
			t.Errorf("User-Agent header = %q", gotUA)
		}
	})

	t.Run("clamped", func(t *testing.T) {
		p.ImportJobs(context.Background(), whatJobsFeed(model.Params{"limit": 500, "page": -3, "age_days": -1}))
		if got.Get("limit") != "100" {
			t.Errorf("limit = %q, want 100", got.Get("limit"))
		}
		if got.Get("page") != "1" {
			t.Errorf("page = %q, want 1", got.Get("page"))
		}
		if got.Get("age_days") != "0" {
			t.Errorf("age_days = %q, want 0", got.Get("age_days"))
		}
	})

	t.Run("client request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/import", nil)
		r.Header.Set("X-Forwarded-For", "8.8.8.8, 10.0.0.1")
		r.Header.Set("User-Agent", "Mozilla/5.0 test")
		ctx := WithClientRequest(context.Background(), r)

		p.ImportJobs(ctx, whatJobsFeed(model.Params{"age_days": "3"}))
		if got.Get("user_ip") != "8.8.8.8" {
			t.Errorf("user_ip = %q, want 8.8.8.8", got.Get("user_ip"))
		}
		if got.Get("user_agent") != "Mozilla/5.0 test" {
			t.Errorf("user_agent = %q", got.Get("user_agent"))
		}
		if got.Get("age_days") != "3" {
			t.Errorf("age_days = %q, want 3", got.Get("age_days"))
		}
	})
}

func TestWhatJobs_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, ""},
		{"empty body", http.StatusOK, "   "},
		{"malformed xml", http.StatusOK, "<data><job><title>x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			p := NewWhatJobs(newTestDeps(srv, &recordingImporter{}))

			if res := p.TestConnection(context.Background(), whatJobsFeed(nil)); res.Success {
				t.Fatal("expected failure")
			}
			if _, err := p.ImportJobs(context.Background(), whatJobsFeed(nil)); err == nil {
				t.Fatal("expected import error")
			}
		})
	}
}

func TestWhatJobs_Latin1Response(t *testing.T) {
	body := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<data><job><title>Assistente de Produ\xe7\xe3o</title><company>Acme</company>" +
		"<location>Bel\xe9m, PA</location><snippet>Linha de produ\xe7\xe3o.</snippet>" +
		"<age_days>0</age_days></job></data>"
	srv := xmlServer(t, body)
	imp := &recordingImporter{}
	p := NewWhatJobs(newTestDeps(srv, imp))

	n, err := p.ImportJobs(context.Background(), whatJobsFeed(nil))
	if err != nil {
		t.Fatalf("ImportJobs: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 job, got %d", n)
	}
	j := imp.batches[0].Jobs[0]
	if j.Title != "Assistente de Produção" || j.Location != "Belém, PA" {
		t.Errorf("text not decoded from latin-1: %q / %q", j.Title, j.Location)
	}
}

func TestWhatJobsEnricher(t *testing.T) {
	job := model.Job{
		JobType:  "Part Time",
		AgeDays:  0,
		Location: "Belo Horizonte, MG",
		Site:     "Saúde",
		City:     "Belo Horizonte",
		Logo:     "https://cdn.example.com/logo.png",
	}
	e := whatJobsEnricher{}

	meta := e.ExtraMeta(job)
	if meta["_employment_type"] != "PART_TIME" {
		t.Errorf("_employment_type = %q", meta["_employment_type"])
	}
	if meta["_job_killer_age_days"] != "0" || meta["_job_status"] != "active" {
		t.Errorf("unexpected meta %v", meta)
	}
	if meta["_whatjobs_city"] != "Belo Horizonte" {
		t.Errorf("_whatjobs_city = %q", meta["_whatjobs_city"])
	}
	if meta["_company_logo_url"] != job.Logo {
		t.Errorf("_company_logo_url = %q", meta["_company_logo_url"])
	}

	job.Logo = "javascript:alert(1)"
	if _, ok := e.ExtraMeta(job)["_company_logo_url"]; ok {
		t.Error("non-http logo must not be stored")
	}

	terms := e.ExtraTerms(job)
	if terms[model.TaxonomyCategory] != "Saúde" {
		t.Errorf("category = %q", terms[model.TaxonomyCategory])
	}
	if terms[model.TaxonomyRegion] != "Minas Gerais" {
		t.Errorf("region = %q", terms[model.TaxonomyRegion])
	}
}
