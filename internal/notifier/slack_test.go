package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/amishk599/jobfeeds/internal/events"
	"github.com/amishk599/jobfeeds/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleJob(title, company string) model.Job {
	return model.Job{
		Title:    title,
		Company:  company,
		Location: "São Paulo, SP",
		JobType:  "Tempo Integral",
		Salary:   "R$ 9.000",
		URL:      "https://example.com/apply",
		Source:   "whatjobs",
	}
}

func newTestSlack(srv *httptest.Server) *SlackNotifier {
	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	n.pause = 0
	return n
}

func TestSlackNotifier_EmptyJobs(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestSlack(srv)
	if err := n.Notify(nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if c := calls.Load(); c != 0 {
		t.Errorf("expected 0 HTTP calls, got %d", c)
	}
}

func TestSlackNotifier_PayloadFormat(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestSlack(srv)
	if err := n.Notify([]model.Job{sampleJob("Desenvolvedor Go", "Acme")}); err != nil {
		t.Fatalf("Notify() = %v", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Text != "Desenvolvedor Go" {
		t.Errorf("fallback text = %q", payload.Text)
	}
	if len(payload.Blocks) != 6 {
		t.Fatalf("expected 6 blocks, got %d", len(payload.Blocks))
	}
	if payload.Blocks[0].Type != "header" || payload.Blocks[0].Text.Text != "Desenvolvedor Go" {
		t.Errorf("unexpected header %+v", payload.Blocks[0])
	}
	if got := payload.Blocks[1].Fields[0].Text; got != "*Company:*\nAcme" {
		t.Errorf("company field = %q", got)
	}
	if got := payload.Blocks[2].Fields[1].Text; got != "*Salary:*\nR$ 9.000" {
		t.Errorf("salary field = %q", got)
	}
	if got := payload.Blocks[4].Elements[0].URL; got != "https://example.com/apply" {
		t.Errorf("action URL = %q", got)
	}
	if payload.Blocks[5].Type != "divider" {
		t.Errorf("last block = %q, want divider", payload.Blocks[5].Type)
	}
}

func TestSlackNotifier_MissingFieldsAndURL(t *testing.T) {
	p := buildPayload(model.Job{Title: "Vaga"})
	if got := p.Blocks[1].Fields[0].Text; got != "*Company:*\n-" {
		t.Errorf("company field = %q", got)
	}
	for _, b := range p.Blocks {
		if b.Type == "actions" {
			t.Error("no button expected without a URL")
		}
	}
}

func TestSlackNotifier_AllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := newTestSlack(srv)
	jobs := []model.Job{sampleJob("A", "X"), sampleJob("B", "Y")}
	if err := n.Notify(jobs); err == nil {
		t.Error("expected error when all messages fail, got nil")
	}
}

func TestSlackNotifier_PartialFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestSlack(srv)
	jobs := []model.Job{sampleJob("Falha", "A"), sampleJob("Sucesso", "B")}
	if err := n.Notify(jobs); err != nil {
		t.Errorf("expected nil (partial success), got %v", err)
	}
}

func TestSlackNotifier_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestSlack(srv)
	if err := n.Notify([]model.Job{sampleJob("Limitada", "Test")}); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (initial + retry), got %d", c)
	}
}

type recordingNotifier struct {
	jobs []model.Job
}

func (r *recordingNotifier) Notify(jobs []model.Job) error {
	r.jobs = append(r.jobs, jobs...)
	return nil
}

func TestSubscribe_ForwardsImportedJobs(t *testing.T) {
	bus := events.NewBus()
	rec := &recordingNotifier{}
	Subscribe(bus, rec, discardLogger())

	bus.Publish(context.Background(), events.JobImported{RecordID: 7, Job: sampleJob("Vaga", "Acme"), ProviderID: "whatjobs"})
	bus.Publish(context.Background(), events.ProvidersRegistered{IDs: []string{"whatjobs"}})

	if len(rec.jobs) != 1 || rec.jobs[0].Title != "Vaga" {
		t.Errorf("expected one forwarded job, got %+v", rec.jobs)
	}

	if err := SendTestMessage(rec); err != nil {
		t.Fatalf("SendTestMessage: %v", err)
	}
	if len(rec.jobs) != 2 || rec.jobs[1].Source != "test" {
		t.Errorf("expected test job, got %+v", rec.jobs)
	}
}
