package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobfeeds/internal/model"
)

var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts imported jobs to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
	pause      time.Duration // between messages of one batch
}

func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
		pause:      500 * time.Millisecond,
	}
}

// Notify sends one message per job. It fails only when every message fails;
// individual failures are logged.
func (s *SlackNotifier) Notify(jobs []model.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	failures := 0
	for i, j := range jobs {
		if i > 0 {
			time.Sleep(s.pause)
		}
		if err := s.send(j); err != nil {
			s.logger.Error("slack notification failed", "source", j.Source, "title", j.Title, "error", err)
			failures++
		}
	}

	if failures == len(jobs) {
		return fmt.Errorf("all %d slack notifications failed", failures)
	}
	s.logger.Debug("slack notifications sent", "sent", len(jobs)-failures, "failed", failures)
	return nil
}

func (s *SlackNotifier) send(j model.Job) error {
	body, err := json.Marshal(buildPayload(j))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(body)
	if err != nil {
		return err
	}
	if status == http.StatusTooManyRequests {
		s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter.String())
		time.Sleep(retryAfter)
		if status, _, err = s.post(body); err != nil {
			return fmt.Errorf("retry: %w", err)
		}
	}
	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	return nil
}

func (s *SlackNotifier) post(body []byte) (int, time.Duration, error) {
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	return resp.StatusCode, time.Duration(max(secs, 1)) * time.Second, nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string     `json:"type"`
	Text  *slackText `json:"text,omitempty"`
	URL   string     `json:"url,omitempty"`
	Style string     `json:"style,omitempty"`
}

// SendTestMessage sends a sample job through n to check the integration.
func SendTestMessage(n model.Notifier) error {
	return n.Notify([]model.Job{{
		Title:    "Mensagem de teste",
		Company:  "Job Feeds",
		Location: "São Paulo, SP",
		JobType:  "Tempo Integral",
		URL:      "https://example.com/jobs/test",
		Date:     time.Now().Format(time.DateTime),
		Source:   "test",
	}})
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func buildPayload(j model.Job) slackPayload {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: j.Title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Company:*\n" + orDash(j.Company)},
				{Type: "mrkdwn", Text: "*Location:*\n" + orDash(j.Location)},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Type:*\n" + orDash(j.JobType)},
				{Type: "mrkdwn", Text: "*Salary:*\n" + orDash(j.Salary)},
			},
		},
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "Imported from *" + orDash(j.Source) + "*"},
		},
	}

	if j.URL != "" {
		blocks = append(blocks, slackBlock{
			Type: "actions",
			Elements: []slackElement{{
				Type:  "button",
				Text:  &slackText{Type: "plain_text", Text: "View job"},
				URL:   j.URL,
				Style: "primary",
			}},
		})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{Text: j.Title, Blocks: blocks}
}
