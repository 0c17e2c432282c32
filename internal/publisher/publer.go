// Package publisher delivers newsworthy incident summaries to an external
// social publishing platform, serialized through a rate-limited queue.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/sanduskycurrent/scanner-stream/internal/classifier"
	"github.com/sanduskycurrent/scanner-stream/internal/conf"
	"github.com/sanduskycurrent/scanner-stream/internal/errors"
	"github.com/sanduskycurrent/scanner-stream/internal/logging"
)

// Package-level logger specific to the publisher service
var (
	serviceLogger *slog.Logger
	closeLogger   func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "publisher.log")

	serviceLogger, closeLogger, err = logging.NewFileLogger(logFilePath, "publisher", slog.LevelDebug)
	if err != nil {
		log.Printf("failed to initialize publisher file logger at %s: %v, falling back to discard", logFilePath, err)
		serviceLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))
		closeLogger = func() error { return nil }
	}
}

// Poster is the publishing transport used by the queue worker.
type Poster interface {
	Post(ctx context.Context, summary *classifier.IncidentSummary) error
}

// PublerClient posts incident summaries to the Publer API. With no API key
// configured it logs the post instead of sending it.
type PublerClient struct {
	settings   conf.PublisherSettings
	enabled    bool
	httpClient *http.Client
}

// NewPublerClient creates a Publer API client from settings.
func NewPublerClient(settings conf.PublisherSettings) *PublerClient {
	if settings.APIKey != "" {
		serviceLogger.Info("social media service initialized with Publer")
	} else {
		serviceLogger.Info("social media posting disabled, no Publer API key")
	}
	return &PublerClient{
		settings:   settings,
		enabled:    settings.APIKey != "",
		httpClient: &http.Client{Timeout: settings.Timeout},
	}
}

// publerPost is the request body for the Publer post-creation endpoint.
type publerPost struct {
	Content     string   `json:"content"`
	Networks    []string `json:"networks"`
	Status      string   `json:"status"`
	ScheduledAt *string  `json:"scheduled_at"`
	LinkURL     string   `json:"link_url"`
	LinkTitle   string   `json:"link_title"`
	WorkspaceID string   `json:"workspace_id"`
}

// Post publishes one summary. Mock path when no key is configured.
func (c *PublerClient) Post(ctx context.Context, summary *classifier.IncidentSummary) error {
	fullText := fmt.Sprintf("%s %s", *summary.SocialMedia, hashtags(summary.Category, summary.Severity))

	if !c.enabled {
		serviceLogger.Info("mock social media post",
			"workspace", c.settings.WorkspaceID,
			"category", summary.Category,
			"severity", summary.Severity,
			"text", fullText,
			"length", len(fullText))
		return nil
	}

	url := fmt.Sprintf("%s/workspaces/%s/posts", c.settings.Endpoint, c.settings.WorkspaceID)
	payload, err := json.Marshal(publerPost{
		Content:     fullText,
		Networks:    []string{"facebook", "twitter"},
		Status:      "scheduled",
		LinkURL:     c.settings.LinkURL,
		LinkTitle:   "Sandusky Current - Local News Update",
		WorkspaceID: c.settings.WorkspaceID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.settings.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.New(err).
			Component("publisher").
			Category(errors.CategoryNetwork).
			Context("url", url).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Newf("Publer API error: %d - %s", resp.StatusCode, respBody).
			Component("publisher").
			Category(errors.CategoryPublish).
			Context("summary_id", summary.ID).
			Build()
	}

	serviceLogger.Info("posted to Publer",
		"category", summary.Category,
		"summary_id", summary.ID)
	return nil
}

// Close releases the publisher log file.
func Close() error {
	return closeLogger()
}

var categoryHashtags = map[classifier.Category]string{
	classifier.CategoryFire:     "#Fire #FireDepartment",
	classifier.CategoryCrime:    "#Police #PublicSafety",
	classifier.CategoryMedical:  "#EMS #Medical",
	classifier.CategoryAccident: "#Traffic #Accident",
	classifier.CategoryTraffic:  "#Traffic #RoadSafety",
}

var severityHashtags = map[classifier.Severity]string{
	classifier.SeverityCritical: "#BreakingNews #Emergency",
	classifier.SeverityHigh:     "#Breaking #Alert",
}

// hashtags decorates a post with category and severity tags.
func hashtags(category classifier.Category, severity classifier.Severity) string {
	tags := "#SanduskyOhio #ErieCounty #LocalNews"
	if ct, ok := categoryHashtags[category]; ok {
		tags = ct + " " + tags
	}
	if st, ok := severityHashtags[severity]; ok {
		tags = st + " " + tags
	}
	return tags
}
