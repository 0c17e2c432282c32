package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/sanduskycurrent/scanner-stream/internal/conf"
	"github.com/sanduskycurrent/scanner-stream/internal/datastore"
	"github.com/sanduskycurrent/scanner-stream/internal/errors"
	"github.com/sanduskycurrent/scanner-stream/internal/logging"
	"github.com/sanduskycurrent/scanner-stream/internal/scanner"
)

const (
	historyTTL     = 24 * time.Hour
	historySweep   = time.Hour
	defaultHistory = 50
)

// Service classifies transcriptions for newsworthiness. The primary path
// is an external LLM completion; any failure degrades to the rule engine.
type Service struct {
	settings   conf.ClassificationSettings
	enabled    bool
	httpClient *http.Client
	history    *gocache.Cache
	logger     *slog.Logger
}

// New creates a classification service. With no API key configured every
// verdict comes from the fallback rule engine.
func New(settings conf.ClassificationSettings) *Service {
	logger := logging.ForService("classifier")
	if settings.APIKey != "" {
		logger.Info("AI summarizer service initialized")
	} else {
		logger.Info("AI summarizer disabled, no API key")
	}
	return &Service{
		settings:   settings,
		enabled:    settings.APIKey != "",
		httpClient: &http.Client{Timeout: settings.Timeout},
		history:    gocache.New(historyTTL, historySweep),
		logger:     logger,
	}
}

// Classify produces exactly one incident summary per transcription.
func (s *Service) Classify(ctx context.Context, tr *datastore.Transcription, tx scanner.Transmission) *IncidentSummary {
	summary := s.classify(ctx, tr, tx)
	s.history.SetDefault(summary.ID, summary)
	return summary
}

func (s *Service) classify(ctx context.Context, tr *datastore.Transcription, tx scanner.Transmission) *IncidentSummary {
	if !s.enabled {
		return fallbackClassify(tr)
	}

	summary, err := s.requestClassification(ctx, tr, tx)
	if err != nil {
		s.logger.Error("classification request failed, using rule fallback",
			"id", tr.ID, "error", err)
		return fallbackClassify(tr)
	}
	return summary
}

// Recent returns up to limit summaries from the history buffer, newest
// first. limit <= 0 uses the default cap.
func (s *Service) Recent(limit int) []*IncidentSummary {
	if limit <= 0 {
		limit = defaultHistory
	}

	items := s.history.Items()
	summaries := make([]*IncidentSummary, 0, len(items))
	for _, item := range items {
		if summary, ok := item.Object.(*IncidentSummary); ok {
			summaries = append(summaries, summary)
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Timestamp.After(summaries[j].Timestamp)
	})
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries
}

// chat completion request/response wire types.
type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat formatSpec    `json:"response_format"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type formatSpec struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// verdict is the strict JSON object the model is asked to return.
// WorthPosting is a pointer so a missing field is detectable.
type verdict struct {
	WorthPosting *bool   `json:"worthPosting"`
	Summary      *string `json:"summary"`
	Severity     string  `json:"severity"`
	Category     string  `json:"category"`
	Location     *string `json:"location"`
	SocialMedia  *string `json:"socialMedia"`
}

func (s *Service) requestClassification(ctx context.Context, tr *datastore.Transcription, tx scanner.Transmission) (*IncidentSummary, error) {
	prompt := buildPrompt(tr.Text, tx)

	payload, err := json.Marshal(chatRequest{
		Model:          s.settings.Model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		ResponseFormat: formatSpec{Type: "json_object"},
		Temperature:    s.settings.Temperature,
		MaxTokens:      s.settings.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.settings.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.settings.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryNetwork).
			Context("endpoint", s.settings.Endpoint).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Newf("completion API returned %d: %s", resp.StatusCode, respBody).
			Component("classifier").
			Category(errors.CategoryClassification).
			Build()
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("malformed completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.Newf("completion response has no choices").
			Component("classifier").
			Category(errors.CategoryClassification).
			Build()
	}

	return buildSummary(tr.ID, parsed.Choices[0].Message.Content)
}

// buildSummary parses the model output strictly and rejects it when
// required fields are missing or out of range.
func buildSummary(id, content string) (*IncidentSummary, error) {
	var v verdict
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return nil, fmt.Errorf("verdict is not valid JSON: %w", err)
	}
	if v.WorthPosting == nil {
		return nil, errors.Newf("verdict missing worthPosting").
			Component("classifier").
			Category(errors.CategoryValidation).
			Build()
	}
	severity := Severity(v.Severity)
	category := Category(v.Category)
	if !validSeverity(severity) || !validCategory(category) {
		return nil, errors.Newf("verdict has invalid severity %q or category %q", v.Severity, v.Category).
			Component("classifier").
			Category(errors.CategoryValidation).
			Build()
	}

	summary := &IncidentSummary{
		ID:           id,
		WorthPosting: *v.WorthPosting,
		Severity:     severity,
		Category:     category,
		Location:     v.Location,
		Timestamp:    time.Now(),
	}
	if summary.WorthPosting {
		if v.Summary == nil || v.SocialMedia == nil {
			return nil, errors.Newf("worth-posting verdict missing summary or socialMedia").
				Component("classifier").
				Category(errors.CategoryValidation).
				Build()
		}
		summary.Summary = v.Summary
		summary.SocialMedia = v.SocialMedia
	}
	return summary, nil
}

func buildPrompt(text string, tx scanner.Transmission) string {
	return fmt.Sprintf(`You are a local news AI assistant analyzing police scanner transcriptions for Sandusky, Ohio.

Transcription: %q
Unit: %s
Type: %s

Analyze this transcription and return a JSON response with:
1. "worthPosting": boolean - true if this is newsworthy (accidents, fires, arrests, public safety issues), false if routine/administrative
2. "summary": string - IF worth posting, a brief 1-2 sentence public-friendly summary. If NOT worth posting, return null
3. "severity": string - "low", "medium", "high", or "critical"
4. "category": string - "traffic", "fire", "medical", "crime", "accident", "other"
5. "location": string or null - extracted location if mentioned
6. "socialMedia": string or null - IF worth posting, a tweet-length version (under 280 chars) for social media

Examples of NOT worth posting: routine traffic stops, meal breaks, administrative chatter, test messages
Examples of worth posting: accidents with injuries, structure fires, arrests, public safety threats

Return ONLY valid JSON.`, text, tx.Unit, tx.Kind)
}
