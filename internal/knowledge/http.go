package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// ErrRetrievalFailed is returned when the retrieval service cannot answer.
var ErrRetrievalFailed = errors.New("knowledge retrieval failed")

// HTTPSource queries a retrieval service exposing POST /retrieve.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

var _ Source = (*HTTPSource)(nil)

type retrieveRequest struct {
	QuestionText string `json:"question_text"`
	Subject      string `json:"subject,omitempty"`
}

type retrieveResponse struct {
	AnswerContext   string  `json:"answer_context"`
	SourceTopic     string  `json:"source_topic"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// NewHTTPSource creates a client for the retrieval service at baseURL.
func NewHTTPSource(baseURL string, timeout time.Duration, l *slog.Logger) *HTTPSource {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = timeout
	if l == nil {
		l = slog.Default()
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  l.With(slog.String("component", "knowledge_http")),
	}
}

// Search implements Source. The service returns at most one snippet.
func (s *HTTPSource) Search(ctx context.Context, q Query) ([]Snippet, error) {
	body, err := json.Marshal(retrieveRequest{QuestionText: q.Text, Subject: q.Subject})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrRetrievalFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/retrieve", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRetrievalFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrRetrievalFailed, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out retrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrRetrievalFailed, err)
	}

	if strings.TrimSpace(out.AnswerContext) == "" {
		return nil, nil
	}

	s.logger.DebugContext(ctx, "retrieved knowledge context",
		"topic", out.SourceTopic,
		"confidence", out.ConfidenceScore)

	return []Snippet{{
		Context:    out.AnswerContext,
		Topic:      out.SourceTopic,
		Subject:    q.Subject,
		Confidence: out.ConfidenceScore,
	}}, nil
}
