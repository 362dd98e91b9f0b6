package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jasperedu/jasper-backend/internal/logger"
	"github.com/jasperedu/jasper-backend/internal/utils"
)

type AIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AIClient is the outbound chat-completion dependency. The model identifier
// is chosen per call by the model router.
type AIClient interface {
	Chat(ctx context.Context, model string, messages []AIMessage) (string, error)
}

// ProviderError is a transport-level failure from the LLM provider
// (network, timeout, 4xx/5xx). The pipeline surfaces it to the caller and
// never runs validation retries against it.
type ProviderError struct {
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider error (http %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider error: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

type openAIClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client

	maxRetries int
}

func NewOpenAIClient(log *logger.Logger) (AIClient, error) {
	serviceLog := log.With("service", "OpenAIClient")

	apiKey := utils.GetEnv("OPENAI_API_KEY", "", log)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	baseURL := utils.GetEnv("OPENAI_BASE_URL", "https://api.openai.com", log)

	timeoutSec := utils.GetEnvAsInt("OPENAI_TIMEOUT_SECONDS", 120, log)
	if timeoutSec <= 0 {
		timeoutSec = 120
	}
	maxRetries := utils.GetEnvAsInt("OPENAI_MAX_RETRIES", 4, log)
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &openAIClient{
		log:        serviceLog,
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
	}
	var httpErr *openAIHTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTP(httpErr.StatusCode)
	}
	return false
}

func jitterSleep(base time.Duration) time.Duration {
	// +/- 20%
	if base <= 0 {
		return 0
	}
	j := 0.2
	delta := base.Seconds() * j
	low := base.Seconds() - delta
	high := base.Seconds() + delta
	if low < 0 {
		low = 0
	}
	v := low + rand.Float64()*(high-low)
	return time.Duration(v * float64(time.Second))
}

func (c *openAIClient) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *openAIClient) do(ctx context.Context, method, path string, body any, out any) error {
	// exponential backoff: 1s, 2s, 4s, 8s (cap ~10s)
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}

		if !isRetryableErr(err) {
			return err
		}
		if attempt == c.maxRetries {
			return err
		}

		// Respect Retry-After when present
		sleepFor := backoff
		if resp != nil {
			ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
			if ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
					sleepFor = time.Duration(secs) * time.Second
				}
			}
		}
		if sleepFor > 10*time.Second {
			sleepFor = 10 * time.Second
		}
		sleepFor = jitterSleep(sleepFor)

		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

type chatCompletionRequest struct {
	Model       string      `json:"model"`
	Messages    []AIMessage `json:"messages"`
	Temperature float64     `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *openAIClient) Chat(ctx context.Context, model string, messages []AIMessage) (string, error) {
	if model == "" {
		return "", &ProviderError{Err: errors.New("model required")}
	}

	req := chatCompletionRequest{
		Model:       model,
		Messages:    sanitizeMessages(c.log, messages),
		Temperature: 0.2,
	}

	var resp chatCompletionResponse
	if err := c.do(ctx, "POST", "/v1/chat/completions", req, &resp); err != nil {
		var httpErr *openAIHTTPError
		if errors.As(err, &httpErr) {
			return "", &ProviderError{StatusCode: httpErr.StatusCode, Err: err}
		}
		return "", &ProviderError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Err: errors.New("no choices in response")}
	}
	return resp.Choices[0].Message.Content, nil
}

// sanitizeMessages coerces every outgoing content to a trimmed string so a
// blank or missing content field never reaches downstream string handling as
// a failure. Recovered contents are logged, not raised.
func sanitizeMessages(log *logger.Logger, messages []AIMessage) []AIMessage {
	out := make([]AIMessage, 0, len(messages))
	for _, m := range messages {
		role := strings.TrimSpace(m.Role)
		if role == "" {
			role = "user"
		}
		content := strings.TrimSpace(m.Content)
		if content == "" && log != nil {
			log.Warn("Coerced empty message content for outbound call", "role", role)
		}
		out = append(out, AIMessage{Role: role, Content: content})
	}
	return out
}
