// Package gemini is a minimal client for the Google generative-language
// API (generateContent), used to translate batches of strings with a
// schema-constrained JSON response.
//
// Requests are never retried. Every failure is returned as *Error with a
// Kind so callers can tell transport problems from refusals and from
// malformed output.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/minios-linux/lokcheck/localefile"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 120 * time.Second

	userAgent = "lokcheck/1.0"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// Kind classifies a failed Translate call.
type Kind int

const (
	// KindTransport: the request never produced an HTTP response
	// (network error, timeout, cancellation).
	KindTransport Kind = iota
	// KindStatus: the API answered with a non-2xx status.
	KindStatus
	// KindBlocked: the prompt or the candidate was refused.
	KindBlocked
	// KindParse: the body or the model text is not valid JSON.
	KindParse
	// KindSchema: valid JSON that does not match {"translations": {...}}.
	KindSchema
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindBlocked:
		return "blocked"
	case KindParse:
		return "parse"
	case KindSchema:
		return "schema"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the error type returned by Client.Translate.
type Error struct {
	Kind Kind
	// Status is the HTTP status code for KindStatus, 0 otherwise.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("gemini %s error (HTTP %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("gemini %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a *Error of kind k.
func IsKind(err error, k Kind) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == k
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// Config holds the client settings. Empty fields take the defaults.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// Proxy overrides HTTP_PROXY/HTTPS_PROXY from the environment.
	Proxy   string
	Timeout time.Duration
}

// Client calls generateContent for one model.
type Client struct {
	cfg  Config
	http *resty.Client
}

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg:  cfg,
		http: resty.NewWithClient(makeHTTPClient(cfg.Proxy, cfg.Timeout)),
	}
}

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// Request
// ---------------------------------------------------------------------------

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType   string         `json:"responseMimeType"`
	ResponseJSONSchema map[string]any `json:"responseJsonSchema"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

// responseSchema constrains the model output to
// {"translations": {"<key>": "<string>", ...}}.
func responseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"translations": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
		},
		"required": []string{"translations"},
	}
}

var harmCategories = []string{
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

func buildRequest(prompt string) generateRequest {
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType:   "application/json",
			ResponseJSONSchema: responseSchema(),
		},
	}
	for _, c := range harmCategories {
		req.SafetySettings = append(req.SafetySettings, safetySetting{Category: c, Threshold: "BLOCK_NONE"})
	}
	return req
}

// BuildPrompt returns the translation prompt for batch. Keys are listed in
// sorted order as 2-space indented JSON.
func BuildPrompt(batch map[string]string, language string) string {
	keys := make([]string, 0, len(batch))
	for k := range batch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := localefile.NewObject()
	for _, k := range keys {
		doc.Set(k, localefile.NewString(batch[k]))
	}
	// Marshal only fails on malformed scalar nodes; these are all strings.
	data, _ := doc.Marshal()

	return fmt.Sprintf("Translate the following English JSON values to %s. "+
		"Return a JSON object with the original keys and translated values.\n\n%s",
		language, strings.TrimSuffix(string(data), "\n"))
}

// ---------------------------------------------------------------------------
// Response
// ---------------------------------------------------------------------------

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// blockedFinish lists finish reasons that mean the candidate was refused.
var blockedFinish = map[string]bool{
	"SAFETY":             true,
	"RECITATION":         true,
	"BLOCKLIST":          true,
	"PROHIBITED_CONTENT": true,
	"SPII":               true,
}

var markdownCodeBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// Translate sends batch (key -> English text) and returns key -> translated
// text for the batch keys the model answered. Keys not in batch are dropped.
// An empty batch returns an empty map without a request.
func (c *Client) Translate(ctx context.Context, batch map[string]string, language string) (map[string]string, error) {
	if len(batch) == 0 {
		return map[string]string{}, nil
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)

	rr, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", c.cfg.APIKey).
		SetHeader("User-Agent", userAgent).
		SetBody(buildRequest(BuildPrompt(batch, language))).
		Post(endpoint)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	if rr.IsError() {
		return nil, &Error{Kind: KindStatus, Status: rr.StatusCode(), Err: errors.New(apiErrorMessage(rr.Body(), rr.Status()))}
	}

	text, err := extractText(rr.Body())
	if err != nil {
		return nil, err
	}

	translations, err := parseTranslations(text)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(batch))
	for k := range batch {
		if v, ok := translations[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// apiErrorMessage returns error.message from a Google API error body, or
// the HTTP status line if there is none.
func apiErrorMessage(body []byte, status string) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return status
}

// extractText returns candidates[0].content.parts[0].text.
func extractText(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &Error{Kind: KindParse, Err: fmt.Errorf("invalid JSON response: %w", err)}
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", &Error{Kind: KindBlocked, Err: fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)}
	}
	if len(resp.Candidates) == 0 {
		return "", &Error{Kind: KindBlocked, Err: errors.New("no candidates returned")}
	}

	cand := resp.Candidates[0]
	if blockedFinish[cand.FinishReason] {
		return "", &Error{Kind: KindBlocked, Err: fmt.Errorf("candidate blocked: %s", cand.FinishReason)}
	}
	if len(cand.Content.Parts) == 0 || strings.TrimSpace(cand.Content.Parts[0].Text) == "" {
		return "", &Error{Kind: KindParse, Err: fmt.Errorf("empty response text (finish reason %q)", cand.FinishReason)}
	}
	return cand.Content.Parts[0].Text, nil
}

// parseTranslations decodes {"translations": {...}} from the model text,
// tolerating a surrounding markdown code fence.
func parseTranslations(text string) (map[string]string, error) {
	text = strings.TrimSpace(text)
	if m := markdownCodeBlock.FindStringSubmatch(text); len(m) > 1 {
		text = m[1]
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &Error{Kind: KindParse, Err: fmt.Errorf("model output is not a JSON object: %w", err)}
	}

	raw, ok := doc["translations"]
	if !ok {
		return nil, &Error{Kind: KindSchema, Err: errors.New(`missing "translations" field`)}
	}

	var translations map[string]string
	if err := json.Unmarshal(raw, &translations); err != nil {
		return nil, &Error{Kind: KindSchema, Err: fmt.Errorf(`"translations" is not an object of strings: %w`, err)}
	}
	if translations == nil {
		return nil, &Error{Kind: KindSchema, Err: errors.New(`"translations" is null`)}
	}
	return translations, nil
}
