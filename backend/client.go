package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"docchat/config"

	"github.com/tidwall/gjson"
)

// ErrorDisplayMessage is what the user sees when a question could not be answered
const ErrorDisplayMessage = "Sorry, I encountered an error processing your query."

// maxResponseBytes caps how much of a response body is read
const maxResponseBytes = 16 << 20

var (
	ErrEmptyQuery         = errors.New("query is empty")
	ErrNoFiles            = errors.New("no files attached")
	ErrUnexpectedResponse = errors.New("unexpected response format")
)

// StatusError is returned when the backend answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("server responded with %d", e.StatusCode)
	}
	return fmt.Sprintf("server responded with %d: %s", e.StatusCode, body)
}

// Result is the answer to one processed query
type Result struct {
	Query string
	Text  string
}

// Client talks to the document-processing endpoint
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient validates baseURL and returns a client for it. token may be
// empty, in which case no Authorization header is sent.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url must be http or https, got %q", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("backend url has no host: %q", baseURL)
	}

	return &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		token:      token,
		httpClient: newHTTPClient(timeout),
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Process sends files and query in a single multipart request and returns
// the answer. There is no retry.
func (c *Client) Process(ctx context.Context, files []File, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	body, contentType, err := encodeMultipart(files, query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	if config.DebugLog != nil {
		config.DebugLog.Printf("[backend] POST %s/process: %d files, query %d chars", c.baseURL, len(files), len(query))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[backend] status %d, %d bytes in %s", resp.StatusCode, len(data), time.Since(start))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return parseResult(data)
}

// parseResult accepts exactly {"response":{"query":string,"result":string}}
func parseResult(data []byte) (*Result, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrUnexpectedResponse)
	}

	response := gjson.GetBytes(data, "response")
	if !response.IsObject() {
		return nil, fmt.Errorf("%w: missing response object", ErrUnexpectedResponse)
	}

	query := response.Get("query")
	result := response.Get("result")
	if query.Type != gjson.String || result.Type != gjson.String {
		return nil, fmt.Errorf("%w: response.query and response.result must be strings", ErrUnexpectedResponse)
	}

	return &Result{Query: query.String(), Text: result.String()}, nil
}

func encodeMultipart(files []File, query string) (io.Reader, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	for _, f := range files {
		fw, err := w.CreatePart(filePartHeader(f))
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file for %s: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("failed to copy file content for %s: %w", f.Name, err)
		}
	}

	if err := w.WriteField("query", query); err != nil {
		return nil, "", fmt.Errorf("failed to write query field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return &b, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func filePartHeader(f File) textproto.MIMEHeader {
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", contentType)
	return h
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// Ping checks that the backend is reachable via GET /health
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return nil
}

// DisplayMessage maps any processing failure to the text shown in the chat
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	return ErrorDisplayMessage
}
