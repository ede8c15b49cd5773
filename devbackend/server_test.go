package devbackend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docchat/backend"
	"docchat/format"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(":0", token, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	srv := New(":0", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestProcessRoundTrip(t *testing.T) {
	srv := newTestServer(t, "")

	client, err := backend.NewClient(srv.URL, "", 5*time.Second)
	require.NoError(t, err)

	files := []backend.File{
		{Name: "notes.txt", ContentType: "text/plain", Data: []byte("line one\nline two\nline three\nline four"), Size: 38},
		{Name: "scan.bin", ContentType: "application/octet-stream", Data: []byte{0, 1, 2, 3}, Size: 4},
	}

	res, err := client.Process(context.Background(), files, "summarize please")
	require.NoError(t, err)
	assert.Equal(t, "summarize please", res.Query)
	assert.Contains(t, res.Text, "**Received 2 documents**")
	assert.Contains(t, res.Text, "1. notes.txt (38 B, text/plain)")
	assert.Contains(t, res.Text, "2. scan.bin (4 B, application/octet-stream)")
	assert.Contains(t, res.Text, "You asked: summarize please")
	assert.Contains(t, res.Text, "line three")
	assert.NotContains(t, res.Text, "line four")

	doc := format.Parse(res.Text)
	var kinds []format.BlockKind
	for _, b := range doc.Blocks {
		kinds = append(kinds, b.Kind)
	}
	assert.Contains(t, kinds, format.BlockNumberedList)
	assert.Contains(t, kinds, format.BlockCode)
	assert.Contains(t, kinds, format.BlockMath)
	assert.Len(t, doc.Formulas(), 2)
}

func TestProcessRequiresToken(t *testing.T) {
	srv := newTestServer(t, "secret")
	files := []backend.File{{Name: "a.txt", Data: []byte("a"), Size: 1}}

	anonymous, err := backend.NewClient(srv.URL, "", 5*time.Second)
	require.NoError(t, err)
	_, err = anonymous.Process(context.Background(), files, "q")

	var statusErr *backend.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)

	authorized, err := backend.NewClient(srv.URL, "secret", 5*time.Second)
	require.NoError(t, err)
	_, err = authorized.Process(context.Background(), files, "q")
	assert.NoError(t, err)
}

func TestProcessRejectsBadRequests(t *testing.T) {
	srv := New(":0", "", nil)

	req := httptest.NewRequest(http.MethodPost, "/process", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSummarizeSingular(t *testing.T) {
	got := summarize([]receivedFile{{name: "a.txt", size: 1}}, "q")
	assert.Contains(t, got, "**Received 1 document**")
}
