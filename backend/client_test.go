package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFiles() []File {
	return []File{
		{Name: "a.txt", ContentType: "text/plain; charset=utf-8", Data: []byte("alpha"), Size: 5},
		{Name: "b.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4"), Size: 8},
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"http", "http://localhost:8000", false},
		{"https with path", "https://api.example.com/v1/", false},
		{"no scheme", "localhost:8000", true},
		{"ftp", "ftp://example.com", true},
		{"no host", "http://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.url, "", time.Second)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.False(t, strings.HasSuffix(c.BaseURL(), "/"))
		})
	}
}

func TestProcessSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/process", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "what is this?", r.FormValue("query"))

		headers := r.MultipartForm.File["files"]
		require.Len(t, headers, 2)
		assert.Equal(t, "a.txt", headers[0].Filename)
		assert.Equal(t, "b.pdf", headers[1].Filename)

		f, err := headers[0].Open()
		require.NoError(t, err)
		defer f.Close()
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "alpha", string(data))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{"query":"what is this?","result":"It is **alpha**."}}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "secret", 5*time.Second)
	require.NoError(t, err)

	res, err := c.Process(context.Background(), testFiles(), "  what is this?  ")
	require.NoError(t, err)
	assert.Equal(t, "what is this?", res.Query)
	assert.Equal(t, "It is **alpha**.", res.Text)
}

func TestProcessWithoutTokenSendsNoAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"response":{"query":"q","result":"r"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "", 5*time.Second)
	require.NoError(t, err)

	_, err = c.Process(context.Background(), testFiles(), "q")
	require.NoError(t, err)
}

func TestProcessValidatesInput(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "", 5*time.Second)
	require.NoError(t, err)

	_, err = c.Process(context.Background(), testFiles(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = c.Process(context.Background(), nil, "question")
	assert.ErrorIs(t, err, ErrNoFiles)

	assert.Zero(t, calls, "invalid input must not reach the server")
}

func TestProcessResponseSchema(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{"nested result", `{"response":{"query":"q","result":"answer"}}`, "answer", nil},
		{"empty result is valid", `{"response":{"query":"q","result":""}}`, "", nil},
		{"bare string", `"answer"`, "", ErrUnexpectedResponse},
		{"top-level result", `{"result":"answer"}`, "", ErrUnexpectedResponse},
		{"response as string", `{"response":"answer"}`, "", ErrUnexpectedResponse},
		{"result not a string", `{"response":{"query":"q","result":42}}`, "", ErrUnexpectedResponse},
		{"missing query", `{"response":{"result":"answer"}}`, "", ErrUnexpectedResponse},
		{"invalid json", `{"response":`, "", ErrUnexpectedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewClient(srv.URL, "", 5*time.Second)
			require.NoError(t, err)

			res, err := c.Process(context.Background(), testFiles(), "q")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Text)
		})
	}
}

func TestProcessStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "", 5*time.Second)
	require.NoError(t, err)

	_, err = c.Process(context.Background(), testFiles(), "q")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Contains(t, statusErr.Error(), "boom")
	assert.Equal(t, ErrorDisplayMessage, DisplayMessage(err))
}

func TestProcessHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "", 5*time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Process(ctx, testFiles(), "q")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/", "", time.Second)
	require.NoError(t, err)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestDisplayMessage(t *testing.T) {
	assert.Empty(t, DisplayMessage(nil))
	assert.Equal(t, ErrorDisplayMessage, DisplayMessage(ErrUnexpectedResponse))
	assert.Equal(t, ErrorDisplayMessage, DisplayMessage(&StatusError{StatusCode: 502}))
}
