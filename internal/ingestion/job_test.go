package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"crlf normalized", "line one\r\nline two", "line one\nline two"},
		{"collapses spaces", "too    many   spaces", "too many spaces"},
		{"trims lines", "  padded line  ", "padded line"},
		{"caps blank runs", "a\n\n\n\n\nb", "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}

func TestJobFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.txt")
	require.NoError(t, os.WriteFile(path, []byte("We are hiring a   backend engineer.\r\n"), 0644))

	text, err := JobFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "We are hiring a backend engineer.", text)
}

func TestJobFromFile_Missing(t *testing.T) {
	_, err := JobFromFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestJobFromFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("   \n  \n"), 0644))

	_, err := JobFromFile(path)
	assert.Error(t, err)
}

func TestJobFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<nav>Menu</nav>
			<div class="job-description">Backend engineer with kubernetes experience.</div>
		</body></html>`))
	}))
	defer server.Close()

	text, err := JobFromURL(context.Background(), server.URL, false)
	require.NoError(t, err)
	assert.Contains(t, text, "kubernetes experience")
	assert.NotContains(t, text, "Menu")
}

func TestJobFromURL_FetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := JobFromURL(context.Background(), server.URL, false)
	assert.Error(t, err)
}
