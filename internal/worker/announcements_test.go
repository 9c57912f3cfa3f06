package worker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAnnouncements(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/announcements", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("access_token"))
		assert.Equal(t, "2025-01-10", r.URL.Query().Get("date_start"))
		assert.Equal(t, "2025-01-12", r.URL.Query().Get("date_end"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"announcements": [
			{"secName": "Acme Corp", "reportTitle": "2024 Annual Results", "reportDate": "2025-01-10", "pdfUrl": "https://docs.example.com/1"},
			{"secName": "Beta Ltd", "reportTitle": "", "reportDate": "2025-01-11", "pdfUrl": "https://docs.example.com/2"},
			{"secName": "Gamma Inc", "reportTitle": "Share Buyback Plan", "reportDate": "2025-01-12", "pdfUrl": "https://docs.example.com/3"}
		]}`))
	}))
	defer server.Close()

	client := NewFeedClient(server.URL, "secret")
	announcements, err := client.FetchAnnouncements(context.Background(), "2025-01-10", "2025-01-12")
	require.NoError(t, err)

	// The record without a title is dropped.
	require.Len(t, announcements, 2)
	assert.Equal(t, "Acme Corp", announcements[0].SecName)
	assert.Equal(t, "2024 Annual Results", announcements[0].ReportTitle)
	assert.Equal(t, "https://docs.example.com/3", announcements[1].DocumentURL)
}

func TestFetchAnnouncements_FeedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewFeedClient(server.URL, "wrong")
	_, err := client.FetchAnnouncements(context.Background(), "2025-01-10", "2025-01-10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestFetchDocumentText_HTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><style>p{color:red}</style></head>
<body><script>track()</script><h1>Annual  Results</h1><p>Revenue grew 12%.</p></body></html>`))
	}))
	defer server.Close()

	client := NewFeedClient(server.URL, "secret")
	text, err := client.FetchDocumentText(context.Background(), server.URL+"/doc")
	require.NoError(t, err)

	assert.Equal(t, "Annual Results Revenue grew 12%.", text)
	assert.NotContains(t, text, "track()")
	assert.NotContains(t, text, "color:red")
}

func TestFetchDocumentText_PlainText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("plain announcement body"))
	}))
	defer server.Close()

	client := NewFeedClient(server.URL, "secret")
	text, err := client.FetchDocumentText(context.Background(), server.URL+"/doc")
	require.NoError(t, err)
	assert.Equal(t, "plain announcement body", text)
}

func TestFetchDocumentText_UnsupportedType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer server.Close()

	client := NewFeedClient(server.URL, "secret")
	_, err := client.FetchDocumentText(context.Background(), server.URL+"/doc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported document content type")
}
