package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_SendsReports(t *testing.T) {
	var (
		mu       sync.Mutex
		received []Report
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var rep Report
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rep))

		mu.Lock()
		received = append(received, rep)
		mu.Unlock()
	}))
	defer srv.Close()

	r := New(zerolog.Nop(), srv.URL)
	r.Start(context.Background())

	r.Add(Report{URL: "https://node.mangadex.network/data/hash/1.png", Success: true, Bytes: 1024, Cached: true, Duration: 12})
	r.Add(Report{URL: "https://uploads.mangadex.org/covers/id/cover.jpg.512.jpg", Success: true})

	r.Stop()

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, received, 1)
	assert.Equal(t, Report{URL: "https://node.mangadex.network/data/hash/1.png", Success: true, Bytes: 1024, Cached: true, Duration: 12}, received[0])
}

func TestReporter_AddAfterStop(t *testing.T) {
	r := New(zerolog.Nop(), "http://127.0.0.1:0")
	r.Start(context.Background())
	r.Stop()

	assert.NotPanics(t, func() {
		r.Add(Report{URL: "https://node.mangadex.network/data/hash/1.png"})
		r.Stop()
	})
}

func TestReporter_DropsWhenFull(t *testing.T) {
	r := New(zerolog.Nop(), "http://127.0.0.1:0")

	for i := 0; i < queueSize+10; i++ {
		r.Add(Report{URL: "https://node.mangadex.network/data/hash/1.png"})
	}

	assert.Len(t, r.queue, queueSize)
	r.Stop()
}

func TestIsUploadsURL(t *testing.T) {
	assert.True(t, isUploadsURL("https://uploads.mangadex.org/covers/a/b.jpg"))
	assert.False(t, isUploadsURL("https://abc.def.mangadex.network/data/x/1.png"))
	assert.False(t, isUploadsURL("::"))
}
