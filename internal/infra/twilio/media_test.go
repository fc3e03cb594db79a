package twilio_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra/twilio"
)

func TestMediaClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, testAuthToken, pass)

		w.Header().Set("Content-Type", "audio/ogg")
		w.Write([]byte("OggS-voice"))
	}))
	defer server.Close()

	client := twilio.NewMediaClient("AC123", testAuthToken, server.Client(), discardLogger())

	data, err := client.Fetch(context.Background(), server.URL+"/Media/ME1")
	require.NoError(t, err)
	assert.Equal(t, "OggS-voice", string(data))
}

func TestMediaClient_FetchFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := twilio.NewMediaClient("AC123", testAuthToken, server.Client(), discardLogger())

	_, err := client.Fetch(context.Background(), server.URL+"/Media/missing")
	assert.ErrorContains(t, err, "status 404")

	_, err = client.Fetch(context.Background(), "")
	assert.Error(t, err)
}
