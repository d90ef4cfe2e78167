package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignIsDeterministicHexHMAC(t *testing.T) {
	sig1 := sign("my-secret", []byte(`{"event":"note.created"}`))
	sig2 := sign("my-secret", []byte(`{"event":"note.created"}`))
	assert.Equal(t, sig1, sig2)
	assert.Len(t, sig1, 64) // hex-encoded SHA-256 digest
}

func TestSignDiffersByKeyAndBody(t *testing.T) {
	body := []byte(`{"event":"note.created"}`)
	assert.NotEqual(t, sign("secret-a", body), sign("secret-b", body))
	assert.NotEqual(t, sign("secret-a", body), sign("secret-a", []byte(`{"event":"note.deleted"}`)))
}

func TestPostSendsSignatureHeaderWhenSecretSet(t *testing.T) {
	secret := "top-secret"
	var gotSignature string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := NewDispatcher(nil, 5*time.Second, nil)
	hook := &Webhook{ID: "wh1", URL: srv.URL, Secret: &secret}
	body := []byte(`{"event":"note.created"}`)

	status, respBody, success, err := d.post(context.Background(), hook, body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, success)
	assert.Equal(t, "ok", respBody)
	assert.Equal(t, sign(secret, body), gotSignature[len("sha256="):])
	assert.Equal(t, body, gotBody)
}

func TestPostOmitsSignatureHeaderWhenNoSecret(t *testing.T) {
	var gotSignature string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(nil, 5*time.Second, nil)
	hook := &Webhook{ID: "wh1", URL: srv.URL}

	_, _, success, err := d.post(context.Background(), hook, []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, success)
	assert.Empty(t, gotSignature)
}

func TestPostNonSuccessStatusReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	d := NewDispatcher(nil, 5*time.Second, nil)
	hook := &Webhook{ID: "wh1", URL: srv.URL}

	status, respBody, success, err := d.post(context.Background(), hook, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.False(t, success)
	assert.Equal(t, "boom", respBody)
}

func TestPostTruncatesOversizedResponseBody(t *testing.T) {
	oversized := make([]byte, responseBodyTruncateLimit+500)
	for i := range oversized {
		oversized[i] = 'x'
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(oversized)
	}))
	defer srv.Close()

	d := NewDispatcher(nil, 5*time.Second, nil)
	hook := &Webhook{ID: "wh1", URL: srv.URL}

	_, respBody, _, err := d.post(context.Background(), hook, []byte(`{}`))
	require.NoError(t, err)
	assert.Len(t, respBody, responseBodyTruncateLimit)
}
