package harvest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(status int, contentType string, body string) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(status, body)
		if contentType != "" {
			resp.Header.Set("Content-Type", contentType)
		}
		resp.Request = req
		return resp, nil
	}
}

func newMockFetcher(t *testing.T, m *Metrics) (*HTTPFetcher, *httpmock.MockTransport) {
	t.Helper()

	mock := httpmock.NewMockTransport()
	return NewHTTPFetcher(&http.Client{Transport: mock}, 0, m), mock
}

func TestHTTPFetcherSuccess(t *testing.T) {
	f, mock := newMockFetcher(t, NewMetrics())

	var accept string
	mock.RegisterResponder(http.MethodGet, "https://x.test/media/person/a.jpg",
		func(req *http.Request) (*http.Response, error) {
			accept = req.Header.Get("Accept")
			return respond(http.StatusOK, "image/jpeg", "jpegdata")(req)
		})

	resp, err := f.Fetch(context.Background(), "https://x.test/media/person/a.jpg", AcceptImage)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "jpegdata", string(body))
	assert.Equal(t, "image/jpeg", resp.ContentType)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://x.test/media/person/a.jpg", resp.URL)
	assert.Equal(t, AcceptImage, accept)
}

func TestHTTPFetcherStatusErrors(t *testing.T) {
	f, mock := newMockFetcher(t, nil)

	mock.RegisterResponder(http.MethodGet, "https://x.test/403", respond(http.StatusForbidden, "text/html", "no"))
	mock.RegisterResponder(http.MethodGet, "https://x.test/404", respond(http.StatusNotFound, "text/html", "gone"))
	mock.RegisterResponder(http.MethodGet, "https://x.test/503", respond(http.StatusServiceUnavailable, "", ""))

	_, err := f.Fetch(context.Background(), "https://x.test/403", AcceptHTML)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.Fetch(context.Background(), "https://x.test/404", AcceptHTML)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.Fetch(context.Background(), "https://x.test/503", AcceptHTML)
	var status StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusServiceUnavailable, status.Code)
	assert.Equal(t, "server_error", ErrorType(err))
}

func TestHTTPFetcherTransportError(t *testing.T) {
	f, mock := newMockFetcher(t, nil)
	mock.RegisterResponder(http.MethodGet, "https://x.test/", httpmock.NewErrorResponder(errors.New("boom")))

	_, err := f.Fetch(context.Background(), "https://x.test/", AcceptHTML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestHTTPFetcherCancelledContext(t *testing.T) {
	f, mock := newMockFetcher(t, nil)
	mock.RegisterResponder(http.MethodGet, "https://x.test/", respond(http.StatusOK, "text/html", ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, "https://x.test/", AcceptHTML)
	require.Error(t, err)
	assert.Equal(t, 0, mock.GetTotalCallCount())
}
