package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
)

func TestRequest_GetWithQueryAndBearer(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client, err := NewInstrumentedClient(
		WithBaseURL(server.URL+"/api/proxy/api/v2/"),
		WithBearerToken("s3cret"),
		WithProviderName("test"),
	)
	require.NoError(t, err)

	resp, err := client.NewRequest().
		SetQueryParam("page", "2").
		SetQueryParam("limit", "25").
		Get(context.Background(), "transactions/history")
	require.NoError(t, err)

	assert.True(t, resp.IsSuccess())
	assert.Equal(t, `{"ok":true}`, resp.String())
	assert.Equal(t, "/api/proxy/api/v2/transactions/history", gotPath)
	assert.Equal(t, "limit=25&page=2", gotQuery)
	assert.Equal(t, "Bearer s3cret", gotAuth)
}

func TestRequest_PostEncodesJSON(t *testing.T) {
	var body map[string]string
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, err := NewInstrumentedClient(WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.NewRequest().
		SetBody(map[string]string{"label": "hot"}).
		Post(context.Background(), "/wallets/add")
	require.NoError(t, err)

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "hot", body["label"])
}

func TestRequest_NonSuccessStatusIsError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode apperror.Code
		wantMsg  string
	}{
		{"json_error", http.StatusInternalServerError, `{"error":"database offline"}`, apperror.CodeAPIRequestFailed, "database offline"},
		{"json_message", http.StatusBadRequest, `{"message":"bad page"}`, apperror.CodeAPIRequestFailed, "bad page"},
		{"plain_text", http.StatusBadGateway, "upstream exploded", apperror.CodeAPIUnavailable, "upstream exploded"},
		{"empty", http.StatusNotFound, "", apperror.CodeAPINotFound, "HTTP 404 Not Found"},
		{"unauthorized", http.StatusUnauthorized, "", apperror.CodeAPIUnauthorized, "401"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewInstrumentedClient(WithBaseURL(server.URL))
			require.NoError(t, err)

			_, err = client.NewRequest().Get(context.Background(), "alerts/active")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperror.GetCode(err))
			assert.Contains(t, apperror.Message(err), tt.wantMsg)
		})
	}
}

func TestRequest_CustomStatusHandler(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	client, err := NewInstrumentedClient(WithBaseURL(server.URL))
	require.NoError(t, err)

	resp, err := client.NewRequest(WithStatusHandler(nil)).Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestRequest_TransportError(t *testing.T) {
	client, err := NewInstrumentedClient(WithBaseURL("http://127.0.0.1:1"))
	require.NoError(t, err)

	_, err = client.NewRequest().Get(context.Background(), "wallets")
	require.Error(t, err)
	assert.Equal(t, apperror.CodeAPIRequestFailed, apperror.GetCode(err))
}

func TestResolveURL(t *testing.T) {
	q := url.Values{"page": {"1"}}

	assert.Equal(t, "http://h/api/x?page=1", ResolveURL("http://h/api/", "/x", q))
	assert.Equal(t, "http://h/api/x", ResolveURL("http://h/api", "x", nil))
	assert.Equal(t, "https://other/y", ResolveURL("http://h", "https://other/y", nil))
	assert.Equal(t, "http://h/x?a=b&page=1", ResolveURL("http://h", "x?a=b", q))
}

func TestServerMessage_TruncatesOnRuneBoundary(t *testing.T) {
	body := "a" + strings.Repeat("é", 300)

	msg := ServerMessage(http.StatusInternalServerError, []byte(body))

	assert.True(t, utf8.ValidString(msg))
	assert.True(t, strings.HasSuffix(msg, "é..."))
	assert.LessOrEqual(t, len(msg), len(http.StatusText(http.StatusInternalServerError))+maxErrorBody+20)
}
