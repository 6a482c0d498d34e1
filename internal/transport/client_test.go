package transport

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/ipFirto/ConsumeAnalyseSystem/internal/config"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newTestClient(t *testing.T, handler http.Handler, token string) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var tokens TokenSource
	if token != "" {
		tokens = StaticToken(token)
	}
	cfg := &config.BackendConfig{
		BaseURL:        srv.URL,
		RequestTimeout: 5 * time.Second,
	}
	return NewClient(cfg, newTestLogger(), tokens), srv
}

func TestClient_EnvelopeDecoding(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":200,"msg":"ok","data":[1,2,3]}`))
	})
	client, _ := newTestClient(t, handler, "")

	envelope, err := client.Get(context.Background(), "/platform/list", nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if envelope.Code != 200 || envelope.Msg != "ok" {
		t.Errorf("unexpected envelope: %+v", envelope)
	}
	if string(envelope.Data) != "[1,2,3]" {
		t.Errorf("raw data = %s", envelope.Data)
	}
}

func TestClient_BusinessFailureIsNotError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":500,"msg":"internal","data":null}`))
	})
	client, _ := newTestClient(t, handler, "")

	envelope, err := client.Get(context.Background(), "/platform/list", nil)
	if err != nil {
		t.Fatalf("code != 200 must not be a transport error, got %v", err)
	}
	if envelope.Code != 500 {
		t.Errorf("code = %d, want 500", envelope.Code)
	}
}

func TestClient_TokenInjection(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"code":200,"msg":"","data":null}`))
	})
	client, _ := newTestClient(t, handler, "tok-123")

	if _, err := client.Get(context.Background(), "/platform/list", nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotAuth != "tok-123" {
		t.Errorf("Authorization = %q, want tok-123", gotAuth)
	}

	// 公开路径不注入令牌
	gotAuth = "unset"
	if _, err := client.Post(context.Background(), "/user/login", nil, map[string]string{"name": "u"}); err != nil {
		t.Fatalf("post: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("public path Authorization = %q, want empty", gotAuth)
	}
}

func TestClient_QueryParams(t *testing.T) {
	var gotQuery url.Values
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"code":200,"msg":"","data":[]}`))
	})
	client, _ := newTestClient(t, handler, "")

	params := url.Values{}
	params.Set("platformId", "3")
	params.Set("limit", "5000")
	if _, err := client.Get(context.Background(), "/product/listByPlatform", params); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotQuery.Get("platformId") != "3" || gotQuery.Get("limit") != "5000" {
		t.Errorf("query = %v", gotQuery)
	}
}

func TestClient_MalformedBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	})
	client, _ := newTestClient(t, handler, "")

	if _, err := client.Get(context.Background(), "/platform/list", nil); err == nil {
		t.Fatalf("expected decode error for non-JSON body")
	}
}

func TestIsPublicPath(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/user/login", true},
		{"/user/login?redirect=1", true},
		{"/user/register", true},
		{"/user/sendEmailCode", true},
		{"/user/forget", true},
		{"/user/judgeIfExist", true},
		{"/platform/list", false},
		{"/show/userOrder", false},
	}
	for _, tc := range cases {
		if got := isPublicPath(tc.path); got != tc.want {
			t.Errorf("isPublicPath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
