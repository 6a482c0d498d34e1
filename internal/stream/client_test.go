package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ipFirto/ConsumeAnalyseSystem/internal/model"
)

// sseHandler 把给定的原始 SSE 片段写给客户端后挂起，直到请求取消。
func sseHandler(t *testing.T, chunks ...string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("response writer does not support flushing")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		for _, chunk := range chunks {
			fmt.Fprint(w, chunk)
			flusher.Flush()
		}
		<-r.Context().Done()
	})
}

func collectEvents(t *testing.T, srv *httptest.Server, query func(*Options)) []model.DashboardEvent {
	t.Helper()

	events := make(chan model.DashboardEvent, 16)
	opts := Options{
		BaseURL: srv.URL,
		OnEvent: func(evt model.DashboardEvent) { events <- evt },
	}
	if query != nil {
		query(&opts)
	}

	h, err := Open(context.Background(), opts)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(h.Close)

	var got []model.DashboardEvent
	for {
		select {
		case evt := <-events:
			got = append(got, evt)
		case <-time.After(300 * time.Millisecond):
			return got
		}
	}
}

func TestOpen_DispatchesNamedEvents(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		"event: hello\ndata: {\"cursor\":1,\"type\":\"hello\",\"topic\":\"home\"}\n\n",
		"event: patch\ndata: {\"cursor\":2,\"type\":\"patch\",\"topic\":\"home\",\"op\":\"order\"}\n\n",
	))
	t.Cleanup(srv.Close)

	got := collectEvents(t, srv, nil)
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	if got[0].Type != "hello" || got[0].Cursor != 1 {
		t.Errorf("first event = %+v", got[0])
	}
	if got[1].Op != "order" || got[1].Cursor != 2 {
		t.Errorf("second event = %+v", got[1])
	}
}

func TestOpen_DropsMalformedSilently(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		"event: patch\ndata: not-json\n\n",
		"event: patch\ndata: [1,2,3]\n\n",
		"event: patch\ndata: \"just a string\"\n\n",
		"event: custom\ndata: {\"cursor\":9}\n\n",
		": comment line\n\n",
		"event: patch\ndata: {\"cursor\":3,\"type\":\"patch\"}\n\n",
	))
	t.Cleanup(srv.Close)

	got := collectEvents(t, srv, nil)
	if len(got) != 1 {
		t.Fatalf("events = %+v, want exactly the one valid patch", got)
	}
	if got[0].Cursor != 3 {
		t.Errorf("cursor = %d, want 3", got[0].Cursor)
	}
}

func TestOpen_MultilineData(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		"event: patch\ndata: {\"cursor\":7,\ndata: \"type\":\"patch\"}\n\n",
	))
	t.Cleanup(srv.Close)

	got := collectEvents(t, srv, nil)
	if len(got) != 1 || got[0].Cursor != 7 {
		t.Fatalf("events = %+v, want one event joined from two data lines", got)
	}
}

func TestOpen_QueryParameters(t *testing.T) {
	seen := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.URL.RawQuery
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	h, err := Open(context.Background(), Options{
		BaseURL: srv.URL,
		Topics:  "orders",
		Token:   "tok-123",
		OnEvent: func(model.DashboardEvent) {},
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(h.Close)

	query := <-seen
	if query != "token=tok-123&topics=orders" {
		t.Errorf("query = %q", query)
	}
}

func TestOpen_DefaultTopics(t *testing.T) {
	if got := buildStreamURL("http://backend/api", "", ""); got != "http://backend/api/api/v1/dashboard/stream?topics=home" {
		t.Errorf("url = %q", got)
	}
}

func TestOpen_ConnectErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	if _, err := Open(context.Background(), Options{BaseURL: srv.URL, OnEvent: func(model.DashboardEvent) {}}); err == nil {
		t.Fatal("want error on non-200 status")
	}

	if _, err := Open(context.Background(), Options{BaseURL: srv.URL}); err == nil {
		t.Fatal("want error when OnEvent is missing")
	}
}

func TestOpen_DoneClosesAfterServerEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	h, err := Open(context.Background(), Options{BaseURL: srv.URL, OnEvent: func(model.DashboardEvent) {}})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done not closed after server ended the stream")
	}
}
