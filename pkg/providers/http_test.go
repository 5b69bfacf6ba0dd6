package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %s", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("x-api-key") != "k" {
			t.Errorf("missing custom header")
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["q"] == "fail" {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream down"))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	headers := map[string]string{"x-api-key": "k"}

	raw, err := PostJSON(context.Background(), time.Second, server.URL, headers, map[string]string{"q": "ok"}, http.StatusOK)
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if string(raw) != `{"ok":true}` {
		t.Errorf("body = %s", raw)
	}

	_, err = PostJSON(context.Background(), time.Second, server.URL, headers, map[string]string{"q": "fail"}, http.StatusOK)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if se.Code != http.StatusBadGateway || se.Body != "upstream down" {
		t.Errorf("StatusError = %+v", se)
	}
	if se.Error() != "API error: 502 - upstream down" {
		t.Errorf("Error() = %q", se.Error())
	}
}

func TestPostJSONBadBody(t *testing.T) {
	_, err := PostJSON(context.Background(), time.Second, "http://127.0.0.1:1", nil, make(chan int), http.StatusOK)
	if err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestTimeoutOr(t *testing.T) {
	if got := TimeoutOr(0, time.Minute); got != time.Minute {
		t.Errorf("TimeoutOr(0) = %v", got)
	}
	if got := TimeoutOr(5*time.Second, time.Minute); got != 5*time.Second {
		t.Errorf("TimeoutOr(5s) = %v", got)
	}
}
