package monitor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestOWMClient(srv *httptest.Server) *OWMClient {
	c := NewOWMClient("test-key", 14.676, 121.0437)
	c.baseURL = srv.URL
	return c
}

func TestOWMClientRequiresAPIKey(t *testing.T) {
	c := NewOWMClient("", 14.676, 121.0437)
	if _, err := c.Current(context.Background()); err == nil {
		t.Error("missing api key did not error")
	}
}

func TestOWMClientParsesRain(t *testing.T) {
	var gotReq *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		io.WriteString(w, `{"name":"Quezon City","weather":[{"main":"Rain"},{"main":"Mist"}],"main":{"temp":26.4}}`)
	}))
	defer srv.Close()

	cond, err := newTestOWMClient(srv).Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if gotReq.URL.Path != "/data/2.5/weather" {
		t.Errorf("path = %q", gotReq.URL.Path)
	}
	q := gotReq.URL.Query()
	if q.Get("appid") != "test-key" || q.Get("units") != "metric" {
		t.Errorf("query = %v", q)
	}

	if !cond.Raining {
		t.Error("Raining = false for a Rain condition group")
	}
	if cond.Main != "Rain" || cond.City != "Quezon City" || cond.TempC != 26.4 {
		t.Errorf("cond = %+v", cond)
	}
}

func TestOWMClientParsesClear(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"name":"Quezon City","weather":[{"main":"Clouds"}],"main":{"temp":31.0}}`)
	}))
	defer srv.Close()

	cond, err := newTestOWMClient(srv).Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cond.Raining {
		t.Error("Raining = true for a Clouds condition group")
	}
	if cond.Main != "Clouds" || cond.TempC != 31.0 {
		t.Errorf("cond = %+v", cond)
	}
}

func TestOWMClientNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"cod":401,"message":"Invalid API key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := newTestOWMClient(srv).Current(context.Background()); err == nil {
		t.Error("401 response did not error")
	}
}
