package monitor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oksi-iot/oksi-engine/internal/model"
)

func TestLatestSensorRow(t *testing.T) {
	var gotReq *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		io.WriteString(w, `[{"plant_device_id":"esp32-01","soil":42.5,"temperature":27,"rain":"No Rain","created_at":"2026-03-01T08:30:00Z"}]`)
	}))
	defer srv.Close()

	c := NewSupabaseClient(srv.URL, "anon-key", time.Second)
	row, ok, err := c.LatestSensorRow(context.Background(), "esp32-01")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("ok = false")
	}

	if gotReq.URL.Path != "/rest/v1/sensor_data" {
		t.Errorf("path = %q", gotReq.URL.Path)
	}
	q := gotReq.URL.Query()
	if q.Get("plant_device_id") != "eq.esp32-01" {
		t.Errorf("device filter = %q", q.Get("plant_device_id"))
	}
	if q.Get("order") != "id.desc" || q.Get("limit") != "1" {
		t.Errorf("query = %v", q)
	}
	if gotReq.Header.Get("apikey") != "anon-key" {
		t.Errorf("apikey header = %q", gotReq.Header.Get("apikey"))
	}
	if gotReq.Header.Get("Authorization") != "Bearer anon-key" {
		t.Errorf("authorization header = %q", gotReq.Header.Get("Authorization"))
	}

	if row.PlantDeviceID != "esp32-01" || *row.Soil != 42.5 || *row.Temperature != 27 {
		t.Errorf("row = %+v", row)
	}
}

func TestLatestSensorRowEmptyTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := NewSupabaseClient(srv.URL, "k", time.Second)
	_, ok, err := c.LatestSensorRow(context.Background(), "esp32-01")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("empty table reported a row")
	}
}

func TestTankHistoryReversedToChronological(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// PostgREST answers newest first
		io.WriteString(w, `[
			{"tank_level":60,"distance_full":20,"distance_empty":100,"created_at":"2026-03-01T10:00:00Z"},
			{"tank_level":50,"distance_full":20,"distance_empty":100,"created_at":"2026-03-01T09:00:00Z"},
			{"tank_level":40,"distance_full":20,"distance_empty":100,"created_at":"2026-03-01T08:00:00Z"}
		]`)
	}))
	defer srv.Close()

	c := NewSupabaseClient(srv.URL, "k", time.Second)
	rows, err := c.TankHistory(context.Background(), "u1", 48)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].CreatedAt.Before(*rows[i-1].CreatedAt) {
			t.Fatalf("rows not chronological: %v before %v", rows[i].CreatedAt, rows[i-1].CreatedAt)
		}
	}
}

func TestAppendRelayCommand(t *testing.T) {
	var gotBody []map[string]any
	var gotPrefer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPrefer = r.Header.Get("Prefer")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewSupabaseClient(srv.URL, "k", time.Second)
	err := c.AppendRelayCommand(context.Background(), model.RelayCommand{
		ID: "c1", UserID: "u1", State: model.RelayOn, Source: "monitor", IssuedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if gotPrefer != "return=minimal" {
		t.Errorf("Prefer = %q", gotPrefer)
	}
	if len(gotBody) != 1 || gotBody[0]["user_id"] != "u1" || gotBody[0]["relay_state"] != "ON" {
		t.Errorf("body = %v", gotBody)
	}
}

func TestEnabledCategoriesMissingRowDefaultsToAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := NewSupabaseClient(srv.URL, "k", time.Second)
	got, err := c.EnabledCategories(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	for _, cat := range model.AllCategories() {
		if !got[cat] {
			t.Errorf("category %s not enabled by default", cat)
		}
	}
}

func TestEnabledCategoriesReadsFlags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `[{"soilMoisture":false,"rainDetection":true}]`)
	}))
	defer srv.Close()

	c := NewSupabaseClient(srv.URL, "k", time.Second)
	got, err := c.EnabledCategories(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got[model.CategorySoilMoisture] {
		t.Error("disabled flag read as enabled")
	}
	if !got[model.CategoryRainDetection] {
		t.Error("enabled flag read as disabled")
	}
	// flags absent from the row default to enabled
	if !got[model.CategoryBattery] {
		t.Error("absent flag not defaulted to enabled")
	}
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewSupabaseClient(srv.URL, "bad-key", time.Second)
	if _, _, err := c.LatestSensorRow(context.Background(), "d"); err == nil {
		t.Fatal("401 did not error")
	}
	if calls != 1 {
		t.Errorf("client error retried %d times", calls)
	}
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := NewSupabaseClient(srv.URL, "k", time.Second)
	_, ok, err := c.LatestSensorRow(context.Background(), "d")
	if err != nil {
		t.Fatalf("retries did not recover: %v", err)
	}
	if ok {
		t.Error("empty table reported a row")
	}
	if calls < 3 {
		t.Errorf("calls = %d, want at least 3", calls)
	}
}
