package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/oksi-iot/oksi-engine/internal/model"
)

// ===================== Supabase (PostgREST) client =====================

// SupabaseClient talks to the cloud backend's REST surface: sensor rows, tank
// rows, relay command inserts and per-user sensor preferences.
type SupabaseClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// Compile-time checks against the collaborator contracts.
var (
	_ SensorSource    = (*SupabaseClient)(nil)
	_ RelaySink       = (*SupabaseClient)(nil)
	_ PreferenceStore = (*SupabaseClient)(nil)
)

func NewSupabaseClient(baseURL, apiKey string, timeout time.Duration) *SupabaseClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SupabaseClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// LatestSensorRow fetches the most recent sensor_data row for the device.
// ok is false when the table has no row for it yet.
func (c *SupabaseClient) LatestSensorRow(ctx context.Context, deviceID string) (model.RawSensorRow, bool, error) {
	q := url.Values{}
	q.Set("select", "plant_device_id,temperature,humidity,soil,rain,crop,light,battery_percent,created_at")
	q.Set("plant_device_id", "eq."+deviceID)
	q.Set("order", "id.desc")
	q.Set("limit", "1")

	var rows []model.RawSensorRow
	if err := c.getJSON(ctx, "/rest/v1/sensor_data?"+q.Encode(), &rows); err != nil {
		return model.RawSensorRow{}, false, err
	}
	if len(rows) == 0 {
		return model.RawSensorRow{}, false, nil
	}
	return rows[0], true, nil
}

// LatestTankRow fetches the most recent tank_data row for the user.
func (c *SupabaseClient) LatestTankRow(ctx context.Context, userID string) (model.RawTankRow, bool, error) {
	q := url.Values{}
	q.Set("select", "user_id,tank_level,relay_state,created_at")
	q.Set("user_id", "eq."+userID)
	q.Set("order", "id.desc")
	q.Set("limit", "1")

	var rows []model.RawTankRow
	if err := c.getJSON(ctx, "/rest/v1/tank_data?"+q.Encode(), &rows); err != nil {
		return model.RawTankRow{}, false, err
	}
	if len(rows) == 0 {
		return model.RawTankRow{}, false, nil
	}
	return rows[0], true, nil
}

// TankHistory fetches the newest `limit` history rows (with calibration
// distances) in chronological order.
func (c *SupabaseClient) TankHistory(ctx context.Context, userID string, limit int) ([]model.RawTankRow, error) {
	if limit <= 0 {
		limit = 48
	}
	q := url.Values{}
	q.Set("select", "user_id,tank_level,distance_full,distance_empty,created_at")
	q.Set("user_id", "eq."+userID)
	q.Set("order", "id.desc")
	q.Set("limit", fmt.Sprintf("%d", limit))

	var rows []model.RawTankRow
	if err := c.getJSON(ctx, "/rest/v1/tank_data?"+q.Encode(), &rows); err != nil {
		return nil, err
	}
	// newest-first from the API; the forecaster wants chronological
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// AppendRelayCommand inserts one row into relay_commands. Fire-and-forget
// from the caller's perspective: errors are returned for logging only and are
// never retried within the cycle.
func (c *SupabaseClient) AppendRelayCommand(ctx context.Context, cmd model.RelayCommand) error {
	payload := []map[string]any{{
		"user_id":     cmd.UserID,
		"relay_state": string(cmd.State),
	}}
	return c.postJSON(ctx, "/rest/v1/relay_commands", payload)
}

// EnabledCategories reads the user's sensor preference flags. A missing row
// means every category is enabled.
func (c *SupabaseClient) EnabledCategories(ctx context.Context, userID string) (map[model.AlertCategory]bool, error) {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	q.Set("limit", "1")

	var rows []map[string]any
	if err := c.getJSON(ctx, "/rest/v1/sensor_prefs?"+q.Encode(), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return DefaultEnabledCategories(), nil
	}

	out := make(map[model.AlertCategory]bool)
	for _, cat := range model.AllCategories() {
		v, ok := rows[0][string(cat)].(bool)
		if !ok {
			v = true
		}
		out[cat] = v
	}
	return out, nil
}

// --------------------- transport ---------------------

// getJSON performs an authenticated GET with a short backoff retry. Reads are
// idempotent, so a couple of retries inside the cycle are safe.
func (c *SupabaseClient) getJSON(ctx context.Context, path string, out any) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 3 * time.Second

	return backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		c.authorize(req)

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("supabase: get %s: %w", path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
			err := fmt.Errorf("supabase: get %s: status %d: %s", path, resp.StatusCode, string(b))
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("supabase: decode %s: %w", path, err))
		}
		return nil
	}, backoff.WithContext(bo, ctx))
}

func (c *SupabaseClient) postJSON(ctx context.Context, path string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("supabase: marshal %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("supabase: post %s: status %d: %s", path, resp.StatusCode, string(body))
	}
	log.Debug().Str("path", path).Msg("supabase: insert ok")
	return nil
}

func (c *SupabaseClient) authorize(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}
