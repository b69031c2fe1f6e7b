package monitor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ESP32Client configures a sensor unit while the phone (or operator box) is
// joined to the device's own access point. The firmware exposes two form
// endpoints: /configure stores WiFi credentials plus the crop selection, and
// /calibrate stores the two tank distances used to derive level percent.
type ESP32Client struct {
	baseURL string
	client  *http.Client
}

func NewESP32Client(baseURL string) *ESP32Client {
	return &ESP32Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// the AP link is slow; firmware also reboots right after answering
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Configure sends WiFi credentials and the crop to the device. After a
// successful call the ESP32 restarts and joins the given network.
func (c *ESP32Client) Configure(ctx context.Context, ssid, password, crop string) error {
	form := url.Values{}
	form.Set("ssid", ssid)
	form.Set("password", password)
	form.Set("crop", crop)
	return c.postForm(ctx, "/configure", form)
}

// Calibrate stores the ultrasonic distances measured at full and empty tank.
func (c *ESP32Client) Calibrate(ctx context.Context, distanceFullCM, distanceEmptyCM float64) error {
	if distanceEmptyCM <= distanceFullCM {
		return fmt.Errorf("esp32: empty distance %.1f must exceed full distance %.1f", distanceEmptyCM, distanceFullCM)
	}
	form := url.Values{}
	form.Set("distance_full", strconv.FormatFloat(distanceFullCM, 'f', 1, 64))
	form.Set("distance_empty", strconv.FormatFloat(distanceEmptyCM, 'f', 1, 64))
	return c.postForm(ctx, "/calibrate", form)
}

func (c *ESP32Client) postForm(ctx context.Context, path string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("esp32: post %s: %w (is the phone on the device AP?)", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("esp32: post %s: status %d: %s", path, resp.StatusCode, string(b))
	}
	return nil
}
