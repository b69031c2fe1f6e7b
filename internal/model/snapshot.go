package model

import (
	"strings"
	"time"
)

// RainState is what the rain sensor reports after text classification.
type RainState string

const (
	RainNone RainState = "No Rain"
	Rain     RainState = "Rain"
)

// RelayState is the desired or reported pump relay position.
type RelayState string

const (
	RelayOn  RelayState = "ON"
	RelayOff RelayState = "OFF"
)

// lightRawFullScale is the raw reading treated as 100% light.
const lightRawFullScale = 20000

// SensorSnapshot is one validated reading cycle for one plant device.
// All percent fields are clamped to [0,100]; missing source fields are zero.
type SensorSnapshot struct {
	DeviceID            string    `json:"device_id"`
	SoilMoisturePercent float64   `json:"soil_pct"`
	TemperatureC        float64   `json:"temperature_c"`
	HumidityPercent     float64   `json:"humidity_pct"`
	LightRaw            float64   `json:"light_raw"`
	Rain                RainState `json:"rain_state"`
	Crop                string    `json:"crop"`
	BatteryPercent      float64   `json:"battery_pct"`
	CapturedAt          time.Time `json:"captured_at"`
}

// LightPercent converts the raw light reading to a display percentage.
func (s SensorSnapshot) LightPercent() float64 {
	return ClampPercent(s.LightRaw / lightRawFullScale * 100)
}

// TankSnapshot is the last known tank level and pump state for one user.
type TankSnapshot struct {
	LevelPercent float64    `json:"level_pct"`
	Relay        RelayState `json:"relay_state"`
}

// ClassifyRain maps the free-text rain sensor field to a RainState.
// The text counts as rain only if it mentions "rain" without "no rain".
func ClassifyRain(text string) RainState {
	lc := strings.ToLower(strings.TrimSpace(text))
	if strings.Contains(lc, "rain") && !strings.Contains(lc, "no rain") {
		return Rain
	}
	return RainNone
}

// ClampPercent bounds a percent value to [0,100].
func ClampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Clamp01 bounds a ratio to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
