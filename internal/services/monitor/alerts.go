package monitor

import (
	"fmt"
	"strconv"
	"time"

	"github.com/oksi-iot/oksi-engine/internal/model"
)

// ===================== Alert thresholds =====================

const (
	soilLowPct     = 20 // below: soil alert + pump ON intent
	soilRecoverPct = 25 // at or above: pump OFF intent, no alert
	tankLowPct     = 30
	tempHighC      = 35
	humidityLowPct = 40
	batteryLowPct  = 30
)

// GenerateAlerts applies the per-category threshold rules to one snapshot
// pair. Each matched rule yields exactly one AlertEvent; the soil, tank and
// rain rules additionally yield relay intents that the cycle's arbitration
// merges with the decision engine's own command. Categories the user disabled
// are skipped entirely.
func GenerateAlerts(snap model.SensorSnapshot, tank model.TankSnapshot, enabled map[model.AlertCategory]bool, now time.Time) ([]model.AlertEvent, []RelayIntent) {
	var (
		alerts  []model.AlertEvent
		intents []RelayIntent
	)
	at := now.Format("15:04")

	if enabled[model.CategorySoilMoisture] {
		if snap.SoilMoisturePercent < soilLowPct {
			alerts = append(alerts, newAlert("soil", model.CategorySoilMoisture, "Soil Moisture Alert",
				fmt.Sprintf("Soil moisture is low: %s%%", fmtNum(snap.SoilMoisturePercent)), at, now))
			intents = append(intents, RelayIntent{Source: "alert:soilMoisture", State: model.RelayOn})
		} else if snap.SoilMoisturePercent >= soilRecoverPct {
			// recovered: request the pump off, no alert
			intents = append(intents, RelayIntent{Source: "alert:soilMoisture", State: model.RelayOff})
		}
	}

	if enabled[model.CategoryWaterLevel] && tank.LevelPercent < tankLowPct {
		alerts = append(alerts, newAlert("tank", model.CategoryWaterLevel, "Water Tank Alert",
			fmt.Sprintf("Water tank low: %s%% remaining", fmtNum(tank.LevelPercent)), at, now))
		intents = append(intents, RelayIntent{Source: "alert:waterLevel", State: model.RelayOff})
	}

	if enabled[model.CategoryRainDetection] && snap.Rain == model.Rain {
		alerts = append(alerts, newAlert("rain", model.CategoryRainDetection, "Rain Alert",
			"Rain detected near your crop", at, now))
		intents = append(intents, RelayIntent{Source: "alert:rainDetection", State: model.RelayOff})
	}

	if enabled[model.CategoryTemperature] && snap.TemperatureC > tempHighC {
		alerts = append(alerts, newAlert("temp", model.CategoryTemperature, "Temperature Alert",
			fmt.Sprintf("High temperature detected: %s°C", fmtNum(snap.TemperatureC)), at, now))
	}

	if enabled[model.CategoryHumidity] && snap.HumidityPercent < humidityLowPct {
		alerts = append(alerts, newAlert("humidity", model.CategoryHumidity, "Humidity Alert",
			fmt.Sprintf("Low humidity detected: %s%%", fmtNum(snap.HumidityPercent)), at, now))
	}

	if enabled[model.CategoryPumpStatus] && tank.Relay == model.RelayOff {
		alerts = append(alerts, newAlert("pump", model.CategoryPumpStatus, "Pump Alert",
			"Water pump is OFF", at, now))
	}

	if enabled[model.CategoryBattery] && snap.BatteryPercent < batteryLowPct {
		alerts = append(alerts, newAlert("battery", model.CategoryBattery, "Battery Alert",
			fmt.Sprintf("Low battery level: %s%%", fmtNum(snap.BatteryPercent)), at, now))
	}

	return alerts, intents
}

// DefaultEnabledCategories enables every category, matching a fresh install.
func DefaultEnabledCategories() map[model.AlertCategory]bool {
	out := make(map[model.AlertCategory]bool)
	for _, c := range model.AllCategories() {
		out[c] = true
	}
	return out
}

func newAlert(prefix string, cat model.AlertCategory, title, message, at string, now time.Time) model.AlertEvent {
	return model.AlertEvent{
		ID:         fmt.Sprintf("%s-%d", prefix, now.UnixMilli()),
		Category:   cat,
		Title:      title,
		Message:    message,
		OccurredAt: at,
	}
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
