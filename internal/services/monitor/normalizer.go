package monitor

import (
	"time"

	"github.com/oksi-iot/oksi-engine/internal/model"
)

// Normalize turns raw, loosely-typed Supabase rows into validated,
// unit-consistent snapshots. Missing numeric fields coerce to 0 and missing
// rain text coerces to "No Rain"; the function never fails, every field has
// a default.
func Normalize(sensor model.RawSensorRow, tank model.RawTankRow) (model.SensorSnapshot, model.TankSnapshot) {
	snap := model.SensorSnapshot{
		DeviceID:            sensor.PlantDeviceID,
		SoilMoisturePercent: model.ClampPercent(f64(sensor.Soil)),
		TemperatureC:        f64(sensor.Temperature),
		HumidityPercent:     model.ClampPercent(f64(sensor.Humidity)),
		LightRaw:            f64(sensor.Light),
		Rain:                model.ClassifyRain(str(sensor.Rain)),
		Crop:                str(sensor.Crop),
		BatteryPercent:      model.ClampPercent(f64(sensor.BatteryPercent)),
		CapturedAt:          ts(sensor.CreatedAt),
	}

	tk := model.TankSnapshot{
		LevelPercent: model.ClampPercent(f64(tank.TankLevel)),
		Relay:        model.RelayOff,
	}
	if rs := str(tank.RelayState); rs == string(model.RelayOn) {
		tk.Relay = model.RelayOn
	}
	return snap, tk
}

// --------------------- small helpers ---------------------

func f64(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ts(p *time.Time) time.Time {
	if p == nil {
		return time.Time{}
	}
	return *p
}
