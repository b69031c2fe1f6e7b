package model

import "time"

// RawSensorRow mirrors one row of the sensor_data table as PostgREST returns
// it. Pointer fields distinguish "null" from zero so the normalizer can apply
// defaults.
type RawSensorRow struct {
	PlantDeviceID  string     `json:"plant_device_id"`
	Temperature    *float64   `json:"temperature"`
	Humidity       *float64   `json:"humidity"`
	Soil           *float64   `json:"soil"`
	Rain           *string    `json:"rain"`
	Crop           *string    `json:"crop"`
	Light          *float64   `json:"light"`
	BatteryPercent *float64   `json:"battery_percent"`
	CreatedAt      *time.Time `json:"created_at"`
}

// RawTankRow mirrors one row of the tank_data table. The status form carries
// tank_level and relay_state; the history form additionally carries the two
// calibration distances.
type RawTankRow struct {
	UserID        string     `json:"user_id"`
	TankLevel     *float64   `json:"tank_level"`
	RelayState    *string    `json:"relay_state"`
	DistanceFull  *float64   `json:"distance_full"`
	DistanceEmpty *float64   `json:"distance_empty"`
	CreatedAt     *time.Time `json:"created_at"`
}
