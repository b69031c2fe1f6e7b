package model

// TankHistoryPoint is one derived tank-level sample used by the forecaster.
type TankHistoryPoint struct {
	LevelPercent float64 `json:"level_pct"`
	Timestamp    int64   `json:"timestamp_ms"`
}

// DeriveTankPoint converts a raw history row into a level percentage using
// the two calibration distances. The ultrasonic sensor measures distance to
// the water surface, so a smaller reading means a fuller tank. A row missing
// any of the three source fields is discarded.
func DeriveTankPoint(row RawTankRow) (TankHistoryPoint, bool) {
	if row.TankLevel == nil || row.DistanceFull == nil || row.DistanceEmpty == nil || row.CreatedAt == nil {
		return TankHistoryPoint{}, false
	}
	span := *row.DistanceEmpty - *row.DistanceFull
	if span == 0 {
		return TankHistoryPoint{}, false
	}
	level := Clamp01((*row.DistanceEmpty-*row.TankLevel)/span) * 100
	return TankHistoryPoint{
		LevelPercent: level,
		Timestamp:    row.CreatedAt.UnixMilli(),
	}, true
}

// DeriveTankPoints maps raw rows to history points, dropping unusable rows
// and preserving order.
func DeriveTankPoints(rows []RawTankRow) []TankHistoryPoint {
	out := make([]TankHistoryPoint, 0, len(rows))
	for _, r := range rows {
		if p, ok := DeriveTankPoint(r); ok {
			out = append(out, p)
		}
	}
	return out
}
