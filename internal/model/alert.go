package model

// AlertCategory identifies which sensor rule produced an alert. The values
// double as the keys of the per-user sensor preference flags.
type AlertCategory string

const (
	CategorySoilMoisture   AlertCategory = "soilMoisture"
	CategoryWaterLevel     AlertCategory = "waterLevel"
	CategoryRainDetection  AlertCategory = "rainDetection"
	CategoryTemperature    AlertCategory = "temperature"
	CategoryHumidity       AlertCategory = "humidity"
	CategoryPumpStatus     AlertCategory = "pumpStatus"
	CategoryBattery        AlertCategory = "battery"
	CategoryLightIntensity AlertCategory = "lightIntensity"
)

// AllCategories lists every known category, used as the default preference set.
func AllCategories() []AlertCategory {
	return []AlertCategory{
		CategorySoilMoisture, CategoryWaterLevel, CategoryRainDetection,
		CategoryTemperature, CategoryHumidity, CategoryPumpStatus,
		CategoryBattery, CategoryLightIntensity,
	}
}

// AlertEvent is one user-facing alert. Delivered flips to true only after the
// notification collaborator accepted it.
type AlertEvent struct {
	ID         string        `json:"id"`
	Category   AlertCategory `json:"category"`
	Title      string        `json:"title"`
	Message    string        `json:"message"`
	OccurredAt string        `json:"occurred_at"` // time-of-day, "15:04"
	Delivered  bool          `json:"delivered"`
}

// SameAs reports whether two alerts are duplicates. Identity is title plus
// message; id and timestamp are deliberately ignored.
func (a AlertEvent) SameAs(b AlertEvent) bool {
	return a.Title == b.Title && a.Message == b.Message
}

// MergeAlerts unions a new batch into the accumulated list. Duplicates are
// filtered out of the batch at merge time, never retroactively; surviving new
// alerts are prepended so the freshest entries come first. Existing entries
// are only ever removed by explicit dismissal.
func MergeAlerts(existing, batch []AlertEvent) []AlertEvent {
	unique := make([]AlertEvent, 0, len(batch))
	for _, a := range batch {
		dup := false
		for _, prev := range existing {
			if a.SameAs(prev) {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, a)
		}
	}
	if len(unique) == 0 {
		return existing
	}
	out := make([]AlertEvent, 0, len(unique)+len(existing))
	out = append(out, unique...)
	out = append(out, existing...)
	return out
}

// DismissAlert removes the alert with the given id, if present.
func DismissAlert(alerts []AlertEvent, id string) []AlertEvent {
	out := alerts[:0]
	for _, a := range alerts {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}
