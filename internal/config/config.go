package config

import (
	"time"

	"github.com/spf13/viper"
)

// Load seeds defaults and binds environment variables. Call once at startup.
func Load() error {
	// Supabase (PostgREST)
	viper.SetDefault("SUPABASE_URL", "http://localhost:54321")
	viper.SetDefault("SUPABASE_ANON_KEY", "")

	// OpenWeather
	viper.SetDefault("OWM_API_KEY", "")
	viper.SetDefault("OWM_LAT", 14.676)
	viper.SetDefault("OWM_LON", 121.0437)

	// MQTT broker
	viper.SetDefault("MQTT_HOST", "localhost")
	viper.SetDefault("MQTT_PORT", 1883)
	viper.SetDefault("MQTT_USER", "guest")
	viper.SetDefault("MQTT_PASSWORD", "guest")

	// State store
	viper.SetDefault("STATE_BACKEND", "memory") // memory | redis
	viper.SetDefault("REDIS_ADDR", "localhost:6379")

	// Monitor service
	viper.SetDefault("MONITOR_USER_ID", "")
	viper.SetDefault("MONITOR_DEVICE_ID", "")
	viper.SetDefault("MONITOR_TIER_TABLE", "four") // four | three
	viper.SetDefault("SENSOR_POLL_INTERVAL", "10s")
	viper.SetDefault("STATUS_POLL_INTERVAL", "5s")
	viper.SetDefault("FORECAST_POLL_INTERVAL", "60s")
	viper.SetDefault("RAIN_RECHECK_DELAY", "30m")
	viper.SetDefault("DEVICE_STALE_AFTER", "2m")
	viper.SetDefault("TANK_HISTORY_WINDOW", 48)

	// ESP32 access-point endpoint
	viper.SetDefault("ESP32_BASE_URL", "http://192.168.4.1")

	// InfluxDB (event recorder)
	viper.SetDefault("INFLUX_URL", "http://influxdb:8086")
	viper.SetDefault("INFLUX_TOKEN", "")
	viper.SetDefault("INFLUX_ORG", "oksi")
	viper.SetDefault("INFLUX_BUCKET", "oksi_events")

	// HTTP
	viper.SetDefault("MONITOR_HTTP_ADDR", ":5080")
	viper.SetDefault("EVENT_HTTP_ADDR", ":5081")

	viper.AutomaticEnv()
	return nil
}

func SupabaseURL() string     { return viper.GetString("SUPABASE_URL") }
func SupabaseAnonKey() string { return viper.GetString("SUPABASE_ANON_KEY") }

func OWMAPIKey() string { return viper.GetString("OWM_API_KEY") }
func OWMLat() float64   { return viper.GetFloat64("OWM_LAT") }
func OWMLon() float64   { return viper.GetFloat64("OWM_LON") }

func MQTTHost() string     { return viper.GetString("MQTT_HOST") }
func MQTTPort() int        { return viper.GetInt("MQTT_PORT") }
func MQTTUser() string     { return viper.GetString("MQTT_USER") }
func MQTTPassword() string { return viper.GetString("MQTT_PASSWORD") }

func StateBackend() string { return viper.GetString("STATE_BACKEND") }
func RedisAddr() string    { return viper.GetString("REDIS_ADDR") }

func MonitorUserID() string   { return viper.GetString("MONITOR_USER_ID") }
func MonitorDeviceID() string { return viper.GetString("MONITOR_DEVICE_ID") }
func TierTableName() string   { return viper.GetString("MONITOR_TIER_TABLE") }

func SensorPollInterval() time.Duration   { return viper.GetDuration("SENSOR_POLL_INTERVAL") }
func StatusPollInterval() time.Duration   { return viper.GetDuration("STATUS_POLL_INTERVAL") }
func ForecastPollInterval() time.Duration { return viper.GetDuration("FORECAST_POLL_INTERVAL") }
func RainRecheckDelay() time.Duration     { return viper.GetDuration("RAIN_RECHECK_DELAY") }
func DeviceStaleAfter() time.Duration     { return viper.GetDuration("DEVICE_STALE_AFTER") }
func TankHistoryWindow() int              { return viper.GetInt("TANK_HISTORY_WINDOW") }

func ESP32BaseURL() string { return viper.GetString("ESP32_BASE_URL") }

func InfluxURL() string    { return viper.GetString("INFLUX_URL") }
func InfluxToken() string  { return viper.GetString("INFLUX_TOKEN") }
func InfluxOrg() string    { return viper.GetString("INFLUX_ORG") }
func InfluxBucket() string { return viper.GetString("INFLUX_BUCKET") }

func MonitorHTTPAddr() string { return viper.GetString("MONITOR_HTTP_ADDR") }
func EventHTTPAddr() string   { return viper.GetString("EVENT_HTTP_ADDR") }
