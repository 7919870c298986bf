package config

import (
	"time"

	"github.com/travigo/transittracker/pkg/geo"
)

// Config is the full process configuration. YAML keys mirror the property names,
// e.g. feed.base_url.
type Config struct {
	Feed     Feed     `yaml:"feed"`
	Polling  Polling  `yaml:"polling"`
	Bus      Bus      `yaml:"bus"`
	Redis    Redis    `yaml:"redis"`
	NATS     NATS     `yaml:"nats"`
	Topics   Topics   `yaml:"topics"`
	GTFS     GTFS     `yaml:"gtfs"`
	Agency   Agency   `yaml:"agency"`
	ETA      ETA      `yaml:"eta"`
	Vehicles Vehicles `yaml:"vehicles"`
	Ingest   Ingest   `yaml:"ingest"`
	Server   Server   `yaml:"server"`
}

type Feed struct {
	BaseURL          string `yaml:"base_url" validate:"omitempty,url"`
	PositionsPath    string `yaml:"positions_path"`
	APIKey           string `yaml:"api_key"`
	TimeoutSeconds   int    `yaml:"timeout_seconds" validate:"gt=0"`
	MaxBodyBytes     int64  `yaml:"max_body_bytes" validate:"gt=0"`
	RetryAttempts    int    `yaml:"retry_attempts" validate:"gte=1"`
	RetryBaseSeconds int    `yaml:"retry_base_seconds" validate:"gte=0"`
}

func (f Feed) URL() string {
	return f.BaseURL + f.PositionsPath
}

func (f Feed) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

func (f Feed) RetryBase() time.Duration {
	return time.Duration(f.RetryBaseSeconds) * time.Second
}

type Polling struct {
	IntervalSeconds     int  `yaml:"interval_seconds" validate:"gt=0"`
	InitialDelaySeconds int  `yaml:"initial_delay_seconds" validate:"gte=0"`
	Enabled             bool `yaml:"enabled"`
}

func (p Polling) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}

func (p Polling) InitialDelay() time.Duration {
	return time.Duration(p.InitialDelaySeconds) * time.Second
}

const (
	DriverRedis  = "redis"
	DriverKafka  = "kafka"
	DriverNATS   = "nats"
	DriverMemory = "memory"
)

type Bus struct {
	Driver           string `yaml:"driver" validate:"oneof=redis kafka nats memory"`
	BootstrapServers string `yaml:"bootstrap_servers" validate:"required_if=Driver kafka"`
	SecurityProtocol string `yaml:"security_protocol"`
	SASLMechanism    string `yaml:"sasl_mechanism"`
	SASLJAASConfig   string `yaml:"sasl_jaas_config"`
	ConsumerGroup    string `yaml:"consumer_group"`
	Consumers        int    `yaml:"consumers" validate:"gt=0"`
	BatchSize        int    `yaml:"batch_size" validate:"gt=0"`
}

type Redis struct {
	Address  string `yaml:"address" validate:"required"`
	Password string `yaml:"password"`
	Database int    `yaml:"database" validate:"gte=0"`
}

type NATS struct {
	URL string `yaml:"url"`
}

type Topics struct {
	VehiclePositions string `yaml:"vehicle_positions" validate:"required"`
}

type GTFS struct {
	ZipPath string `yaml:"zip_path" validate:"required"`
}

type Agency struct {
	Timezone string     `yaml:"timezone" validate:"required,timezone"`
	Bounds   geo.Bounds `yaml:"bounds"`

	Location *time.Location `yaml:"-"`
}

type ETA struct {
	AverageSpeedKmh   float64 `yaml:"average_speed_kmh" validate:"gt=0"`
	Buffer            float64 `yaml:"buffer" validate:"gt=0"`
	MinETASeconds     int     `yaml:"min_eta_seconds" validate:"gte=0"`
	MaxDistanceMeters float64 `yaml:"max_distance_meters" validate:"gt=0"`
	OffRouteMeters    float64 `yaml:"off_route_meters" validate:"gt=0"`
	FreshnessSeconds  int     `yaml:"freshness_seconds" validate:"gt=0"`
}

func (e ETA) Freshness() time.Duration {
	return time.Duration(e.FreshnessSeconds) * time.Second
}

type Vehicles struct {
	RetentionHours int `yaml:"retention_hours" validate:"gte=0"`
}

func (v Vehicles) Retention() time.Duration {
	return time.Duration(v.RetentionHours) * time.Hour
}

type Ingest struct {
	ChangeDetection ChangeDetection `yaml:"change_detection"`
}

type ChangeDetection struct {
	Enabled                        bool    `yaml:"enabled"`
	MinLocationChangeMeters        float64 `yaml:"min_location_change_meters" validate:"gte=0"`
	MaxTimeBetweenPublishesSeconds int     `yaml:"max_time_between_publishes_seconds" validate:"gte=0"`
}

func (c ChangeDetection) MaxTimeBetweenPublishes() time.Duration {
	return time.Duration(c.MaxTimeBetweenPublishesSeconds) * time.Second
}

type Server struct {
	Listen      string `yaml:"listen" validate:"required"`
	ServiceName string `yaml:"service_name" validate:"required"`
}

// Default holds every documented default. agency.timezone has none.
func Default() *Config {
	return &Config{
		Feed: Feed{
			TimeoutSeconds:   10,
			MaxBodyBytes:     10 * 1024 * 1024,
			RetryAttempts:    3,
			RetryBaseSeconds: 2,
		},
		Polling: Polling{
			IntervalSeconds:     30,
			InitialDelaySeconds: 10,
			Enabled:             true,
		},
		Bus: Bus{
			Driver:        DriverRedis,
			ConsumerGroup: "transit-tracker",
			Consumers:     2,
			BatchSize:     100,
		},
		Redis: Redis{
			Address: "localhost:6379",
		},
		NATS: NATS{
			URL: "nats://127.0.0.1:4222",
		},
		Topics: Topics{
			VehiclePositions: "vehicle-positions",
		},
		GTFS: GTFS{
			ZipPath: "google_transit.zip",
		},
		ETA: ETA{
			AverageSpeedKmh:   35,
			Buffer:            1.2,
			MinETASeconds:     30,
			MaxDistanceMeters: 3000,
			OffRouteMeters:    500,
			FreshnessSeconds:  300,
		},
		Vehicles: Vehicles{
			RetentionHours: 24,
		},
		Ingest: Ingest{
			ChangeDetection: ChangeDetection{
				MinLocationChangeMeters:        25,
				MaxTimeBetweenPublishesSeconds: 120,
			},
		},
		Server: Server{
			Listen:      ":8080",
			ServiceName: "transit-tracker",
		},
	}
}
