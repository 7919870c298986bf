package config

import (
	"errors"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/util"
	"gopkg.in/yaml.v3"
)

const EnvironmentPrefix = "TRACKER_"

// Load builds the configuration from defaults, an optional YAML file and TRACKER_*
// environment overrides, then validates it. An empty path falls back to TRACKER_CONFIG.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to read .env file")
	}

	config := Default()

	if path == "" {
		path = os.Getenv(EnvironmentPrefix + "CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &Error{Field: "file", Cause: err}
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, &Error{Field: "file", Cause: err}
		}

		log.Info().Str("path", path).Msg("Loaded config file")
	}

	if err := config.applyEnvironment(util.GetPrefixedEnvironmentVariables(EnvironmentPrefix)); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks struct tags and resolves the agency time zone
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fieldError := validationErrors[0]
			field := strings.TrimPrefix(fieldError.Namespace(), "Config.")

			if fieldError.Tag() == "required" || fieldError.Tag() == "required_if" {
				return &Error{Field: field, Cause: ErrMissing}
			}
			return &Error{Field: field, Cause: err}
		}

		return &Error{Field: "config", Cause: err}
	}

	location, err := time.LoadLocation(c.Agency.Timezone)
	if err != nil {
		return &Error{Field: "agency.timezone", Cause: err}
	}
	c.Agency.Location = location

	return nil
}

// RequireFeed checks the properties only the ingest process needs
func (c *Config) RequireFeed() error {
	if c.Feed.BaseURL == "" {
		return &Error{Field: "feed.base_url", Cause: ErrMissing}
	}
	if c.Feed.PositionsPath == "" {
		return &Error{Field: "feed.positions_path", Cause: ErrMissing}
	}

	return nil
}

type override struct {
	field string
	apply func(value string) error
}

func (c *Config) overrides() map[string]override {
	return map[string]override{
		"FEED_BASE_URL":           {"feed.base_url", setString(&c.Feed.BaseURL)},
		"FEED_POSITIONS_PATH":     {"feed.positions_path", setString(&c.Feed.PositionsPath)},
		"FEED_API_KEY":            {"feed.api_key", setString(&c.Feed.APIKey)},
		"FEED_TIMEOUT_SECONDS":    {"feed.timeout_seconds", setInt(&c.Feed.TimeoutSeconds)},
		"FEED_MAX_BODY_BYTES":     {"feed.max_body_bytes", setInt64(&c.Feed.MaxBodyBytes)},
		"FEED_RETRY_ATTEMPTS":     {"feed.retry_attempts", setInt(&c.Feed.RetryAttempts)},
		"FEED_RETRY_BASE_SECONDS": {"feed.retry_base_seconds", setInt(&c.Feed.RetryBaseSeconds)},

		"POLLING_INTERVAL_SECONDS":      {"polling.interval_seconds", setInt(&c.Polling.IntervalSeconds)},
		"POLLING_INITIAL_DELAY_SECONDS": {"polling.initial_delay_seconds", setInt(&c.Polling.InitialDelaySeconds)},
		"POLLING_ENABLED":               {"polling.enabled", setBool(&c.Polling.Enabled)},

		"BUS_DRIVER":            {"bus.driver", setString(&c.Bus.Driver)},
		"BUS_BOOTSTRAP_SERVERS": {"bus.bootstrap_servers", setString(&c.Bus.BootstrapServers)},
		"BUS_SECURITY_PROTOCOL": {"bus.security_protocol", setString(&c.Bus.SecurityProtocol)},
		"BUS_SASL_MECHANISM":    {"bus.sasl_mechanism", setString(&c.Bus.SASLMechanism)},
		"BUS_SASL_JAAS_CONFIG":  {"bus.sasl_jaas_config", setString(&c.Bus.SASLJAASConfig)},
		"BUS_CONSUMER_GROUP":    {"bus.consumer_group", setString(&c.Bus.ConsumerGroup)},
		"BUS_CONSUMERS":         {"bus.consumers", setInt(&c.Bus.Consumers)},
		"BUS_BATCH_SIZE":        {"bus.batch_size", setInt(&c.Bus.BatchSize)},

		"REDIS_ADDRESS":  {"redis.address", setString(&c.Redis.Address)},
		"REDIS_PASSWORD": {"redis.password", setString(&c.Redis.Password)},
		"REDIS_DATABASE": {"redis.database", setInt(&c.Redis.Database)},

		"NATS_URL": {"nats.url", setString(&c.NATS.URL)},

		"TOPICS_VEHICLE_POSITIONS": {"topics.vehicle_positions", setString(&c.Topics.VehiclePositions)},

		"GTFS_ZIP_PATH": {"gtfs.zip_path", setString(&c.GTFS.ZipPath)},

		"AGENCY_TIMEZONE":       {"agency.timezone", setString(&c.Agency.Timezone)},
		"AGENCY_BOUNDS_MIN_LAT": {"agency.bounds.min_lat", setFloat(&c.Agency.Bounds.MinLatitude)},
		"AGENCY_BOUNDS_MAX_LAT": {"agency.bounds.max_lat", setFloat(&c.Agency.Bounds.MaxLatitude)},
		"AGENCY_BOUNDS_MIN_LON": {"agency.bounds.min_lon", setFloat(&c.Agency.Bounds.MinLongitude)},
		"AGENCY_BOUNDS_MAX_LON": {"agency.bounds.max_lon", setFloat(&c.Agency.Bounds.MaxLongitude)},

		"ETA_AVERAGE_SPEED_KMH":   {"eta.average_speed_kmh", setFloat(&c.ETA.AverageSpeedKmh)},
		"ETA_BUFFER":              {"eta.buffer", setFloat(&c.ETA.Buffer)},
		"ETA_MIN_ETA_SECONDS":     {"eta.min_eta_seconds", setInt(&c.ETA.MinETASeconds)},
		"ETA_MAX_DISTANCE_METERS": {"eta.max_distance_meters", setFloat(&c.ETA.MaxDistanceMeters)},
		"ETA_OFF_ROUTE_METERS":    {"eta.off_route_meters", setFloat(&c.ETA.OffRouteMeters)},
		"ETA_FRESHNESS_SECONDS":   {"eta.freshness_seconds", setInt(&c.ETA.FreshnessSeconds)},

		"VEHICLES_RETENTION_HOURS": {"vehicles.retention_hours", setInt(&c.Vehicles.RetentionHours)},

		"INGEST_CHANGE_DETECTION_ENABLED":                            {"ingest.change_detection.enabled", setBool(&c.Ingest.ChangeDetection.Enabled)},
		"INGEST_CHANGE_DETECTION_MIN_LOCATION_CHANGE_METERS":         {"ingest.change_detection.min_location_change_meters", setFloat(&c.Ingest.ChangeDetection.MinLocationChangeMeters)},
		"INGEST_CHANGE_DETECTION_MAX_TIME_BETWEEN_PUBLISHES_SECONDS": {"ingest.change_detection.max_time_between_publishes_seconds", setInt(&c.Ingest.ChangeDetection.MaxTimeBetweenPublishesSeconds)},

		"SERVER_LISTEN":       {"server.listen", setString(&c.Server.Listen)},
		"SERVER_SERVICE_NAME": {"server.service_name", setString(&c.Server.ServiceName)},
	}
}

func (c *Config) applyEnvironment(environment map[string]string) error {
	overrides := c.overrides()

	for key, value := range environment {
		override, exists := overrides[strings.TrimPrefix(key, EnvironmentPrefix)]
		if !exists {
			continue
		}

		if err := override.apply(value); err != nil {
			return &Error{Field: override.field, Cause: err}
		}
	}

	return nil
}

func setString(target *string) func(string) error {
	return func(value string) error {
		*target = value
		return nil
	}
}

func setInt(target *int) func(string) error {
	return func(value string) error {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		*target = parsed
		return nil
	}
}

func setInt64(target *int64) func(string) error {
	return func(value string) error {
		parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return err
		}
		*target = parsed
		return nil
	}
}

func setFloat(target *float64) func(string) error {
	return func(value string) error {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return err
		}
		*target = parsed
		return nil
	}
}

func setBool(target *bool) func(string) error {
	return func(value string) error {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			parsed = util.IsEnabled(value)
		}
		*target = parsed
		return nil
	}
}
