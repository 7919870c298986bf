package config

import (
	"os"
	"path/filepath"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TRACKER_AGENCY_TIMEZONE", "America/Vancouver")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 30, config.Polling.IntervalSeconds)
	assert.Equal(t, 3, config.Feed.RetryAttempts)
	assert.Equal(t, int64(10*1024*1024), config.Feed.MaxBodyBytes)
	assert.Equal(t, DriverRedis, config.Bus.Driver)
	assert.Equal(t, "vehicle-positions", config.Topics.VehiclePositions)
	assert.Equal(t, "google_transit.zip", config.GTFS.ZipPath)
	assert.Equal(t, 35.0, config.ETA.AverageSpeedKmh)
	assert.True(t, config.Agency.Bounds.IsZero())
	require.NotNil(t, config.Agency.Location)
	assert.Equal(t, "America/Vancouver", config.Agency.Location.String())
}

func TestLoadMissingTimezone(t *testing.T) {
	t.Setenv("TRACKER_AGENCY_TIMEZONE", "")

	_, err := Load("")

	var configError *Error
	require.ErrorAs(t, err, &configError)
	assert.Equal(t, "agency.timezone", configError.Field)
	assert.ErrorIs(t, err, ErrMissing)
}

func TestLoadInvalidTimezone(t *testing.T) {
	t.Setenv("TRACKER_AGENCY_TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load("")

	var configError *Error
	require.ErrorAs(t, err, &configError)
	assert.Equal(t, "agency.timezone", configError.Field)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := writeFile(t, `
feed:
  base_url: https://gtfs.example.com
  positions_path: /v3/gtfsposition
  api_key: from-file
polling:
  interval_seconds: 15
agency:
  timezone: Europe/London
  bounds:
    min_lat: 49.0
    max_lat: 49.5
    min_lon: -123.5
    max_lon: -122.5
eta:
  average_speed_kmh: 25
`)
	t.Setenv("TRACKER_FEED_API_KEY", "from-env")
	t.Setenv("TRACKER_POLLING_ENABLED", "false")

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://gtfs.example.com/v3/gtfsposition", config.Feed.URL())
	assert.Equal(t, "from-env", config.Feed.APIKey)
	assert.Equal(t, 15, config.Polling.IntervalSeconds)
	assert.False(t, config.Polling.Enabled)
	assert.Equal(t, 25.0, config.ETA.AverageSpeedKmh)
	assert.Equal(t, 49.5, config.Agency.Bounds.MaxLatitude)
	assert.Equal(t, "Europe/London", config.Agency.Location.String())
	assert.NoError(t, config.RequireFeed())
}

func TestLoadConfigFromEnvironmentPath(t *testing.T) {
	path := writeFile(t, "agency:\n  timezone: Asia/Tokyo\n")
	t.Setenv("TRACKER_CONFIG", path)

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Asia/Tokyo", config.Agency.Timezone)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))

	var configError *Error
	require.ErrorAs(t, err, &configError)
	assert.Equal(t, "file", configError.Field)
}

func TestLoadBadEnvironmentValue(t *testing.T) {
	t.Setenv("TRACKER_AGENCY_TIMEZONE", "America/Vancouver")
	t.Setenv("TRACKER_POLLING_INTERVAL_SECONDS", "soon")

	_, err := Load("")

	var configError *Error
	require.ErrorAs(t, err, &configError)
	assert.Equal(t, "polling.interval_seconds", configError.Field)
}

func TestLoadInvalidDriver(t *testing.T) {
	t.Setenv("TRACKER_AGENCY_TIMEZONE", "America/Vancouver")
	t.Setenv("TRACKER_BUS_DRIVER", "carrier-pigeon")

	_, err := Load("")

	var configError *Error
	require.ErrorAs(t, err, &configError)
	assert.Equal(t, "bus.driver", configError.Field)
}

func TestLoadKafkaNeedsBootstrapServers(t *testing.T) {
	t.Setenv("TRACKER_AGENCY_TIMEZONE", "America/Vancouver")
	t.Setenv("TRACKER_BUS_DRIVER", "kafka")

	_, err := Load("")

	var configError *Error
	require.ErrorAs(t, err, &configError)
	assert.Equal(t, "bus.bootstrap_servers", configError.Field)
	assert.ErrorIs(t, err, ErrMissing)
}

func TestRequireFeed(t *testing.T) {
	config := Default()

	var configError *Error
	require.ErrorAs(t, config.RequireFeed(), &configError)
	assert.Equal(t, "feed.base_url", configError.Field)
}
