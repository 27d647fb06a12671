package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	DBUrl    string `mapstructure:"DB_URL"`
	RedisUrl string `mapstructure:"REDIS_URL"`

	// Dataset file paths used by the importer and by file-based startup.
	BoundaryFile    string `mapstructure:"BOUNDARY_FILE"`
	DemandIndexFile string `mapstructure:"DEMAND_INDEX_FILE"`
	RichFile        string `mapstructure:"RICH_FACILITY_FILE"`
	ScoredFile      string `mapstructure:"SCORED_FACILITY_FILE"`

	// Siting parameters.
	SimilarityThreshold float64 `mapstructure:"SIMILARITY_THRESHOLD"`
	ExpectedRegionCount int     `mapstructure:"EXPECTED_REGION_COUNT"`
	DefaultK            int     `mapstructure:"DEFAULT_K"`
	RegionSuffix        string  `mapstructure:"REGION_SUFFIX"`

	// Sanity bounding box for facility coordinates, in degrees. Facilities
	// outside this box are rejected before any containment test.
	MinLat float64 `mapstructure:"MIN_LAT"`
	MaxLat float64 `mapstructure:"MAX_LAT"`
	MinLng float64 `mapstructure:"MIN_LNG"`
	MaxLng float64 `mapstructure:"MAX_LNG"`
}

func LoadConfig() (c Config, err error) {
	// Get environment type from ENV variable or use development as default
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Set default values
	viper.SetDefault("PORT", ":8080")
	viper.SetDefault("SIMILARITY_THRESHOLD", 0.5)
	viper.SetDefault("EXPECTED_REGION_COUNT", 25)
	viper.SetDefault("DEFAULT_K", 3)
	viper.SetDefault("REGION_SUFFIX", "District")
	viper.SetDefault("MIN_LAT", -90.0)
	viper.SetDefault("MAX_LAT", 90.0)
	viper.SetDefault("MIN_LNG", -180.0)
	viper.SetDefault("MAX_LNG", 180.0)

	// Load environment file
	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")
	viper.AddConfigPath(".") // Look in the project root directory

	// Environment variables take precedence over config file
	viper.AutomaticEnv()

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		// Continue even if file is not found
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	// Map the values to the Config struct
	err = viper.Unmarshal(&c)
	return
}
