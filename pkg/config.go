package digitizer

import "fmt"

type Configuration struct {
	MaxEvents        int     `json:"max_events"`
	Skip             int     `json:"skip"`
	Verbosity        int     `json:"verbosity"`
	FileIn           string  `json:"file_in"`
	FileOut          string  `json:"file_out"`
	GeometryFile     string  `json:"geometry_file"`
	NoDB             bool    `json:"no_db"`
	Host             string  `json:"host"`
	User             string  `json:"user"`
	Passwd           string  `json:"pass"`
	DBName           string  `json:"dbname"`
	RunNumber        int     `json:"run_number"`
	NumWorkers       int     `json:"num_workers"`
	Parallel         bool    `json:"parallel"`
	WriteData        bool    `json:"write_data"`
	WriteTracks      bool    `json:"write_tracks"`
	CompressionLevel int     `json:"compression_level"`
	Efficiency       float64 `json:"efficiency"`
	ThresholdKeV     float64 `json:"threshold_kev"`
	ResolutionUm     float64 `json:"resolution_um"`
	Seed             int64   `json:"seed"`
}

var configuration = DefaultConfiguration()

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}

// DefaultConfiguration holds the values used when the JSON file omits a key.
func DefaultConfiguration() Configuration {
	return Configuration{
		MaxEvents:        1000000000,
		Verbosity:        0,
		Skip:             0,
		NoDB:             true,
		Host:             "localhost",
		User:             "svtreader",
		DBName:           "SVT",
		NumWorkers:       1,
		Parallel:         false,
		WriteData:        true,
		WriteTracks:      true,
		CompressionLevel: 4,
		Efficiency:       DefaultEfficiency,
		ThresholdKeV:     DefaultThreshold / KeV,
		ResolutionUm:     DefaultResolution / Micrometer,
		Seed:             1234,
	}
}

// Threshold returns the configured energy threshold in internal units.
func (c Configuration) Threshold() float64 {
	return c.ThresholdKeV * KeV
}

// Resolution returns the configured spatial resolution in internal units.
func (c Configuration) Resolution() float64 {
	return c.ResolutionUm * Micrometer
}

// Validate checks the detector response parameters. A failure here means
// the run cannot start.
func (c Configuration) Validate() error {
	if c.Efficiency < 0 || c.Efficiency > 1 {
		return fmt.Errorf("efficiency must be in [0, 1], got %g", c.Efficiency)
	}
	if c.ThresholdKeV < 0 {
		return fmt.Errorf("threshold_kev must be non-negative, got %g", c.ThresholdKeV)
	}
	if c.ResolutionUm < 0 {
		return fmt.Errorf("resolution_um must be non-negative, got %g", c.ResolutionUm)
	}
	if c.NumWorkers < 1 {
		return fmt.Errorf("num_workers must be at least 1, got %d", c.NumWorkers)
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 9 {
		return fmt.Errorf("compression_level must be in [0, 9], got %d", c.CompressionLevel)
	}
	return nil
}
