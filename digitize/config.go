package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	digitizer "github.com/jmbenlloch/digitizer_go/pkg"
)

const dbPassEnv = "DIGITIZER_DB_PASS"

func LoadConfiguration(filename string) (digitizer.Configuration, error) {
	// Set default values
	config := digitizer.DefaultConfiguration()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}

	// Secrets may live in .env instead of the configuration file
	if err := loadDotEnv(".env"); err != nil {
		logger.Warn(fmt.Sprintf("Ignoring .env: %v", err), "config")
	}
	if pass, ok := os.LookupEnv(dbPassEnv); ok {
		config.Passwd = pass
	}
	return config, nil
}

// loadDotEnv loads filename into the environment. A missing file is not an
// error.
func loadDotEnv(filename string) error {
	err := godotenv.Load(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func printConfiguration(config digitizer.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Geometry file: %s", config.GeometryFile), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Efficiency: %g", config.Efficiency), "config")
	logger.Info(fmt.Sprintf("Threshold: %g keV", config.ThresholdKeV), "config")
	logger.Info(fmt.Sprintf("Resolution: %g um", config.ResolutionUm), "config")
	logger.Info(fmt.Sprintf("Seed: %d", config.Seed), "config")
	logger.Info(fmt.Sprintf("Write data: %t", config.WriteData), "config")
	logger.Info(fmt.Sprintf("Write tracks: %t", config.WriteTracks), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Parallel: %t", config.Parallel), "config")
}
