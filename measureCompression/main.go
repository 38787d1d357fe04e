// measureCompression digitizes an input file once and writes the result
// at every deflate level, printing write time and file size for each.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	digitizer "github.com/jmbenlloch/digitizer_go/pkg"
	"github.com/jmbenlloch/digitizer_go/pkg/output"
)

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	repeat := flag.Int("repeat", 3, "Writes per compression level")
	flag.Parse()

	config, err := loadConfiguration(*configFilename)
	if err != nil {
		fmt.Println("Error reading configuration file:", err)
		os.Exit(1)
	}
	digitizer.SetConfiguration(config)

	geometry := digitizer.DefaultGeometry()
	if config.GeometryFile != "" {
		geometry, err = digitizer.LoadGeometryFile(config.GeometryFile)
		if err != nil {
			fmt.Println("Error loading geometry:", err)
			os.Exit(1)
		}
	}

	start := time.Now()
	records, err := digitizeFile(config, geometry)
	if err != nil {
		fmt.Println("Error digitizing:", err)
		os.Exit(1)
	}
	fmt.Printf("Digitized %d events in %d ms\n", len(records), time.Since(start).Milliseconds())

	for compressionLevel := 0; compressionLevel < 10; compressionLevel++ {
		config.CompressionLevel = compressionLevel
		for i := 0; i < *repeat; i++ {
			duration, size, err := writeRecords(config, geometry, records)
			if err != nil {
				fmt.Printf("(deflate %d) error: %v\n", compressionLevel, err)
				continue
			}
			fmt.Printf("(deflate %d) Time: %d ms, size %d bytes\n", compressionLevel, duration.Milliseconds(), size)
		}
	}
	fmt.Printf("Total time: %d ms\n", time.Since(start).Milliseconds())
}

func loadConfiguration(filename string) (digitizer.Configuration, error) {
	config := digitizer.DefaultConfiguration()
	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return config, err
	}
	return config, config.Validate()
}

// digitizeFile keeps every digitized event in memory so that only the
// writing is timed afterwards.
func digitizeFile(config digitizer.Configuration, geometry *digitizer.Geometry) ([]digitizer.EventRecord, error) {
	filter, err := digitizer.NewDepositFilter(config.Efficiency, config.Threshold())
	if err != nil {
		return nil, err
	}
	smearer, err := digitizer.NewSmearer(config.Resolution())
	if err != nil {
		return nil, err
	}
	buffer := &digitizer.HitBuffer{}
	digi, err := digitizer.NewDigitizer(geometry, filter, smearer, buffer, config.Seed)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(config.FileIn)
	if err != nil {
		return nil, &digitizer.ErrOpenFile{Filename: config.FileIn, Err: err}
	}
	defer file.Close()
	reader := bufio.NewReader(file)

	records := make([]digitizer.EventRecord, 0)
	for len(records) < config.MaxEvents {
		header, data, err := digitizer.ReadEventFromFile(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			return records, err
		}
		event, err := digitizer.DecodeEvent(header, data)
		if err != nil {
			return records, err
		}
		if err := digitizer.DigitizeEvent(context.Background(), digi, event); err != nil {
			fmt.Println("Discarding event:", err)
			buffer.Take()
			continue
		}
		records = append(records, digitizer.EventRecord{
			EventID:   event.EventID,
			Primaries: event.Primaries,
			Hits:      buffer.Take(),
			Stats:     digi.Stats(),
		})
	}
	return records, nil
}

func writeRecords(config digitizer.Configuration, geometry *digitizer.Geometry,
	records []digitizer.EventRecord) (time.Duration, int64, error) {
	start := time.Now()
	writer, err := output.NewWriter(config.FileOut, geometry, config)
	if err != nil {
		return 0, 0, err
	}
	for i := range records {
		if err := writer.WriteEvent(&records[i]); err != nil {
			writer.Close()
			return 0, 0, err
		}
	}
	if err := writer.Close(); err != nil {
		return 0, 0, err
	}
	duration := time.Since(start)

	fileInfo, err := os.Stat(config.FileOut)
	if err != nil {
		return duration, 0, err
	}
	return duration, fileInfo.Size(), nil
}
