package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"

	digitizer "github.com/jmbenlloch/digitizer_go/pkg"
	"github.com/jmbenlloch/digitizer_go/pkg/output"
)

var configuration digitizer.Configuration

var (
	logger         Logger
	VerbosityLevel int
)

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := NewHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	if err := run(*configFilename); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(configFilename string) error {
	var err error
	configuration, err = LoadConfiguration(configFilename)
	if err != nil {
		return fmt.Errorf("Error reading configuration file: %w", err)
	}
	if err := configuration.Validate(); err != nil {
		return fmt.Errorf("Invalid configuration: %w", err)
	}
	if !configuration.Parallel {
		configuration.NumWorkers = 1
	}
	digitizer.SetConfiguration(configuration)
	digitizer.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	geometry, err := loadGeometry(configuration)
	if err != nil {
		return fmt.Errorf("Error loading geometry: %w", err)
	}
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Geometry with %d detector elements", geometry.Len())
		logger.Info(message, "main")
	}

	filter, err := digitizer.NewDepositFilter(configuration.Efficiency, configuration.Threshold())
	if err != nil {
		return err
	}
	smearer, err := digitizer.NewSmearer(configuration.Resolution())
	if err != nil {
		return err
	}

	file, err := os.Open(configuration.FileIn)
	if err != nil {
		return &digitizer.ErrOpenFile{Filename: configuration.FileIn, Err: err}
	}
	defer file.Close()

	evtCount, err := countEvents(file)
	if err != nil {
		return err
	}
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Number of events: %d, to process: %d", evtCount,
			numberOfEventsToProcess(evtCount, configuration.Skip, configuration.MaxEvents))
		logger.Info(message, "main")
	}

	var writer *output.Writer
	if configuration.WriteData {
		writer, err = output.NewWriter(configuration.FileOut, geometry, configuration)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	jobs := make(chan WorkerData, configuration.NumWorkers)
	results := make(chan WorkerResult, 100)

	var wg sync.WaitGroup
	for w := 1; w <= configuration.NumWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker(ctx, id, geometry, filter, smearer, jobs, results)
		}(w)
	}
	go sendEventsToWorkers(ctx, NewFileReader(file), jobs)
	go func() {
		wg.Wait()
		close(results)
	}()

	var eventWriter EventWriter
	if writer != nil {
		eventWriter = writer
	}
	summary, writeErr := processWorkerResults(results, eventWriter)

	var closeErr error
	if writer != nil {
		closeErr = writer.Close()
	}

	duration := time.Since(start)
	message := fmt.Sprintf("Events: %d (%d discarded), deposits: %d, hits: %d, time: %d ms",
		summary.Events, summary.Discarded, summary.Deposits, summary.Hits, duration.Milliseconds())
	logger.Info(message, "main")

	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return closeErr
	}
	return ctx.Err()
}

func loadGeometry(config digitizer.Configuration) (*digitizer.Geometry, error) {
	if !config.NoDB {
		dbConn, err := digitizer.ConnectToDatabase(config.User, config.Passwd, config.Host, config.DBName)
		if err != nil {
			return nil, fmt.Errorf("Error connection to database: %w", err)
		}
		defer dbConn.Close()
		return digitizer.LoadGeometryFromDB(dbConn, config.RunNumber)
	}
	if config.GeometryFile != "" {
		return digitizer.LoadGeometryFile(config.GeometryFile)
	}
	return digitizer.DefaultGeometry(), nil
}
