package main

import (
	"fmt"
	"io"
	"os"

	digitizer "github.com/jmbenlloch/digitizer_go/pkg"
)

type FileReader struct {
	File     io.Reader
	EvtCount int
}

func NewFileReader(file io.Reader) *FileReader {
	return &FileReader{File: file, EvtCount: -1}
}

// getNextEvent applies the skip and max_events settings.
func (f *FileReader) getNextEvent() (digitizer.EventHeader, []byte, error) {
	for {
		header, eventData, err := digitizer.ReadEventFromFile(f.File)
		if err != nil {
			return header, nil, err
		}
		f.EvtCount++
		if f.EvtCount >= configuration.Skip+configuration.MaxEvents {
			if VerbosityLevel > 0 {
				logger.Info("Max events reached", "fileReader")
			}
			return header, nil, io.EOF
		}
		if f.EvtCount < configuration.Skip {
			if VerbosityLevel > 1 {
				message := fmt.Sprintf("Skipping event %d with ID %d", f.EvtCount, header.EventID)
				logger.Info(message, "fileReader")
			}
			continue
		}
		if VerbosityLevel > 1 {
			message := fmt.Sprintf("Reading event %d with ID %d", f.EvtCount, header.EventID)
			logger.Info(message, "fileReader")
		}
		return header, eventData, nil
	}
}

// countEvents walks the file headers and rewinds it.
func countEvents(file *os.File) (int, error) {
	evtCount := 0
	for {
		header, _, err := digitizer.ReadEventFromFile(file)
		if err == io.EOF {
			break
		}
		if err != nil {
			return evtCount, fmt.Errorf("error reading header counting events: %w", err)
		}
		if VerbosityLevel > 2 {
			message := fmt.Sprintf("Evt id: %d. Deposits %d", header.EventID, header.NDeposits)
			logger.Info(message, "evtCounter")
		}
		evtCount++
	}
	// Go back to the beginning of the file
	_, err := file.Seek(0, io.SeekStart)
	return evtCount, err
}

func numberOfEventsToProcess(fileEvtCount int, skipEvts int, maxEvtCount int) int {
	evtsToRead := fileEvtCount - skipEvts
	if evtsToRead > maxEvtCount {
		evtsToRead = maxEvtCount
	}
	if evtsToRead < 0 {
		evtsToRead = 0
	}
	return evtsToRead
}
