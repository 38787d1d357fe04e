// gendeposits writes a synthetic deposit file for the digitizer: pions
// shot from the origin in random directions, propagated along straight
// lines through the tracker elements.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	digitizer "github.com/jmbenlloch/digitizer_go/pkg"
)

var (
	fname     = flag.String("o", "deposits.bin", "output data file")
	nevts     = flag.Int("n", 1000, "number of events to generate")
	seed      = flag.Int64("seed", 1234, "initial seed")
	nparts    = flag.Int("particles", 1, "primary pions per event")
	energy    = flag.Float64("energy", 3.0, "pion kinetic energy in GeV")
	geomFile  = flag.String("geometry", "", "gcfg geometry file (default: built-in SVT layout)")
	deltaProb = flag.Float64("delta-prob", 0.1, "probability of a soft delta-ray deposit per crossing")
)

func main() {
	flag.Parse()

	geometry := digitizer.DefaultGeometry()
	if *geomFile != "" {
		var err error
		geometry, err = digitizer.LoadGeometryFile(*geomFile)
		if err != nil {
			log.Fatalf("error loading geometry [%s]: %v\n", *geomFile, err)
		}
	}

	f, err := os.Create(*fname)
	if err != nil {
		log.Fatalf("error creating output file [%s]: %v\n", *fname, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	gun := ParticleGun{
		PDG:           211,
		Charge:        1,
		Mass:          PionMass,
		KineticEnergy: *energy * digitizer.GeV,
		DeltaProb:     *deltaProb,
	}
	ndeps := 0
	for i := 0; i < *nevts; i++ {
		rng := rand.New(rand.NewSource(*seed + int64(i)))
		event := gun.Generate(rng, uint32(i), *nparts, geometry)
		ndeps += len(event.Deposits)
		if err := digitizer.WriteEventToFile(w, event); err != nil {
			log.Fatalf("error writing event %d: %v\n", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("error flushing output file [%s]: %v\n", *fname, err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("error closing output file [%s]: %v\n", *fname, err)
	}
	fmt.Printf("Wrote %d events with %d deposits to %s\n", *nevts, ndeps, *fname)
}
