package digitizer

import (
	"fmt"
	"math"
)

const (
	DefaultEfficiency = 0.99
	DefaultThreshold  = 1 * KeV
)

type Decision int

const (
	Accepted Decision = iota
	RejectedEfficiency
	RejectedThreshold
)

func (d Decision) String() string {
	switch d {
	case Accepted:
		return "accepted"
	case RejectedEfficiency:
		return "rejected (efficiency)"
	case RejectedThreshold:
		return "rejected (threshold)"
	default:
		return "Unknown"
	}
}

// DepositFilter decides whether a deposit is recorded by the readout.
type DepositFilter struct {
	Efficiency float64
	Threshold  float64
}

func NewDepositFilter(efficiency float64, threshold float64) (DepositFilter, error) {
	if efficiency < 0 || efficiency > 1 {
		return DepositFilter{}, fmt.Errorf("efficiency must be in [0, 1], got %g", efficiency)
	}
	if threshold < 0 {
		return DepositFilter{}, fmt.Errorf("threshold must be non-negative, got %g", threshold)
	}
	return DepositFilter{Efficiency: efficiency, Threshold: threshold}, nil
}

// Decide draws exactly one uniform number per call, whatever the outcome.
func (f DepositFilter) Decide(rng RandomSource, deposit RawDeposit) Decision {
	u := rng.Float64()
	if u > f.Efficiency {
		return RejectedEfficiency
	}
	// Written so that a NaN energy is rejected too.
	if !(deposit.Edep >= f.Threshold) || !(deposit.Edep > 0) || math.IsInf(deposit.Edep, 1) {
		return RejectedThreshold
	}
	return Accepted
}

func (f DepositFilter) Accept(rng RandomSource, deposit RawDeposit) bool {
	return f.Decide(rng, deposit) == Accepted
}
