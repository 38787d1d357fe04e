package digitizer

import "math/rand"

// RandomSource is the part of *rand.Rand used by the response model.
type RandomSource interface {
	Float64() float64
	NormFloat64() float64
}

// EventRand returns the random stream of one event. The stream depends only
// on the run seed and the event id, never on which worker runs the event.
func EventRand(seed int64, eventID uint32) *rand.Rand {
	return rand.New(rand.NewSource(eventSeed(seed, eventID)))
}

// splitmix64 finalizer, so neighbouring event ids get unrelated streams.
func eventSeed(seed int64, eventID uint32) int64 {
	z := uint64(seed) + (uint64(eventID)+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}
