package jobs

// Phase identifies which stage of a job a phase-local fraction belongs to.
type Phase int

const (
	PhaseAcquire Phase = iota
	PhaseConvert
)

// acquireShare is the slice of the progress bar reserved for acquisition.
// UI progress bars depend on the two phases composing into one monotonic
// 0-100 sequence, so the split is a fixed contract.
const acquireShare = 60

// PhaseProgress maps a phase-local fraction in [0,1] onto the overall
// percentage: acquisition covers 0-60, conversion 60-100.
func PhaseProgress(phase Phase, frac float64) int {
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	switch phase {
	case PhaseAcquire:
		return int(frac * acquireShare)
	default:
		return acquireShare + int(frac*(100-acquireShare))
	}
}
