package perf

import (
	"time"

	"github.com/rs/zerolog"
)

// RunPerf records how long the phases of one conversion run took.
type RunPerf struct {
	Name   string
	Start  time.Time
	End    time.Time
	Blocks []PerfBlock

	now func() time.Time
}

func MakeNewRunPerf(name string) *RunPerf {
	return makeRunPerf(name, time.Now)
}

func makeRunPerf(name string, now func() time.Time) *RunPerf {
	return &RunPerf{
		Name:  name,
		Start: now(),
		now:   now,
	}
}

func (rp *RunPerf) EndRun() {
	for rp.EndBlock() {
	}
	rp.End = rp.now()
}

func (rp *RunPerf) Checkpoint(category, description string) {
	now := rp.now()
	checkpoint := PerfBlock{
		Start:       now,
		End:         now,
		Category:    category,
		Description: description,
	}
	rp.Blocks = append(rp.Blocks, checkpoint)
}

func (rp *RunPerf) StartBlock(category, description string) {
	checkpoint := PerfBlock{
		Start:       rp.now(),
		End:         time.Time{},
		Category:    category,
		Description: description,
	}
	rp.Blocks = append(rp.Blocks, checkpoint)
}

func (rp *RunPerf) EndBlock() bool {
	for i := len(rp.Blocks) - 1; i >= 0; i -= 1 {
		if rp.Blocks[i].End.Equal(time.Time{}) {
			rp.Blocks[i].End = rp.now()
			return true
		}
	}
	return false
}

func (rp *RunPerf) MsFromStart(block *PerfBlock) float64 {
	return float64(block.Start.Sub(rp.Start).Nanoseconds()) / 1000 / 1000
}

// Log writes one debug line per block, then the total.
func (rp *RunPerf) Log(logger *zerolog.Logger) {
	for i := range rp.Blocks {
		block := &rp.Blocks[i]
		logger.Debug().
			Str("category", block.Category).
			Float64("startMs", rp.MsFromStart(block)).
			Float64("durationMs", block.DurationMs()).
			Msg(block.Description)
	}
	logger.Debug().
		Float64("durationMs", float64(rp.End.Sub(rp.Start).Nanoseconds())/1000/1000).
		Msg(rp.Name + " finished")
}

type PerfBlock struct {
	Start       time.Time
	End         time.Time
	Category    string
	Description string
}

func (pb *PerfBlock) Duration() time.Duration {
	return pb.End.Sub(pb.Start)
}

func (pb *PerfBlock) DurationMs() float64 {
	return float64(pb.Duration().Nanoseconds()) / 1000 / 1000
}
