package finder

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// progressInterval is the minimum spacing between two progress updates
const progressInterval = 100 * time.Millisecond

// progressReporter throttles progress updates for one finder run.
// A nil channel disables reporting.
type progressReporter struct {
	ch       chan<- ProgressData
	limiter  *rate.Limiter
	maxStage int
	stage    int
	stepName string
}

func newProgressReporter(ch chan<- ProgressData, maxStage int) *progressReporter {
	if maxStage < 1 {
		maxStage = 1
	}
	return &progressReporter{
		ch:       ch,
		limiter:  rate.NewLimiter(rate.Every(progressInterval), 1),
		maxStage: maxStage,
	}
}

// startStage switches to the next stage and reports it without throttling.
// Like every update it is dropped if the consumer has not kept up.
func (pr *progressReporter) startStage(stage int, stepName string) {
	pr.stage = stage
	pr.stepName = stepName
	pr.send(-1, true)
}

// update reports checked of toCheck entries in the current stage.
// toCheck <= 0 means the total is not known yet.
func (pr *progressReporter) update(checked, toCheck int) {
	current := -1
	if toCheck > 0 {
		current = checked * 100 / toCheck
		if current > 100 {
			current = 100
		}
	}
	pr.send(current, false)
}

func (pr *progressReporter) send(current int, force bool) {
	if pr.ch == nil {
		return
	}
	if !force && !pr.limiter.Allow() {
		return
	}

	stagePart := current
	if stagePart < 0 {
		stagePart = 0
	}
	all := (pr.stage*100 + stagePart) / pr.maxStage

	data := ProgressData{
		AllProgress:     all,
		CurrentProgress: current,
		StepName:        pr.stepName,
	}

	// Never block the scan on a slow consumer; the UI only needs the latest value.
	select {
	case pr.ch <- data:
	default:
	}
}

// isStopped reports whether the scan was cancelled
func isStopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
