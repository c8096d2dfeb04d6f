// Package progress drives the cosmetic 5-stage analysis pipeline display.
// The simulation is correlated to, but fully decoupled from, the real
// analysis call: neither gates, blocks, nor cancels the other unless the
// cancel-on-settle option is enabled.
package progress

import (
	"log"
	"sync"
	"time"

	"regubot-client/internal/constant"
)

// Progress values reported per stage
const (
	ProgressStarted  = 30
	ProgressComplete = 100
)

// Event is one stage transition of the simulation.
type Event struct {
	StageIndex int
	StageName  string
	// Progress is 0-100 for this stage only; stages do not affect each other.
	Progress int
	Done     bool
}

// Listener receives stage transitions. Called from timer goroutines.
type Listener func(Event)

// Scheduler runs one simulated pipeline per Start call.
type Scheduler struct {
	stages []constant.PipelineStage
	logger *log.Logger
}

func NewScheduler(stages []constant.PipelineStage, logger *log.Logger) *Scheduler {
	if len(stages) == 0 {
		stages = constant.AnalysisStages
	}
	return &Scheduler{stages: stages, logger: logger}
}

// Run is a handle on one in-flight simulation.
type Run struct {
	timers   []*time.Timer
	done     chan struct{}
	doneOnce sync.Once

	mu        sync.Mutex
	cancelled bool
	pending   int
}

// Start schedules every stage transition up front on independent timers and
// returns immediately. Each stage's start fires at 50% of the summed
// durations of the stages before it; its completion fires 70% of its own
// duration later. The run plays out to the end regardless of what the real
// analysis call does.
func (s *Scheduler) Start(listener Listener) *Run {
	run := &Run{done: make(chan struct{}), pending: 2 * len(s.stages)}

	// The first start timer is armed with delay zero and fires immediately;
	// holding the lock while arming keeps fire and Cancel off the run until
	// every timer is registered.
	run.mu.Lock()
	var cumulative time.Duration
	for i, stage := range s.stages {
		startDelay := cumulative / 2
		completeDelay := startDelay + (stage.Duration * 7 / 10)
		cumulative += stage.Duration

		index, name := i, stage.Name
		run.timers = append(run.timers,
			time.AfterFunc(startDelay, func() {
				run.fire(listener, Event{StageIndex: index, StageName: name, Progress: ProgressStarted})
			}),
			time.AfterFunc(completeDelay, func() {
				run.fire(listener, Event{StageIndex: index, StageName: name, Progress: ProgressComplete, Done: true})
			}),
		)
	}
	run.mu.Unlock()

	if s.logger != nil {
		s.logger.Printf("[PROGRESS] simulation started: %d stages", len(s.stages))
	}
	return run
}

func (r *Run) fire(listener Listener, event Event) {
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	// Deliver before decrementing so Done never closes ahead of a
	// transition that is still in flight.
	listener(event)

	r.mu.Lock()
	r.pending--
	finished := r.pending == 0
	r.mu.Unlock()

	if finished {
		r.doneOnce.Do(func() { close(r.done) })
	}
}

// Cancel stops all not-yet-fired transitions. Used only when the client is
// configured to cut the simulation short once the real call settles.
func (r *Run) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return
	}
	r.cancelled = true
	for _, timer := range r.timers {
		timer.Stop()
	}
	r.doneOnce.Do(func() { close(r.done) })
}

// Done is closed after the final stage completion has been delivered.
func (r *Run) Done() <-chan struct{} {
	return r.done
}
