package jobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fintelis/fintelis-api/pkg/logger"
)

// Job represents a background task
type Job func(ctx context.Context) error

// Worker manages background jobs and scheduled tasks
type Worker struct {
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	queue         chan Job
	asyncSem      chan struct{}
	maxConcurrent int
	stats         WorkerStats
	runs          map[string]*RunInfo
	statsMu       sync.RWMutex
	closeOnce     sync.Once
}

// RunInfo describes the latest execution of a scheduled job
type RunInfo struct {
	Name       string        `json:"name"`
	Interval   string        `json:"interval"`
	LastStart  time.Time     `json:"last_start"`
	LastTook   time.Duration `json:"last_duration_ns"`
	LastError  string        `json:"last_error,omitempty"`
	Runs       int64         `json:"runs"`
	interval   time.Duration
	inProgress bool
}

// WorkerStats holds statistics about the worker
type WorkerStats struct {
	ActiveJobs    int       `json:"active_jobs"`
	CompletedJobs int64     `json:"completed_jobs"`
	FailedJobs    int64     `json:"failed_jobs"`
	QueueLength   int       `json:"queue_length"`
	MaxConcurrent int       `json:"max_concurrent"`
	Scheduled     []RunInfo `json:"scheduled"`
}

// NewWorker creates a worker with N concurrent processors
func NewWorker(numWorkers int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	if numWorkers < 1 {
		numWorkers = 1
	}
	// Allow 2x workers for async jobs
	asyncLimit := numWorkers * 2
	if asyncLimit < 10 {
		asyncLimit = 10
	}

	w := &Worker{
		ctx:           ctx,
		cancel:        cancel,
		queue:         make(chan Job, 100),
		asyncSem:      make(chan struct{}, asyncLimit),
		maxConcurrent: asyncLimit,
		runs:          make(map[string]*RunInfo),
	}

	// Start worker goroutines
	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}

	return w
}

// Enqueue adds a job to be processed by the worker pool
func (w *Worker) Enqueue(job Job) {
	select {
	case w.queue <- job:
	default:
		logger.Warn("[Worker] Queue full, running job synchronously")
		w.trackJobStart()
		if err := job(w.ctx); err != nil {
			logger.Error("[Worker] Job error", "error", err)
			w.trackJobFailure()
		}
		w.trackJobEnd()
	}
}

// EnqueueAsync runs a job in a new goroutine (fire-and-forget), bounded by semaphore
func (w *Worker) EnqueueAsync(job Job) {
	// Track before spawning so Shutdown waits for it
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		// Acquire semaphore to limit concurrency
		w.asyncSem <- struct{}{}
		defer func() { <-w.asyncSem }()

		w.trackJobStart()
		defer w.trackJobEnd()

		// Recover from panics
		defer func() {
			if r := recover(); r != nil {
				logger.Error("[Worker] Async job panic", "panic", r)
				w.trackJobFailure()
			}
		}()

		if err := job(w.ctx); err != nil {
			logger.Error("[Worker] Async job error", "error", err)
			w.trackJobFailure()
		}
	}()
}

// process handles jobs from the queue
func (w *Worker) process(workerID int) {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case job, ok := <-w.queue:
			if !ok {
				return
			}
			w.trackJobStart()
			start := time.Now()
			if err := job(w.ctx); err != nil {
				logger.Error("[Worker] Job error", "worker", workerID, "error", err)
				w.trackJobFailure()
			} else {
				logger.Debug("[Worker] Job completed", "worker", workerID, "took", time.Since(start))
			}
			w.trackJobEnd()
		}
	}
}

// ScheduleEvery runs a named job at fixed intervals. The first run happens after the interval (not at startup).
func (w *Worker) ScheduleEvery(name string, interval time.Duration, job Job) {
	w.schedule(name, interval, false, job)
}

// ScheduleEveryImmediate runs a named job once at startup, then at fixed intervals. Use this when the
// process may restart often so jobs run soon after start instead of waiting for the first interval.
func (w *Worker) ScheduleEveryImmediate(name string, interval time.Duration, job Job) {
	w.schedule(name, interval, true, job)
}

func (w *Worker) schedule(name string, interval time.Duration, immediate bool, job Job) {
	w.statsMu.Lock()
	w.runs[name] = &RunInfo{Name: name, Interval: interval.String(), interval: interval}
	w.statsMu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if immediate {
			w.RunScheduled(name, job)
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.RunScheduled(name, job)
			}
		}
	}()
}

// RunScheduled executes a scheduled job now, recording its outcome under
// name. A run that starts while the previous one is still going is skipped
// with ErrRunInProgress.
func (w *Worker) RunScheduled(name string, job Job) (err error) {
	if !w.beginRun(name) {
		logger.Warn("[Scheduler] Previous run still in progress, skipping", "job", name)
		return ErrRunInProgress
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[Scheduler] Job panic", "job", name, "panic", r)
			w.trackJobFailure()
			w.endRun(name, start, errPanic)
			w.trackJobEnd()
			err = errPanic
		}
	}()

	w.trackJobStart()
	err = job(w.ctx)
	if err != nil {
		logger.Error("[Scheduler] Job error", "job", name, "error", err)
		w.trackJobFailure()
	} else {
		logger.Info("[Scheduler] Job completed", "job", name, "took", time.Since(start))
	}
	w.endRun(name, start, err)
	w.trackJobEnd()
	return err
}

// Shutdown gracefully stops all workers
func (w *Worker) Shutdown() {
	w.closeOnce.Do(func() {
		w.cancel()
		close(w.queue)
		w.wg.Wait()
	})
}

// Context returns the worker's context for checking cancellation
func (w *Worker) Context() context.Context {
	return w.ctx
}

// GetStats returns the current worker statistics
func (w *Worker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	stats := w.stats
	stats.QueueLength = len(w.queue)
	stats.MaxConcurrent = w.maxConcurrent
	stats.Scheduled = make([]RunInfo, 0, len(w.runs))
	for _, run := range w.runs {
		stats.Scheduled = append(stats.Scheduled, *run)
	}
	sort.Slice(stats.Scheduled, func(i, j int) bool { return stats.Scheduled[i].Name < stats.Scheduled[j].Name })
	return stats
}

func (w *Worker) beginRun(name string) bool {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	run, ok := w.runs[name]
	if !ok {
		run = &RunInfo{Name: name}
		w.runs[name] = run
	}
	if run.inProgress {
		return false
	}
	run.inProgress = true
	return true
}

func (w *Worker) endRun(name string, start time.Time, err error) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	run := w.runs[name]
	run.inProgress = false
	run.Runs++
	run.LastStart = start
	run.LastTook = time.Since(start)
	run.LastError = ""
	if err != nil {
		run.LastError = err.Error()
	}
}

func (w *Worker) trackJobStart() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs++
}

// trackJobEnd counts every finished job; failures are counted again in FailedJobs
func (w *Worker) trackJobEnd() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs--
	w.stats.CompletedJobs++
}

func (w *Worker) trackJobFailure() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.FailedJobs++
}
