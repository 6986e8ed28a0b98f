package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"releasegate/types"
	"releasegate/websocket"

	"github.com/google/uuid"
)

// ErrQueueFull is returned when no more validation jobs can be queued
var ErrQueueFull = errors.New("validation queue is full")

const queueCapacity = 100

// ValidationRunner runs one validation. *Validator implements it.
type ValidationRunner interface {
	Run(ctx context.Context, archivePath string, r Reporter) error
}

// JobQueue interface defines the methods for managing validation jobs
type JobQueue interface {
	Start(ctx context.Context)
	AddJob(archive, archivePath string, upload *Workspace) (*types.ValidationJob, error)
	GetJob(id string) (*types.ValidationJob, bool)
	GetAllJobs() []*types.ValidationJob
	CancelJob(id string) bool
}

// jobQueue runs validation jobs one at a time, in submission order
type jobQueue struct {
	jobs    map[string]*types.ValidationJob
	order   []string
	uploads map[string]*Workspace
	running map[string]context.CancelFunc
	queue   chan *types.ValidationJob
	mu      sync.RWMutex
	runner  ValidationRunner
	hub     websocket.Hub
	logger  *log.Logger
}

// NewJobQueue creates a new job queue. hub may be nil.
func NewJobQueue(runner ValidationRunner, hub websocket.Hub, logger *log.Logger) JobQueue {
	if logger == nil {
		logger = log.Default()
	}
	return &jobQueue{
		jobs:    make(map[string]*types.ValidationJob),
		uploads: make(map[string]*Workspace),
		running: make(map[string]context.CancelFunc),
		queue:   make(chan *types.ValidationJob, queueCapacity),
		runner:  runner,
		hub:     hub,
		logger:  logger,
	}
}

// AddJob queues the uploaded archive. The upload workspace is removed once the job ends.
func (jq *jobQueue) AddJob(archive, archivePath string, upload *Workspace) (*types.ValidationJob, error) {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	job := &types.ValidationJob{
		ID:          uuid.New().String(),
		Status:      types.JobStatusQueued,
		Archive:     archive,
		ArchivePath: archivePath,
		CreatedAt:   time.Now(),
	}

	select {
	case jq.queue <- job:
	default:
		return nil, ErrQueueFull
	}

	jq.jobs[job.ID] = job
	jq.order = append(jq.order, job.ID)
	if upload != nil {
		jq.uploads[job.ID] = upload
	}
	return snapshot(job), nil
}

// GetJob retrieves a copy of a job by ID
func (jq *jobQueue) GetJob(id string) (*types.ValidationJob, bool) {
	jq.mu.RLock()
	defer jq.mu.RUnlock()
	job, exists := jq.jobs[id]
	if !exists {
		return nil, false
	}
	return snapshot(job), true
}

// GetAllJobs returns copies of all jobs in submission order
func (jq *jobQueue) GetAllJobs() []*types.ValidationJob {
	jq.mu.RLock()
	defer jq.mu.RUnlock()

	jobs := make([]*types.ValidationJob, 0, len(jq.order))
	for _, id := range jq.order {
		jobs = append(jobs, snapshot(jq.jobs[id]))
	}
	return jobs
}

// CancelJob cancels a queued or running job
func (jq *jobQueue) CancelJob(id string) bool {
	jq.mu.Lock()
	job, exists := jq.jobs[id]
	if !exists {
		jq.mu.Unlock()
		return false
	}

	switch job.Status {
	case types.JobStatusQueued:
		msg := jq.applyStatus(job, types.JobStatusCancelled, "")
		jq.mu.Unlock()
		jq.broadcast(msg)
		jq.releaseUpload(id)
		return true
	case types.JobStatusProcessing:
		cancel := jq.running[id]
		jq.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return true
	}

	jq.mu.Unlock()
	return false
}

// Start runs the single worker until ctx is done
func (jq *jobQueue) Start(ctx context.Context) {
	go jq.worker(ctx)
}

func (jq *jobQueue) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-jq.queue:
			jq.process(ctx, job.ID)
		}
	}
}

func (jq *jobQueue) process(ctx context.Context, id string) {
	jq.mu.Lock()
	job := jq.jobs[id]
	if job.Status != types.JobStatusQueued {
		jq.mu.Unlock()
		return
	}
	archivePath := job.ArchivePath
	runCtx, cancel := context.WithCancel(ctx)
	jq.running[id] = cancel
	started := jq.applyStatus(job, types.JobStatusProcessing, "")
	jq.mu.Unlock()
	jq.broadcast(started)

	defer func() {
		cancel()
		jq.mu.Lock()
		delete(jq.running, id)
		jq.mu.Unlock()
		jq.releaseUpload(id)
	}()

	reporter := &jobReporter{CollectingReporter: NewCollectingReporter(job.Archive), jq: jq, jobID: id}
	err := jq.runner.Run(runCtx, archivePath, reporter)

	switch {
	case err != nil && runCtx.Err() != nil:
		jq.setStatus(id, types.JobStatusCancelled, "")
		jq.logger.Printf("Job %s cancelled", id)
	case err != nil:
		jq.setStatus(id, types.JobStatusFailed, err.Error())
		jq.logger.Printf("Job %s failed: %v", id, err)
	default:
		jq.complete(id, reporter.Result())
		jq.logger.Printf("Job %s completed with %d problem(s)", id, len(reporter.Result().Problems))
	}
}

func (jq *jobQueue) releaseUpload(id string) {
	jq.mu.Lock()
	upload := jq.uploads[id]
	delete(jq.uploads, id)
	jq.mu.Unlock()

	if upload == nil {
		return
	}
	if err := upload.Cleanup(); err != nil {
		jq.logger.Printf("Warning: could not remove upload for job %s: %v", id, err)
	}
}

// updateProgress records that file index of total is being checked
func (jq *jobQueue) updateProgress(id string, index, total int, filename string, problems int) {
	jq.mu.Lock()
	job, exists := jq.jobs[id]
	if !exists {
		jq.mu.Unlock()
		return
	}
	job.Progress = index
	job.Total = total
	status := job.Status
	jq.mu.Unlock()

	jq.broadcast(types.ProgressMessage{
		JobID:       id,
		Type:        "progress",
		Progress:    percent(index, total),
		Status:      string(status),
		CurrentFile: filename,
		Problems:    problems,
		Message:     fmt.Sprintf("Checking file %d of %d", index+1, total),
	})
}

func (jq *jobQueue) complete(id string, report *types.Report) {
	jq.mu.Lock()
	if job, exists := jq.jobs[id]; exists {
		job.Report = report
		job.Progress = job.Total
	}
	jq.mu.Unlock()
	jq.setStatus(id, types.JobStatusCompleted, "")
}

// setStatus updates job status and broadcasts it
func (jq *jobQueue) setStatus(id string, status types.JobStatus, errorMsg string) {
	jq.mu.Lock()
	job, exists := jq.jobs[id]
	if !exists {
		jq.mu.Unlock()
		return
	}
	msg := jq.applyStatus(job, status, errorMsg)
	jq.mu.Unlock()

	jq.broadcast(msg)
}

// applyStatus must be called with mu held. It returns the message to broadcast.
func (jq *jobQueue) applyStatus(job *types.ValidationJob, status types.JobStatus, errorMsg string) types.ProgressMessage {
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}

	now := time.Now()
	if status == types.JobStatusProcessing && job.StartedAt == nil {
		job.StartedAt = &now
	} else if job.Done() {
		job.CompletedAt = &now
	}

	msg := types.ProgressMessage{
		JobID:    job.ID,
		Type:     "status",
		Status:   string(status),
		Progress: percent(job.Progress, job.Total),
		Message:  string(status),
	}
	switch status {
	case types.JobStatusCompleted:
		msg.Type = "complete"
		msg.Progress = 100.0
		if job.Report != nil {
			msg.Problems = len(job.Report.Problems)
		}
		msg.Message = fmt.Sprintf("%s validated", job.Archive)
	case types.JobStatusFailed:
		msg.Type = "error"
		msg.Message = errorMsg
	case types.JobStatusProcessing:
		msg.Message = fmt.Sprintf("Started validating %s", job.Archive)
	}
	return msg
}

func (jq *jobQueue) broadcast(msg types.ProgressMessage) {
	if jq.hub != nil {
		jq.hub.BroadcastProgress(msg)
	}
}

// jobReporter collects the report of a job and forwards progress to the queue
type jobReporter struct {
	*CollectingReporter
	jq    *jobQueue
	jobID string
}

func (r *jobReporter) FileChecked(index, total int, filename string) {
	r.CollectingReporter.FileChecked(index, total, filename)
	r.jq.updateProgress(r.jobID, index, total, filename, len(r.Result().Problems))
}

func percent(progress, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(progress) / float64(total) * 100
}

func snapshot(job *types.ValidationJob) *types.ValidationJob {
	copied := *job
	return &copied
}
