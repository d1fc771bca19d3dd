// Package report implements the periodic status reporters and job
// reporter from spec §4.6: long-running operations poll pods/events/jobs
// on a fixed interval, aggregate warning events, and surface a failure
// recap distinguishing cancellation, job-exhaustion and rollback.
package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/qovery-clone/cluster-engine/internal/k8s"
)

// listTimeout bounds every pod/event/job list call issued by the reporter.
const listTimeout = 15 * time.Second

// DefaultPollInterval is how often the reporter re-lists its targets.
const DefaultPollInterval = 15 * time.Second

// Warning is one aggregated warning event, keyed by the uid of the pod or
// job it was raised against.
type Warning struct {
	InvolvedObjectUID string
	Reason            string
	Message           string
	LastSeen          time.Time
	Count             int32
}

// FailureCause distinguishes why a reported task ended in failure.
type FailureCause int

const (
	CauseUnknown FailureCause = iota
	CauseCancellation
	CauseJobExhaustion
	CauseRollback
)

func (c FailureCause) String() string {
	switch c {
	case CauseCancellation:
		return "cancellation"
	case CauseJobExhaustion:
		return "job_exhaustion"
	case CauseRollback:
		return "rollback"
	default:
		return "unknown"
	}
}

// Recap is the human-readable summary emitted once a reported task fails.
type Recap struct {
	Cause         FailureCause
	Warnings      []Warning
	LastJobStatus string
	MaxRestarts   int32
	MaxDuration   string
}

// Message renders the recap the way a CLI/log tail would show it.
func (r Recap) Message() string {
	msg := fmt.Sprintf("task failed (%s); last known job status: %s", r.Cause, r.LastJobStatus)
	if r.Cause == CauseJobExhaustion {
		msg += fmt.Sprintf(" (max_restarts=%d max_duration=%s)", r.MaxRestarts, r.MaxDuration)
	}
	for _, w := range r.Warnings {
		msg += fmt.Sprintf("\n  - [%s] %s: %s (seen %dx, last at %s)", w.InvolvedObjectUID, w.Reason, w.Message, w.Count, w.LastSeen.Format(time.RFC3339))
	}
	return msg
}

// JobReporter polls pods, events and jobs matching a label selector in
// one namespace, aggregating warning events whose involvedObject.uid
// matches an observed pod or job.
type JobReporter struct {
	Client        *k8s.Client
	Namespace     string
	LabelSelector string

	// MaxElapsedTimeWithoutReport suppresses duplicate reports until this
	// much time has passed since the last one (spec §4.6).
	MaxElapsedTimeWithoutReport time.Duration

	mu            sync.Mutex
	observedUIDs  map[string]struct{}
	warnings      map[string]*Warning
	lastReportAt  time.Time
	lastJobStatus string
}

// NewJobReporter constructs a JobReporter with spec-default suppression.
func NewJobReporter(client *k8s.Client, namespace, labelSelector string) *JobReporter {
	return &JobReporter{
		Client:                      client,
		Namespace:                   namespace,
		LabelSelector:               labelSelector,
		MaxElapsedTimeWithoutReport: 2 * time.Minute,
		observedUIDs:                map[string]struct{}{},
		warnings:                    map[string]*Warning{},
	}
}

// Poll lists pods, jobs and warning events once, folding any new warning
// events into the aggregate.
func (r *JobReporter) Poll(ctx context.Context) error {
	if r.Client == nil || r.Client.Clientset == nil {
		// The kubeconfig hasn't been persisted yet (brand new cluster,
		// still mid-terraform-apply); nothing to poll against until
		// k8s.Client.Reload runs.
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	opts := metav1.ListOptions{LabelSelector: r.LabelSelector}

	pods, err := r.Client.Clientset.CoreV1().Pods(r.Namespace).List(ctx, opts)
	if err != nil {
		return fmt.Errorf("list pods: %w", err)
	}
	jobs, err := r.Client.Clientset.BatchV1().Jobs(r.Namespace).List(ctx, opts)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	r.mu.Lock()
	for _, p := range pods.Items {
		r.observedUIDs[string(p.UID)] = struct{}{}
	}
	for _, j := range jobs.Items {
		r.observedUIDs[string(j.UID)] = struct{}{}
		r.lastJobStatus = jobStatusSummary(j.Status)
	}
	r.mu.Unlock()

	events, err := r.Client.Clientset.CoreV1().Events(r.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events.Items {
		if e.Type != corev1.EventTypeWarning {
			continue
		}
		uid := string(e.InvolvedObject.UID)
		if _, tracked := r.observedUIDs[uid]; !tracked {
			continue
		}
		existing, ok := r.warnings[uid+"/"+e.Reason]
		if !ok {
			r.warnings[uid+"/"+e.Reason] = &Warning{
				InvolvedObjectUID: uid,
				Reason:            e.Reason,
				Message:           e.Message,
				LastSeen:          e.LastTimestamp.Time,
				Count:             e.Count,
			}
			continue
		}
		if e.LastTimestamp.Time.After(existing.LastSeen) {
			existing.LastSeen = e.LastTimestamp.Time
			existing.Message = e.Message
		}
		existing.Count += e.Count
	}
	return nil
}

func jobStatusSummary(s batchv1.JobStatus) string {
	switch {
	case s.Failed > 0:
		return fmt.Sprintf("failed (failed=%d active=%d succeeded=%d)", s.Failed, s.Active, s.Succeeded)
	case s.Succeeded > 0 && s.Active == 0:
		return fmt.Sprintf("succeeded (succeeded=%d)", s.Succeeded)
	default:
		return fmt.Sprintf("running (active=%d succeeded=%d)", s.Active, s.Succeeded)
	}
}

// ShouldReport reports whether enough time has elapsed since the last
// report to emit another one, suppressing duplicates per spec §4.6.
func (r *JobReporter) ShouldReport(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return now.Sub(r.lastReportAt) >= r.MaxElapsedTimeWithoutReport
}

// MarkReported records that a report was just emitted.
func (r *JobReporter) MarkReported(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastReportAt = at
}

// Snapshot returns a copy of the currently aggregated warnings.
func (r *JobReporter) Snapshot() []Warning {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Warning, 0, len(r.warnings))
	for _, w := range r.warnings {
		out = append(out, *w)
	}
	return out
}

// BuildRecap assembles the failure recap per spec §4.6, distinguishing
// cancellation, job-exhaustion (max_restarts/max_duration surfaced) and
// rollback.
func (r *JobReporter) BuildRecap(cause FailureCause, maxRestarts int32, maxDuration string) Recap {
	r.mu.Lock()
	lastStatus := r.lastJobStatus
	r.mu.Unlock()
	return Recap{
		Cause:         cause,
		Warnings:      r.Snapshot(),
		LastJobStatus: lastStatus,
		MaxRestarts:   maxRestarts,
		MaxDuration:   maxDuration,
	}
}

// Run polls every interval (DefaultPollInterval if zero) until ctx is
// done, invoking onReport whenever ShouldReport allows a new one.
func (r *JobReporter) Run(ctx context.Context, interval time.Duration, onReport func([]Warning)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Poll(ctx); err != nil {
				continue
			}
			now := time.Now()
			if r.ShouldReport(now) {
				onReport(r.Snapshot())
				r.MarkReported(now)
			}
		}
	}
}
