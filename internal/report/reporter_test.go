package report

import (
	"context"
	"testing"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qovery-clone/cluster-engine/internal/k8s"
)

func TestPollAggregatesWarningEventsForObservedPod(t *testing.T) {
	cs := fake.NewSimpleClientset()
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "worker-1", Namespace: "jobs", UID: types.UID("pod-uid-1"), Labels: map[string]string{"app": "job"}},
	}
	_, err := cs.CoreV1().Pods("jobs").Create(context.Background(), pod, metav1.CreateOptions{})
	require.NoError(t, err)

	event := &corev1.Event{
		ObjectMeta:     metav1.ObjectMeta{Name: "evt-1", Namespace: "jobs"},
		InvolvedObject: corev1.ObjectReference{UID: types.UID("pod-uid-1")},
		Type:           corev1.EventTypeWarning,
		Reason:         "BackOff",
		Message:        "container crashed",
		LastTimestamp:  metav1.NewTime(time.Now()),
		Count:          1,
	}
	_, err = cs.CoreV1().Events("jobs").Create(context.Background(), event, metav1.CreateOptions{})
	require.NoError(t, err)

	r := NewJobReporter(&k8s.Client{Clientset: cs}, "jobs", "app=job")
	require.NoError(t, r.Poll(context.Background()))

	warnings := r.Snapshot()
	require.Len(t, warnings, 1)
	assert.Equal(t, "BackOff", warnings[0].Reason)
	assert.Equal(t, "pod-uid-1", warnings[0].InvolvedObjectUID)
}

func TestPollIgnoresEventsForUntrackedObjects(t *testing.T) {
	cs := fake.NewSimpleClientset()
	event := &corev1.Event{
		ObjectMeta:     metav1.ObjectMeta{Name: "evt-1", Namespace: "jobs"},
		InvolvedObject: corev1.ObjectReference{UID: types.UID("some-other-uid")},
		Type:           corev1.EventTypeWarning,
		Reason:         "BackOff",
	}
	_, err := cs.CoreV1().Events("jobs").Create(context.Background(), event, metav1.CreateOptions{})
	require.NoError(t, err)

	r := NewJobReporter(&k8s.Client{Clientset: cs}, "jobs", "")
	require.NoError(t, r.Poll(context.Background()))
	assert.Empty(t, r.Snapshot())
}

func TestShouldReportSuppressesDuplicatesWithinWindow(t *testing.T) {
	r := NewJobReporter(&k8s.Client{Clientset: fake.NewSimpleClientset()}, "jobs", "")
	r.MaxElapsedTimeWithoutReport = time.Hour
	r.MarkReported(time.Now())
	assert.False(t, r.ShouldReport(time.Now()))
	assert.True(t, r.ShouldReport(time.Now().Add(2*time.Hour)))
}

func TestBuildRecapDistinguishesJobExhaustion(t *testing.T) {
	cs := fake.NewSimpleClientset()
	job := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{Name: "deploy-job", Namespace: "jobs", UID: types.UID("job-uid-1")},
		Status:     batchv1.JobStatus{Failed: 3},
	}
	_, err := cs.BatchV1().Jobs("jobs").Create(context.Background(), job, metav1.CreateOptions{})
	require.NoError(t, err)

	r := NewJobReporter(&k8s.Client{Clientset: cs}, "jobs", "")
	require.NoError(t, r.Poll(context.Background()))

	recap := r.BuildRecap(CauseJobExhaustion, 3, "10m")
	assert.Equal(t, CauseJobExhaustion, recap.Cause)
	assert.Contains(t, recap.LastJobStatus, "failed")
	assert.Contains(t, recap.Message(), "max_restarts=3")
}
