package notify

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiscan/internal/service/report"
)

type fakeConn struct {
	subject    string
	data       []byte
	flushed    bool
	publishErr error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.subject = subject
	f.data = data
	return nil
}

func (f *fakeConn) Flush() error {
	f.flushed = true
	return nil
}

func TestPublishRunCompleted(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, "iberia")

	started := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	err := p.PublishRunCompleted(RunEvent{
		RunID:         "run-1",
		Topic:         "iberia",
		StartedAt:     started,
		FinishedAt:    started.Add(time.Minute),
		Interrupted:   true,
		Total:         2,
		MeanSentiment: 0.25,
		ByKind:        []report.GroupStat{{Key: "post", Count: 2, MeanSentiment: 0.25}},
		ExportFile:    "iberia_analysis_20240101_100100.csv",
	})
	require.NoError(t, err)

	assert.Equal(t, "iberia.run.completed", conn.subject)
	assert.True(t, conn.flushed)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(conn.data, &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Equal(t, true, decoded["interrupted"])
	assert.Equal(t, 2.0, decoded["total"])
	assert.Equal(t, "iberia_analysis_20240101_100100.csv", decoded["export_file"])
}

func TestPublisherDefaultTopic(t *testing.T) {
	assert.Equal(t, "mentions.run.completed", NewPublisher(&fakeConn{}, "").Subject())
}

func TestPublishError(t *testing.T) {
	p := NewPublisher(&fakeConn{publishErr: errors.New("no responders")}, "t")

	err := p.PublishRunCompleted(RunEvent{RunID: "x"})
	assert.ErrorContains(t, err, "no responders")
}
