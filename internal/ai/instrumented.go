package ai

import (
	"context"
	"time"

	"github.com/spigell/airc/internal/metrics"
)

type instrumented struct {
	next     Client
	recorder metrics.Recorder
	now      func() time.Time
}

// Instrumented reports every Invoke call of next to recorder.
func Instrumented(next Client, recorder metrics.Recorder) Client {
	if recorder == nil {
		return next
	}
	return &instrumented{next: next, recorder: recorder, now: time.Now}
}

func (i *instrumented) Invoke(ctx context.Context, prompt string) (string, error) {
	started := i.now()
	out, err := i.next.Invoke(ctx, prompt)

	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	i.recorder.ModelRequest(status, i.now().Sub(started))

	return out, err
}
