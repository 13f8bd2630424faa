package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/relabs-tech/smartlock/internal/device"
)

type step struct {
	name  string
	calls *[]string
	err   error
	panic string
}

func (s step) run() error {
	*s.calls = append(*s.calls, s.name)
	if s.panic != "" {
		panic(s.panic)
	}
	return s.err
}

type fixStep struct{ step }

func (f fixStep) UpdateFix(*device.State) error { return f.run() }

type lockStep struct{ step }

func (l lockStep) Evaluate(*device.State) error { return l.run() }

type commandStep struct{ step }

func (c commandStep) CheckOneMessage() error { return c.run() }

type sinkRecorder struct {
	calls *[]string
	texts []string
}

func (s *sinkRecorder) Render(text string) {
	*s.calls = append(*s.calls, "render")
	s.texts = append(s.texts, text)
}

func newStepSupervisor(calls *[]string) (*Supervisor, *fixStep, *lockStep, *commandStep, *sinkRecorder) {
	fix := &fixStep{step{name: "fix", calls: calls}}
	lk := &lockStep{step{name: "lock", calls: calls}}
	cmd := &commandStep{step{name: "command", calls: calls}}
	sink := &sinkRecorder{calls: calls}
	sup := NewSupervisor(device.NewState("lock-1"), fix, lk, cmd, time.Millisecond, sink)
	return sup, fix, lk, cmd, sink
}

func TestTickRunsStagesInOrder(t *testing.T) {
	var calls []string
	sup, _, _, _, sink := newStepSupervisor(&calls)

	if err := sup.Tick(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "fix,lock,command,render"
	if got := strings.Join(calls, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if len(sink.texts) != 1 || !strings.HasPrefix(sink.texts[0], "DeviceState:") {
		t.Errorf("unexpected render %q", sink.texts)
	}
}

func TestTickStopsAtFailingStage(t *testing.T) {
	var calls []string
	sup, _, lk, _, _ := newStepSupervisor(&calls)
	boom := errors.New("sensor unplugged")
	lk.err = boom

	err := sup.Tick()

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected *StageError, got %v", err)
	}
	if stageErr.Stage != "lock" || !errors.Is(err, boom) {
		t.Errorf("unexpected stage error %v", err)
	}
	if got := strings.Join(calls, ","); got != "fix,lock" {
		t.Errorf("expected later stages to be skipped, got %s", got)
	}
}

func TestTickRecoversPanic(t *testing.T) {
	var calls []string
	sup, _, _, cmd, _ := newStepSupervisor(&calls)
	cmd.panic = "nil map"

	err := sup.Tick()

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != "command" {
		t.Fatalf("expected command stage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "panic: nil map") {
		t.Errorf("expected panic text in %q", err)
	}
}

func TestRunSurvivesFaultsUntilCancelled(t *testing.T) {
	var calls []string
	sup, fix, _, _, _ := newStepSupervisor(&calls)
	fix.err = errors.New("port gone")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := sup.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the loop to end only on cancellation, got %v", err)
	}
	if sup.Faults() < 2 {
		t.Errorf("expected the loop to keep ticking through faults, got %d faults", sup.Faults())
	}
}
