package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nao1215/pngcipher/internal/model"
	"github.com/nao1215/pngcipher/internal/rsa"
)

func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	factory := func(model.LogFunc) *Processor { return NewProcessor() }

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(factory)
		if bp.concurrency != 4 {
			t.Errorf("concurrency = %d, want 4", bp.concurrency)
		}
		if bp.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(factory, WithConcurrency(0))
		if bp.concurrency != 4 {
			t.Errorf("concurrency = %d, want 4", bp.concurrency)
		}
		bp = NewBatchProcessor(factory, WithConcurrency(7))
		if bp.concurrency != 7 {
			t.Errorf("concurrency = %d, want 7", bp.concurrency)
		}
	})
}

func writeTestFiles(t *testing.T) (string, []string) {
	t.Helper()

	dir := t.TempDir()
	names := make([]string, 0)
	for _, name := range []string{"a.png", "b.png"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, encodePNG(t, testImages()["rgba 8-bit"]), 0o600); err != nil {
			t.Fatal(err)
		}
		names = append(names, path)
	}
	return dir, names
}

func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	dir, inputs := writeTestFiles(t)
	tasks := []Task{
		{Operation: OpAnonymize, Input: inputs[0], Output: filepath.Join(dir, "a.anon.png")},
		{Operation: OpAnonymize, Input: filepath.Join(dir, "missing.png"), Output: filepath.Join(dir, "m.anon.png")},
		{Operation: OpEncrypt, Input: inputs[1], Output: filepath.Join(dir, "b.enc.png")},
	}

	bp := NewBatchProcessor(func(onLog model.LogFunc) *Processor {
		return NewProcessor(WithOptions(testOptions(rsa.ModeECB)), WithLogFunc(onLog))
	}, WithConcurrency(2))

	outcomes, err := bp.ProcessBatch(context.Background(), tasks)
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if len(outcomes) != len(tasks) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(tasks))
	}

	for i, o := range outcomes {
		if o.Task.Input != tasks[i].Input {
			t.Errorf("outcome %d is for %s, want %s", i, o.Task.Input, tasks[i].Input)
		}
	}
	if outcomes[0].Err != nil || outcomes[2].Err != nil {
		t.Errorf("unexpected errors: %v, %v", outcomes[0].Err, outcomes[2].Err)
	}
	if outcomes[1].Err == nil {
		t.Error("expected error for missing input")
	}
	if outcomes[2].Result == nil || !outcomes[2].Result.KeyGenerated {
		t.Error("expected a generated key for the encrypt task")
	}
	if _, err := os.Stat(tasks[0].Output); err != nil {
		t.Errorf("anonymized output missing: %v", err)
	}
}

func TestBatchProcessorProcessBatchCancelled(t *testing.T) {
	t.Parallel()

	_, inputs := writeTestFiles(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bp := NewBatchProcessor(func(model.LogFunc) *Processor { return NewProcessor() })
	_, err := bp.ProcessBatch(ctx, []Task{{Operation: OpAnonymize, Input: inputs[0], Output: inputs[0] + ".out"}})
	if err == nil {
		t.Error("expected cancellation error")
	}
}

func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	dir, inputs := writeTestFiles(t)
	tasks := []Task{
		{Operation: OpAnonymize, Input: inputs[0], Output: filepath.Join(dir, "a.out.png")},
		{Operation: OpAnonymize, Input: inputs[1], Output: filepath.Join(dir, "b.out.png")},
	}

	var mu sync.Mutex
	seen := make(map[int]*Outcome)
	bp := NewBatchProcessor(func(onLog model.LogFunc) *Processor {
		return NewProcessor(WithLogFunc(onLog))
	})
	err := bp.ProcessBatchWithCallback(context.Background(), tasks, func(o *Outcome, i int) {
		mu.Lock()
		defer mu.Unlock()
		seen[i] = o
	})
	if err != nil {
		t.Fatalf("ProcessBatchWithCallback() error = %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("callback called %d times, want 2", len(seen))
	}
	for i, o := range seen {
		if o.Err != nil {
			t.Errorf("task %d: %v", i, o.Err)
		}
	}
}
