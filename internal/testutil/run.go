package testutil

import (
	"context"
	"testing"

	"github.com/vk/voxelflow/internal/ctxlog"
	"github.com/vk/voxelflow/internal/datacontainer"
	"github.com/vk/voxelflow/internal/pipeline"
	"github.com/vk/voxelflow/internal/step"
)

// Context returns a context carrying a logger whose output is dumped when
// the test ends and VOXELFLOW_TEST_LOGS=true.
func Context(t *testing.T) context.Context {
	t.Helper()
	logs := &SafeBuffer{}
	t.Cleanup(func() { DumpLogs(t, logs) })
	return ctxlog.WithLogger(context.Background(), NewLogger(logs))
}

// Validate runs only the validation half of a pipeline made of steps.
func Validate(ctx context.Context, coll *datacontainer.Collection, steps ...step.Step) pipeline.Result {
	return newPipeline(steps).ValidateAll(ctx, coll)
}

// Run validates and commits a pipeline made of steps against coll.
func Run(ctx context.Context, coll *datacontainer.Collection, steps ...step.Step) pipeline.Result {
	return newPipeline(steps).Run(ctx, coll)
}

func newPipeline(steps []step.Step) *pipeline.Pipeline {
	p := pipeline.New("test", pipeline.WithWorkers(2))
	for _, s := range steps {
		if err := p.PushBack(s); err != nil {
			panic(err)
		}
	}
	return p
}

// ValidateTwice runs s.Validate twice against coll itself, with no copy in
// between, and returns both results.
func ValidateTwice(ctx context.Context, coll *datacontainer.Collection, s step.Step) (first, second step.Result) {
	env := step.NewEnv(coll, step.Validate)
	first = step.Run(ctx, s, env)
	second = step.Run(ctx, s, env)
	return first, second
}
