package step

import (
	"context"
	"fmt"

	"github.com/vk/voxelflow/internal/ctxlog"
	"github.com/vk/voxelflow/internal/dataerr"
)

// Run invokes the phase of s selected by env and returns its result. A
// panicking step is reported as a Compute error.
func Run(ctx context.Context, s Step, env *Env) (res Result) {
	logger := ctxlog.FromContext(ctx).With("step", s.Label(), "type", s.Type(), "phase", env.Phase.String())
	env.reset(s)

	defer func() {
		if r := recover(); r != nil {
			err := dataerr.New(dataerr.Compute, "", "step panicked: %v", r)
			logger.Error("Step panicked.", "panic", fmt.Sprint(r))
			res = newResult(err, env.Warnings())
		}
	}()

	logger.Debug("Step started.")
	var err error
	if env.Phase == Commit {
		err = s.Commit(ctx, env)
	} else {
		err = s.Validate(ctx, env)
	}
	res = newResult(err, env.Warnings())

	if err != nil {
		logger.Debug("Step failed.", "error", err, "code", res.Status.Code)
		env.send(Message{Kind: ErrorMessage, Code: res.Status.Code, Text: res.Status.Message, Path: res.Status.Path})
		return res
	}
	logger.Debug("Step finished.", "warnings", len(res.Status.Warnings))
	return res
}
