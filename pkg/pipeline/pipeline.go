// Copyright (C) 2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pipeline runs the publish steps: a strictly linear sequence where any failure is
// fatal to the whole run.  No retries, no branching, no partial credit; a failed run gets fixed
// and re-run from the top.
package pipeline

import (
	"context"
	"fmt"

	"github.com/datawire/dlib/dlog"
)

type Step struct {
	Name string
	Run  func(context.Context) error
}

// A StepError remembers which step sank the run.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Run executes the steps in order, stopping at the first failure.
func Run(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		dlog.Infof(ctx, "=> [%d/%d] %s", i+1, len(steps), step.Name)
		if err := step.Run(ctx); err != nil {
			return &StepError{Step: step.Name, Err: err}
		}
	}
	return nil
}
