// Package feedbacktest provides a testify mock of the feedback pipeline.
package feedbacktest

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type Runner struct {
	mock.Mock
}

func (m *Runner) Run(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}
