package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSagaExecutesAllSteps(t *testing.T) {
	var order []string
	saga := NewSaga("test").
		AddStep(Step{
			Name: "first",
			Run:  func(context.Context) error { order = append(order, "first"); return nil },
		}).
		AddStep(Step{
			Name: "second",
			Run:  func(context.Context) error { order = append(order, "second"); return nil },
		})

	require.NoError(t, saga.Execute(context.Background()))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestSagaRollsBackInReverseOrder(t *testing.T) {
	var order []string
	boom := errors.New("boom")

	saga := NewSaga("test").
		AddStep(Step{
			Name:       "a",
			Run:        func(context.Context) error { order = append(order, "run a"); return nil },
			Compensate: func(context.Context) error { order = append(order, "undo a"); return nil },
		}).
		AddStep(Step{
			Name:       "b",
			Run:        func(context.Context) error { order = append(order, "run b"); return nil },
			Compensate: func(context.Context) error { order = append(order, "undo b"); return nil },
		}).
		AddStep(Step{
			Name: "c",
			Run:  func(context.Context) error { return boom },
			Compensate: func(context.Context) error {
				t.Error("failed step must not be compensated")
				return nil
			},
		})

	err := saga.Execute(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"run a", "run b", "undo b", "undo a"}, order)
}

func TestSagaFirstStepFailureCompensatesNothing(t *testing.T) {
	boom := errors.New("boom")
	compensated := false

	saga := NewSaga("test").
		AddStep(Step{
			Name:       "only",
			Run:        func(context.Context) error { return boom },
			Compensate: func(context.Context) error { compensated = true; return nil },
		})

	require.ErrorIs(t, saga.Execute(context.Background()), boom)
	assert.False(t, compensated)
}

func TestSagaRollbackContinuesPastCompensationFailure(t *testing.T) {
	var order []string
	boom := errors.New("boom")

	saga := NewSaga("test").
		AddStep(Step{
			Name:       "a",
			Run:        func(context.Context) error { return nil },
			Compensate: func(context.Context) error { order = append(order, "undo a"); return nil },
		}).
		AddStep(Step{
			Name:       "b",
			Run:        func(context.Context) error { return nil },
			Compensate: func(context.Context) error { return errors.New("undo b failed") },
		}).
		AddStep(Step{
			Name: "c",
			Run:  func(context.Context) error { return boom },
		})

	require.ErrorIs(t, saga.Execute(context.Background()), boom)
	assert.Equal(t, []string{"undo a"}, order, "rollback must reach earlier steps even when a compensation fails")
}

func TestSagaStepWithoutCompensationIsSkippedOnRollback(t *testing.T) {
	var order []string
	boom := errors.New("boom")

	saga := NewSaga("test").
		AddStep(Step{
			Name: "record",
			Run:  func(context.Context) error { return nil },
		}).
		AddStep(Step{
			Name:       "adjust",
			Run:        func(context.Context) error { return nil },
			Compensate: func(context.Context) error { order = append(order, "undo adjust"); return nil },
		}).
		AddStep(Step{
			Name: "publish",
			Run:  func(context.Context) error { return boom },
		})

	require.Error(t, saga.Execute(context.Background()))
	assert.Equal(t, []string{"undo adjust"}, order)
}
