package assistant_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ethics-review-be/pkg/assistant"
	"ethics-review-be/pkg/assistant/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPoll() assistant.PollConfig {
	return assistant.PollConfig{
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Timeout:         2 * time.Second,
	}
}

func startRun(t *testing.T, client *memory.Client) (assistant.Thread, assistant.Run) {
	t.Helper()
	ctx := context.Background()
	a, err := client.CreateAssistant(ctx, assistant.AssistantSpec{Name: "Reviewer", Model: "test-model"})
	require.NoError(t, err)
	thread, err := client.CreateThread(ctx, assistant.ThreadSpec{})
	require.NoError(t, err)
	_, err = client.AddMessage(ctx, thread.ID, "hello")
	require.NoError(t, err)
	run, err := client.CreateRun(ctx, thread.ID, a.ID)
	require.NoError(t, err)
	return thread, run
}

func TestWaitForRunCompletesAfterPendingPolls(t *testing.T) {
	client := memory.NewClient(memory.WithPendingPolls(3))
	thread, run := startRun(t, client)

	pending := 0
	cfg := fastPoll()
	cfg.OnPending = func(run assistant.Run, next time.Duration) { pending++ }

	got, err := assistant.WaitForRun(context.Background(), client, thread.ID, run.ID, cfg)

	require.NoError(t, err)
	assert.Equal(t, assistant.RunCompleted, got.Status)
	assert.Equal(t, 2, pending)
	assert.Equal(t, 3, client.Calls["RetrieveRun"])
}

func TestWaitForRunFailedIsNotRetried(t *testing.T) {
	client := memory.NewClient(
		memory.WithPendingPolls(1),
		memory.WithDefaultResponder(func(a assistant.Assistant, thread []assistant.Message) memory.Reply {
			return memory.Reply{Fail: true}
		}),
	)
	thread, run := startRun(t, client)

	got, err := assistant.WaitForRun(context.Background(), client, thread.ID, run.ID, fastPoll())

	require.Error(t, err)
	assert.True(t, errors.Is(err, assistant.ErrRunFailed))
	var runErr *assistant.RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, assistant.RunFailed, runErr.Status)
	assert.Equal(t, assistant.RunFailed, got.Status)
	assert.Equal(t, 1, client.Calls["RetrieveRun"])
}

func TestWaitForRunTimesOut(t *testing.T) {
	client := memory.NewClient(memory.WithPendingPolls(1_000_000))
	thread, run := startRun(t, client)

	cfg := fastPoll()
	cfg.Timeout = 30 * time.Millisecond

	_, err := assistant.WaitForRun(context.Background(), client, thread.ID, run.ID, cfg)

	require.Error(t, err)
	assert.True(t, errors.Is(err, assistant.ErrRunTimeout))
}

func TestWaitForRunHonoursCancellation(t *testing.T) {
	client := memory.NewClient(memory.WithPendingPolls(1_000_000))
	thread, run := startRun(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastPoll()
	cfg.OnPending = func(run assistant.Run, next time.Duration) { cancel() }

	_, err := assistant.WaitForRun(ctx, client, thread.ID, run.ID, cfg)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWaitForRunUnknownRun(t *testing.T) {
	client := memory.NewClient()
	thread, _ := startRun(t, client)

	_, err := assistant.WaitForRun(context.Background(), client, thread.ID, "run_missing", fastPoll())

	require.Error(t, err)
	assert.True(t, errors.Is(err, assistant.ErrNotFound))
}
