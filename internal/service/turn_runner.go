package service

import (
	"context"
	"time"

	"ethics-review-be/internal/pkg/apperr"
	"ethics-review-be/internal/pkg/logger"
	"ethics-review-be/pkg/assistant"
	"ethics-review-be/pkg/citation"
)

// turnRunner posts one user turn to a thread, runs an assistant on it and
// returns the formatted reply.
type turnRunner struct {
	client assistant.Client
	poll   assistant.PollConfig
	logger logger.ILogger
}

func newTurnRunner(client assistant.Client, poll assistant.PollConfig, log logger.ILogger) *turnRunner {
	return &turnRunner{client: client, poll: poll, logger: log}
}

func (r *turnRunner) newThread(ctx context.Context, storeID string) (string, error) {
	spec := assistant.ThreadSpec{}
	if storeID != "" {
		spec.VectorStoreIDs = []string{storeID}
	}
	thread, err := r.client.CreateThread(ctx, spec)
	if err != nil {
		return "", apperr.Classify("thread.create", err)
	}
	return thread.ID, nil
}

func (r *turnRunner) run(ctx context.Context, module, threadID, assistantID, content string) (citation.Response, error) {
	if _, err := r.client.AddMessage(ctx, threadID, content); err != nil {
		r.logger.Error(module, "Failed to post message", map[string]interface{}{"thread_id": threadID, "error": err.Error()})
		return citation.Response{}, apperr.Classify("thread.add_message", err)
	}

	run, err := r.client.CreateRun(ctx, threadID, assistantID)
	if err != nil {
		r.logger.Error(module, "Failed to start run", map[string]interface{}{"thread_id": threadID, "assistant_id": assistantID, "error": err.Error()})
		return citation.Response{}, apperr.Classify("run.create", err)
	}

	cfg := r.poll
	cfg.OnPending = func(pending assistant.Run, next time.Duration) {
		r.logger.Debug(module, "Run pending", map[string]interface{}{"run_id": pending.ID, "status": string(pending.Status), "next_poll": next.String()})
	}
	if _, err := assistant.WaitForRun(ctx, r.client, threadID, run.ID, cfg); err != nil {
		r.logger.Error(module, "Run did not complete", map[string]interface{}{"run_id": run.ID, "assistant_id": assistantID, "error": err.Error()})
		return citation.Response{}, apperr.Classify("run.wait", err)
	}

	messages, err := r.client.ListMessages(ctx, threadID)
	if err != nil {
		return citation.Response{}, apperr.Classify("thread.list_messages", err)
	}

	resp := citation.Format(ctx, messages, r.client)
	if resp.LookupErrors > 0 {
		r.logger.Warn(module, "Some cited files could not be resolved", map[string]interface{}{"count": resp.LookupErrors})
	}
	return resp, nil
}
