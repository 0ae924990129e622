package memory

import (
	"context"
	"testing"

	"ethics-review-be/pkg/assistant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAppendsScriptedReply(t *testing.T) {
	ctx := context.Background()
	client := NewClient(WithResponder("Ethicist", func(a assistant.Assistant, thread []assistant.Message) Reply {
		return Reply{Text: "echo: " + thread[len(thread)-1].Text}
	}))

	a, err := client.CreateAssistant(ctx, assistant.AssistantSpec{Name: "Ethicist", Model: "m"})
	require.NoError(t, err)
	thread, err := client.CreateThread(ctx, assistant.ThreadSpec{})
	require.NoError(t, err)
	_, err = client.AddMessage(ctx, thread.ID, "first")
	require.NoError(t, err)

	run, err := client.CreateRun(ctx, thread.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, assistant.RunCompleted, run.Status)

	msgs, err := client.ListMessages(ctx, thread.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, assistant.RoleAssistant, msgs[0].Role)
	assert.Equal(t, "echo: first", msgs[0].Text)
	assert.Equal(t, a.ID, msgs[0].AssistantID)
}

func TestDeleteFileDetachesFromStores(t *testing.T) {
	ctx := context.Background()
	client := NewClient()

	store, err := client.CreateVectorStore(ctx, "docs")
	require.NoError(t, err)
	sf, err := client.UploadStoreFile(ctx, store.ID, "AI_Act.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, []string{"AI_Act.pdf"}, client.StoreFilenames(store.ID))

	require.NoError(t, client.DeleteFile(ctx, sf.ID))

	files, err := client.ListStoreFiles(ctx, store.ID)
	require.NoError(t, err)
	assert.Empty(t, files)
	_, err = client.RetrieveFile(ctx, sf.ID)
	assert.ErrorIs(t, err, assistant.ErrNotFound)
}

func TestCreateRunForUnknownAssistant(t *testing.T) {
	ctx := context.Background()
	client := NewClient()
	thread, err := client.CreateThread(ctx, assistant.ThreadSpec{})
	require.NoError(t, err)

	_, err = client.CreateRun(ctx, thread.ID, "asst_missing")
	assert.ErrorIs(t, err, assistant.ErrNotFound)
}
