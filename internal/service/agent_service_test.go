package service_test

import (
	"context"
	"testing"

	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/pkg/apperr"
	"ethics-review-be/internal/service"
	"ethics-review-be/pkg/assistant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentServiceReservedAgentIsReused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.agents.CreateOrGet(ctx, service.AgentParams{Name: entity.EthicistName, Role: "ethics", Model: "m"})
	require.NoError(t, err)
	second, err := f.agents.CreateOrGet(ctx, service.AgentParams{Name: entity.EthicistName, Role: "other role", Model: "m"})
	require.NoError(t, err)

	assert.Equal(t, first.RemoteId, second.RemoteId)
	assert.True(t, second.Reserved)
	assert.Equal(t, 1, f.client.Calls["CreateAssistant"])
	assert.Equal(t, 0, f.client.Calls["DeleteAssistant"])
}

func TestAgentServiceRecreatesVanishedReservedAgent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.agents.CreateOrGet(ctx, service.AgentParams{Name: entity.EthicistName, Role: "ethics", Model: "m"})
	require.NoError(t, err)
	require.NoError(t, f.client.DeleteAssistant(ctx, first.RemoteId))

	second, err := f.agents.CreateOrGet(ctx, service.AgentParams{Name: entity.EthicistName, Role: "ethics", Model: "m"})
	require.NoError(t, err)
	assert.NotEqual(t, first.RemoteId, second.RemoteId)
	assert.Equal(t, []string{entity.EthicistName}, f.client.LiveAssistants())
}

func TestAgentServiceSameNameKeepsOneLiveAgent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.agents.CreateForUser(ctx, service.AgentParams{Name: "Data Scientist", Role: "v1", Model: "m", StoreID: f.settings.StoreID})
	require.NoError(t, err)
	second, err := f.agents.CreateForUser(ctx, service.AgentParams{Name: "Data Scientist", Role: "v2", Model: "m", StoreID: f.settings.StoreID})
	require.NoError(t, err)

	assert.NotEqual(t, first.RemoteId, second.RemoteId)
	assert.Equal(t, []string{"Data Scientist"}, f.client.LiveAssistants())

	remote, err := f.client.RetrieveAssistant(ctx, second.RemoteId)
	require.NoError(t, err)
	assert.Contains(t, remote.Instructions, "v2")

	stale, err := f.agents.GetByID(ctx, first.RemoteId)
	require.NoError(t, err)
	assert.Nil(t, stale)
}

func TestAgentServiceReplacesEverySameNamedRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Two records for one name, as left behind by a registry refresh.
	for i := 0; i < 2; i++ {
		remote, err := f.client.CreateAssistant(ctx, assistant.AssistantSpec{Name: "Tester", Instructions: "old", Model: "m"})
		require.NoError(t, err)
		require.NoError(t, f.registry.RecordAgent(ctx, &entity.Agent{RemoteId: remote.ID, Name: "Tester", Role: "old", Model: "m"}))
	}
	require.Len(t, f.client.LiveAssistants(), 2)

	agent, err := f.agents.CreateForUser(ctx, service.AgentParams{Name: "Tester", Role: "new", Model: "m"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Tester"}, f.client.LiveAssistants())
	assert.Equal(t, 2, f.client.Calls["DeleteAssistant"])
	records, err := f.registry.FindAgentsByName(ctx, "Tester")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, agent.RemoteId, records[0].RemoteId)
}

func TestAgentServiceCreateForUserValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name  string
		agent string
		role  string
	}{
		{name: "ethicist name", agent: "AI Ethicist", role: "x"},
		{name: "ethicist name in another case", agent: "my ai ethicist", role: "x"},
		{name: "classifier name", agent: "RiskGuardAI", role: "x"},
		{name: "blank name", agent: "  ", role: "x"},
		{name: "blank role", agent: "Tester", role: " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.agents.CreateForUser(ctx, service.AgentParams{Name: tt.agent, Role: tt.role, Model: "m"})
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
	assert.Empty(t, f.client.LiveAssistants())
}

func TestAgentServiceDeleteMissingAgent(t *testing.T) {
	f := newFixture(t)

	deleted, err := f.agents.Delete(context.Background(), "asst_missing")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestAgentServicePurgeAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.agents.CreateOrGet(ctx, service.AgentParams{Name: entity.EthicistName, Role: "ethics", Model: "m"})
	require.NoError(t, err)
	_, err = f.agents.CreateForUser(ctx, service.AgentParams{Name: "Tester", Role: "tests", Model: "m"})
	require.NoError(t, err)
	_, err = f.agents.CreateForUser(ctx, service.AgentParams{Name: "Lawyer", Role: "law", Model: "m"})
	require.NoError(t, err)

	deleted, err := f.agents.PurgeAll(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, []string{entity.EthicistName}, f.client.LiveAssistants())

	remaining, err := f.registry.AllAgents(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, entity.EthicistName, remaining[0].Name)

	deleted, err = f.agents.PurgeAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Empty(t, f.client.LiveAssistants())
}
