package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ethics-review-be/pkg/assistant"

	goopenai "github.com/sashabaranov/go-openai"
)

const pageSize = 100

type OpenAIProvider struct {
	Client *goopenai.Client
}

// Ensure OpenAIProvider implements assistant.Client
var _ assistant.Client = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		Client: goopenai.NewClientWithConfig(cfg),
	}
}

// --- Error mapping ---

func mapError(op string, err error) error {
	if err == nil {
		return nil
	}

	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if status == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, assistant.ErrNotFound)
	}
	if status != 0 {
		return fmt.Errorf("%s: %w", op, &assistant.APIError{StatusCode: status, Message: err.Error()})
	}
	return fmt.Errorf("%s: %w", op, err)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// --- Assistants ---

func toAssistant(a goopenai.Assistant) assistant.Assistant {
	return assistant.Assistant{
		ID:           a.ID,
		Name:         deref(a.Name),
		Instructions: deref(a.Instructions),
		Model:        a.Model,
	}
}

func (p *OpenAIProvider) ListAssistants(ctx context.Context) ([]assistant.Assistant, error) {
	limit := pageSize
	var after *string
	out := make([]assistant.Assistant, 0)
	for {
		page, err := p.Client.ListAssistants(ctx, &limit, nil, after, nil)
		if err != nil {
			return nil, mapError("list assistants", err)
		}
		for _, a := range page.Assistants {
			out = append(out, toAssistant(a))
		}
		if !page.HasMore || page.LastID == nil {
			return out, nil
		}
		after = page.LastID
	}
}

func (p *OpenAIProvider) CreateAssistant(ctx context.Context, spec assistant.AssistantSpec) (assistant.Assistant, error) {
	req := goopenai.AssistantRequest{
		Model:        spec.Model,
		Name:         strPtr(spec.Name),
		Description:  strPtr(spec.Description),
		Instructions: strPtr(spec.Instructions),
		Temperature:  spec.Temperature,
		TopP:         spec.TopP,
	}
	for _, tool := range spec.Tools {
		req.Tools = append(req.Tools, goopenai.AssistantTool{Type: goopenai.AssistantToolType(tool)})
	}
	if len(spec.VectorStoreIDs) > 0 {
		req.ToolResources = &goopenai.AssistantToolResource{
			FileSearch: &goopenai.AssistantToolFileSearch{VectorStoreIDs: spec.VectorStoreIDs},
		}
	}

	a, err := p.Client.CreateAssistant(ctx, req)
	if err != nil {
		return assistant.Assistant{}, mapError("create assistant", err)
	}
	return toAssistant(a), nil
}

func (p *OpenAIProvider) RetrieveAssistant(ctx context.Context, assistantID string) (assistant.Assistant, error) {
	a, err := p.Client.RetrieveAssistant(ctx, assistantID)
	if err != nil {
		return assistant.Assistant{}, mapError("retrieve assistant", err)
	}
	return toAssistant(a), nil
}

func (p *OpenAIProvider) DeleteAssistant(ctx context.Context, assistantID string) error {
	_, err := p.Client.DeleteAssistant(ctx, assistantID)
	return mapError("delete assistant", err)
}

// --- Vector stores ---

func (p *OpenAIProvider) ListVectorStores(ctx context.Context) ([]assistant.VectorStore, error) {
	limit := pageSize
	pagination := goopenai.Pagination{Limit: &limit}
	out := make([]assistant.VectorStore, 0)
	for {
		page, err := p.Client.ListVectorStores(ctx, pagination)
		if err != nil {
			return nil, mapError("list vector stores", err)
		}
		for _, vs := range page.VectorStores {
			out = append(out, assistant.VectorStore{ID: vs.ID, Name: vs.Name})
		}
		if !page.HasMore || page.LastID == nil {
			return out, nil
		}
		pagination.After = page.LastID
	}
}

func (p *OpenAIProvider) CreateVectorStore(ctx context.Context, name string) (assistant.VectorStore, error) {
	vs, err := p.Client.CreateVectorStore(ctx, goopenai.VectorStoreRequest{Name: name})
	if err != nil {
		return assistant.VectorStore{}, mapError("create vector store", err)
	}
	return assistant.VectorStore{ID: vs.ID, Name: vs.Name}, nil
}

func (p *OpenAIProvider) ListStoreFiles(ctx context.Context, storeID string) ([]assistant.StoreFile, error) {
	limit := pageSize
	pagination := goopenai.Pagination{Limit: &limit}
	out := make([]assistant.StoreFile, 0)
	for {
		page, err := p.Client.ListVectorStoreFiles(ctx, storeID, pagination)
		if err != nil {
			return nil, mapError("list vector store files", err)
		}
		for _, f := range page.VectorStoreFiles {
			out = append(out, assistant.StoreFile{ID: f.ID})
		}
		if !page.HasMore || page.LastID == nil {
			return out, nil
		}
		pagination.After = page.LastID
	}
}

func (p *OpenAIProvider) UploadStoreFile(ctx context.Context, storeID, filename string, data []byte) (assistant.StoreFile, error) {
	file, err := p.Client.CreateFileBytes(ctx, goopenai.FileBytesRequest{
		Name:    filename,
		Bytes:   data,
		Purpose: goopenai.PurposeAssistants,
	})
	if err != nil {
		return assistant.StoreFile{}, mapError("upload file", err)
	}

	attached, err := p.Client.CreateVectorStoreFile(ctx, storeID, goopenai.VectorStoreFileRequest{FileID: file.ID})
	if err != nil {
		// Do not leave an orphan file behind.
		_ = p.Client.DeleteFile(ctx, file.ID)
		return assistant.StoreFile{}, mapError("attach file to vector store", err)
	}
	return assistant.StoreFile{ID: attached.ID}, nil
}

func (p *OpenAIProvider) DeleteStoreFile(ctx context.Context, storeID, fileID string) error {
	return mapError("detach vector store file", p.Client.DeleteVectorStoreFile(ctx, storeID, fileID))
}

// --- Files ---

func (p *OpenAIProvider) ListFiles(ctx context.Context) ([]assistant.RemoteFile, error) {
	list, err := p.Client.ListFiles(ctx)
	if err != nil {
		return nil, mapError("list files", err)
	}
	out := make([]assistant.RemoteFile, 0, len(list.Files))
	for _, f := range list.Files {
		out = append(out, assistant.RemoteFile{ID: f.ID, Filename: f.FileName, Bytes: f.Bytes})
	}
	return out, nil
}

func (p *OpenAIProvider) RetrieveFile(ctx context.Context, fileID string) (assistant.RemoteFile, error) {
	f, err := p.Client.GetFile(ctx, fileID)
	if err != nil {
		return assistant.RemoteFile{}, mapError("retrieve file", err)
	}
	return assistant.RemoteFile{ID: f.ID, Filename: f.FileName, Bytes: f.Bytes}, nil
}

func (p *OpenAIProvider) DeleteFile(ctx context.Context, fileID string) error {
	return mapError("delete file", p.Client.DeleteFile(ctx, fileID))
}

// --- Threads, messages and runs ---

func (p *OpenAIProvider) CreateThread(ctx context.Context, spec assistant.ThreadSpec) (assistant.Thread, error) {
	req := goopenai.ThreadRequest{}
	if len(spec.VectorStoreIDs) > 0 {
		req.ToolResources = &goopenai.ToolResourcesRequest{
			FileSearch: &goopenai.FileSearchToolResourcesRequest{VectorStoreIDs: spec.VectorStoreIDs},
		}
	}
	t, err := p.Client.CreateThread(ctx, req)
	if err != nil {
		return assistant.Thread{}, mapError("create thread", err)
	}
	return assistant.Thread{ID: t.ID}, nil
}

func (p *OpenAIProvider) AddMessage(ctx context.Context, threadID, content string) (assistant.Message, error) {
	m, err := p.Client.CreateMessage(ctx, threadID, goopenai.MessageRequest{
		Role:    assistant.RoleUser,
		Content: content,
	})
	if err != nil {
		return assistant.Message{}, mapError("create message", err)
	}
	return toMessage(m), nil
}

func (p *OpenAIProvider) CreateRun(ctx context.Context, threadID, assistantID string) (assistant.Run, error) {
	r, err := p.Client.CreateRun(ctx, threadID, goopenai.RunRequest{AssistantID: assistantID})
	if err != nil {
		return assistant.Run{}, mapError("create run", err)
	}
	return toRun(r), nil
}

func (p *OpenAIProvider) RetrieveRun(ctx context.Context, threadID, runID string) (assistant.Run, error) {
	r, err := p.Client.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return assistant.Run{}, mapError("retrieve run", err)
	}
	return toRun(r), nil
}

func (p *OpenAIProvider) ListMessages(ctx context.Context, threadID string) ([]assistant.Message, error) {
	limit := pageSize
	order := "desc"
	list, err := p.Client.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return nil, mapError("list messages", err)
	}
	out := make([]assistant.Message, 0, len(list.Messages))
	for _, m := range list.Messages {
		out = append(out, toMessage(m))
	}
	return out, nil
}

func toRun(r goopenai.Run) assistant.Run {
	run := assistant.Run{
		ID:          r.ID,
		ThreadID:    r.ThreadID,
		AssistantID: r.AssistantID,
		Status:      assistant.RunStatus(r.Status),
	}
	if r.LastError != nil {
		run.LastError = r.LastError.Message
	}
	return run
}

// rawAnnotation decodes the loosely typed annotation payloads of the
// messages API.
type rawAnnotation struct {
	Type         string `json:"type"`
	Text         string `json:"text"`
	FileCitation *struct {
		FileID string `json:"file_id"`
	} `json:"file_citation,omitempty"`
	FilePath *struct {
		FileID string `json:"file_id"`
	} `json:"file_path,omitempty"`
}

func toMessage(m goopenai.Message) assistant.Message {
	msg := assistant.Message{
		ID:   m.ID,
		Role: m.Role,
	}
	if m.AssistantID != nil {
		msg.AssistantID = *m.AssistantID
	}

	// Only the first text block carries the reply, like the web client shows it.
	for _, content := range m.Content {
		if content.Text == nil {
			continue
		}
		msg.Text = content.Text.Value
		for _, raw := range content.Text.Annotations {
			payload, err := json.Marshal(raw)
			if err != nil {
				continue
			}
			var a rawAnnotation
			if err := json.Unmarshal(payload, &a); err != nil {
				continue
			}
			annotation := assistant.Annotation{Type: a.Type, Text: a.Text}
			switch {
			case a.FileCitation != nil:
				annotation.FileID = a.FileCitation.FileID
			case a.FilePath != nil:
				annotation.FileID = a.FilePath.FileID
			}
			msg.Annotations = append(msg.Annotations, annotation)
		}
		break
	}
	return msg
}
