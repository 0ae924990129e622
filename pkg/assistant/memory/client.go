package memory

import (
	"context"
	"fmt"
	"sync"

	"ethics-review-be/pkg/assistant"

	"github.com/google/uuid"
)

// Reply is what a scripted assistant answers to a run.
type Reply struct {
	Text        string
	Annotations []assistant.Annotation
	Fail        bool
}

// Responder produces the reply of an assistant given the thread so far
// (oldest message first).
type Responder func(a assistant.Assistant, thread []assistant.Message) Reply

type runState struct {
	run         assistant.Run
	pendingPoll int
}

// Client is an in-process assistant backend. Runs are answered by
// responders registered per assistant name.
type Client struct {
	mu sync.Mutex

	assistants []assistant.Assistant
	stores     []assistant.VectorStore
	storeFiles map[string][]string
	files      map[string]assistant.RemoteFile
	fileOrder  []string
	threads    map[string][]assistant.Message
	runs       map[string]*runState

	responders       map[string]Responder
	defaultResponder Responder
	pendingPolls     int

	// Calls counts every API call by method name.
	Calls map[string]int
}

// Ensure Client implements assistant.Client
var _ assistant.Client = &Client{}

type Option func(*Client)

// WithResponder scripts the assistant with the given name.
func WithResponder(name string, r Responder) Option {
	return func(c *Client) {
		c.responders[name] = r
	}
}

// WithDefaultResponder scripts every assistant without its own responder.
func WithDefaultResponder(r Responder) Option {
	return func(c *Client) {
		c.defaultResponder = r
	}
}

// WithPendingPolls keeps each run pending for n status polls before it
// reaches a terminal status.
func WithPendingPolls(n int) Option {
	return func(c *Client) {
		c.pendingPolls = n
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		storeFiles: make(map[string][]string),
		files:      make(map[string]assistant.RemoteFile),
		threads:    make(map[string][]assistant.Message),
		runs:       make(map[string]*runState),
		responders: make(map[string]Responder),
		defaultResponder: func(a assistant.Assistant, thread []assistant.Message) Reply {
			return Reply{Text: fmt.Sprintf("%s has reviewed the discussion.", a.Name)}
		},
		Calls: make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetResponder replaces the responder of the named assistant.
func (c *Client) SetResponder(name string, r Responder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responders[name] = r
}

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func (c *Client) ListAssistants(ctx context.Context) ([]assistant.Assistant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["ListAssistants"]++
	out := make([]assistant.Assistant, len(c.assistants))
	copy(out, c.assistants)
	return out, nil
}

func (c *Client) CreateAssistant(ctx context.Context, spec assistant.AssistantSpec) (assistant.Assistant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["CreateAssistant"]++
	if spec.Model == "" {
		return assistant.Assistant{}, &assistant.APIError{StatusCode: 400, Message: "model is required"}
	}
	a := assistant.Assistant{
		ID:           newID("asst"),
		Name:         spec.Name,
		Instructions: spec.Instructions,
		Model:        spec.Model,
	}
	c.assistants = append(c.assistants, a)
	return a, nil
}

func (c *Client) RetrieveAssistant(ctx context.Context, assistantID string) (assistant.Assistant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["RetrieveAssistant"]++
	for _, a := range c.assistants {
		if a.ID == assistantID {
			return a, nil
		}
	}
	return assistant.Assistant{}, assistant.ErrNotFound
}

func (c *Client) DeleteAssistant(ctx context.Context, assistantID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["DeleteAssistant"]++
	for i, a := range c.assistants {
		if a.ID == assistantID {
			c.assistants = append(c.assistants[:i], c.assistants[i+1:]...)
			return nil
		}
	}
	return assistant.ErrNotFound
}

func (c *Client) ListVectorStores(ctx context.Context) ([]assistant.VectorStore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["ListVectorStores"]++
	out := make([]assistant.VectorStore, len(c.stores))
	copy(out, c.stores)
	return out, nil
}

func (c *Client) CreateVectorStore(ctx context.Context, name string) (assistant.VectorStore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["CreateVectorStore"]++
	vs := assistant.VectorStore{ID: newID("vs"), Name: name}
	c.stores = append(c.stores, vs)
	return vs, nil
}

func (c *Client) hasStore(storeID string) bool {
	for _, s := range c.stores {
		if s.ID == storeID {
			return true
		}
	}
	return false
}

func (c *Client) ListStoreFiles(ctx context.Context, storeID string) ([]assistant.StoreFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["ListStoreFiles"]++
	if !c.hasStore(storeID) {
		return nil, assistant.ErrNotFound
	}
	ids := c.storeFiles[storeID]
	out := make([]assistant.StoreFile, 0, len(ids))
	for _, id := range ids {
		out = append(out, assistant.StoreFile{ID: id})
	}
	return out, nil
}

func (c *Client) UploadStoreFile(ctx context.Context, storeID, filename string, data []byte) (assistant.StoreFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["UploadStoreFile"]++
	if !c.hasStore(storeID) {
		return assistant.StoreFile{}, assistant.ErrNotFound
	}
	f := assistant.RemoteFile{ID: newID("file"), Filename: filename, Bytes: len(data)}
	c.files[f.ID] = f
	c.fileOrder = append(c.fileOrder, f.ID)
	c.storeFiles[storeID] = append(c.storeFiles[storeID], f.ID)
	return assistant.StoreFile{ID: f.ID}, nil
}

func (c *Client) DeleteStoreFile(ctx context.Context, storeID, fileID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["DeleteStoreFile"]++
	ids := c.storeFiles[storeID]
	for i, id := range ids {
		if id == fileID {
			c.storeFiles[storeID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return assistant.ErrNotFound
}

func (c *Client) ListFiles(ctx context.Context) ([]assistant.RemoteFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["ListFiles"]++
	out := make([]assistant.RemoteFile, 0, len(c.fileOrder))
	for _, id := range c.fileOrder {
		out = append(out, c.files[id])
	}
	return out, nil
}

func (c *Client) RetrieveFile(ctx context.Context, fileID string) (assistant.RemoteFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["RetrieveFile"]++
	f, ok := c.files[fileID]
	if !ok {
		return assistant.RemoteFile{}, assistant.ErrNotFound
	}
	return f, nil
}

// DeleteFile removes the file and detaches it from every store, like the
// hosted API does.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["DeleteFile"]++
	if _, ok := c.files[fileID]; !ok {
		return assistant.ErrNotFound
	}
	delete(c.files, fileID)
	for i, id := range c.fileOrder {
		if id == fileID {
			c.fileOrder = append(c.fileOrder[:i], c.fileOrder[i+1:]...)
			break
		}
	}
	for storeID, ids := range c.storeFiles {
		kept := ids[:0]
		for _, id := range ids {
			if id != fileID {
				kept = append(kept, id)
			}
		}
		c.storeFiles[storeID] = kept
	}
	return nil
}

// AddFile registers a file without attaching it to any store, which is
// handy to seed citation lookups.
func (c *Client) AddFile(filename string) assistant.RemoteFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := assistant.RemoteFile{ID: newID("file"), Filename: filename}
	c.files[f.ID] = f
	c.fileOrder = append(c.fileOrder, f.ID)
	return f
}

func (c *Client) CreateThread(ctx context.Context, spec assistant.ThreadSpec) (assistant.Thread, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["CreateThread"]++
	t := assistant.Thread{ID: newID("thread")}
	c.threads[t.ID] = nil
	return t, nil
}

func (c *Client) AddMessage(ctx context.Context, threadID, content string) (assistant.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["AddMessage"]++
	if _, ok := c.threads[threadID]; !ok {
		return assistant.Message{}, assistant.ErrNotFound
	}
	m := assistant.Message{ID: newID("msg"), Role: assistant.RoleUser, Text: content}
	c.threads[threadID] = append(c.threads[threadID], m)
	return m, nil
}

func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string) (assistant.Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["CreateRun"]++
	if _, ok := c.threads[threadID]; !ok {
		return assistant.Run{}, assistant.ErrNotFound
	}
	found := false
	for _, a := range c.assistants {
		if a.ID == assistantID {
			found = true
			break
		}
	}
	if !found {
		return assistant.Run{}, assistant.ErrNotFound
	}

	state := &runState{
		run: assistant.Run{
			ID:          newID("run"),
			ThreadID:    threadID,
			AssistantID: assistantID,
			Status:      assistant.RunQueued,
		},
		pendingPoll: c.pendingPolls,
	}
	c.runs[state.run.ID] = state
	if state.pendingPoll == 0 {
		c.finishLocked(state)
	}
	return state.run, nil
}

func (c *Client) RetrieveRun(ctx context.Context, threadID, runID string) (assistant.Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["RetrieveRun"]++
	state, ok := c.runs[runID]
	if !ok || state.run.ThreadID != threadID {
		return assistant.Run{}, assistant.ErrNotFound
	}
	if !state.run.Status.Terminal() {
		if state.pendingPoll > 0 {
			state.pendingPoll--
			state.run.Status = assistant.RunInProgress
		}
		if state.pendingPoll == 0 {
			c.finishLocked(state)
		}
	}
	return state.run, nil
}

func (c *Client) finishLocked(state *runState) {
	var a assistant.Assistant
	for _, candidate := range c.assistants {
		if candidate.ID == state.run.AssistantID {
			a = candidate
			break
		}
	}

	responder, ok := c.responders[a.Name]
	if !ok {
		responder = c.defaultResponder
	}
	history := make([]assistant.Message, len(c.threads[state.run.ThreadID]))
	copy(history, c.threads[state.run.ThreadID])

	reply := responder(a, history)
	if reply.Fail {
		state.run.Status = assistant.RunFailed
		state.run.LastError = "scripted failure"
		return
	}

	c.threads[state.run.ThreadID] = append(c.threads[state.run.ThreadID], assistant.Message{
		ID:          newID("msg"),
		Role:        assistant.RoleAssistant,
		AssistantID: a.ID,
		Text:        reply.Text,
		Annotations: reply.Annotations,
	})
	state.run.Status = assistant.RunCompleted
}

func (c *Client) ListMessages(ctx context.Context, threadID string) ([]assistant.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["ListMessages"]++
	msgs, ok := c.threads[threadID]
	if !ok {
		return nil, assistant.ErrNotFound
	}
	out := make([]assistant.Message, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		out = append(out, msgs[i])
	}
	return out, nil
}

// LiveAssistants returns the names of every live assistant, in creation order.
func (c *Client) LiveAssistants() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.assistants))
	for _, a := range c.assistants {
		names = append(names, a.Name)
	}
	return names
}

// StoreFilenames returns the filenames attached to the store.
func (c *Client) StoreFilenames(storeID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0)
	for _, id := range c.storeFiles[storeID] {
		names = append(names, c.files[id].Filename)
	}
	return names
}
