package assistant

// Tool names understood by the remote assistant runtime.
const (
	ToolFileSearch      = "file_search"
	ToolCodeInterpreter = "code_interpreter"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Annotation types attached to assistant text.
const (
	AnnotationFileCitation = "file_citation"
	AnnotationFilePath     = "file_path"
)

type Assistant struct {
	ID           string
	Name         string
	Instructions string
	Model        string
}

// AssistantSpec describes an assistant to create.
type AssistantSpec struct {
	Name           string
	Description    string
	Instructions   string
	Model          string
	Tools          []string
	VectorStoreIDs []string
	Temperature    *float32
	TopP           *float32
}

type VectorStore struct {
	ID   string
	Name string
}

// StoreFile is a file attached to a vector store. It carries no filename,
// the name lives on the global file object.
type StoreFile struct {
	ID string
}

type RemoteFile struct {
	ID       string
	Filename string
	Bytes    int
}

type Thread struct {
	ID string
}

type ThreadSpec struct {
	VectorStoreIDs []string
}

type Message struct {
	ID          string
	Role        string
	AssistantID string
	Text        string
	Annotations []Annotation
}

// Annotation marks a span of message text produced by a tool call.
type Annotation struct {
	Type   string
	Text   string
	FileID string
}

// IsFileCitation reports whether the annotation references a source document.
func (a Annotation) IsFileCitation() bool {
	return a.Type == AnnotationFileCitation && a.FileID != ""
}

type RunStatus string

const (
	RunQueued         RunStatus = "queued"
	RunInProgress     RunStatus = "in_progress"
	RunRequiresAction RunStatus = "requires_action"
	RunCancelling     RunStatus = "cancelling"
	RunCompleted      RunStatus = "completed"
	RunFailed         RunStatus = "failed"
	RunCancelled      RunStatus = "cancelled"
	RunExpired        RunStatus = "expired"
)

// Terminal reports whether the run will not change status anymore.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCancelled, RunExpired:
		return true
	}
	return false
}

type Run struct {
	ID          string
	ThreadID    string
	AssistantID string
	Status      RunStatus
	LastError   string
}
