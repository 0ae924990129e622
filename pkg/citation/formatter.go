package citation

import (
	"context"
	"fmt"
	"strings"

	"ethics-review-be/pkg/assistant"
)

// FileResolver resolves a cited file id to its remote file.
type FileResolver interface {
	RetrieveFile(ctx context.Context, fileID string) (assistant.RemoteFile, error)
}

// Citation maps a bracketed marker index to the cited source document.
type Citation struct {
	Index    int    `json:"index"`
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
}

func (c Citation) String() string {
	return fmt.Sprintf("[%d] %s", c.Index, c.Filename)
}

// Response is an assistant reply with citation markers in place.
type Response struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations,omitempty"`
	// LookupErrors counts citations whose filename could not be resolved.
	LookupErrors int `json:"-"`
}

// Marker is the inline replacement of the annotation at index i.
func Marker(i int) string {
	return fmt.Sprintf("[%d]", i)
}

// FirstAssistantMessage returns the first assistant-authored message with
// text. Messages come newest first, so this is the latest reply.
func FirstAssistantMessage(messages []assistant.Message) (assistant.Message, bool) {
	for _, m := range messages {
		if m.Role == assistant.RoleAssistant && m.Text != "" {
			return m, true
		}
	}
	return assistant.Message{}, false
}

// Format rewrites the first assistant message: every annotated span is
// replaced by its bracketed index, in annotation order. Only file citations
// contribute to the citation list; other annotation kinds are replaced
// inline and dropped from it. A filename that cannot be resolved falls
// back to the file id.
func Format(ctx context.Context, messages []assistant.Message, resolver FileResolver) Response {
	msg, ok := FirstAssistantMessage(messages)
	if !ok {
		return Response{}
	}

	text := msg.Text
	res := Response{}
	for i, a := range msg.Annotations {
		if a.Text != "" {
			text = strings.ReplaceAll(text, a.Text, Marker(i))
		}
		if !a.IsFileCitation() {
			continue
		}

		c := Citation{Index: i, FileID: a.FileID, Filename: a.FileID}
		if resolver != nil {
			if f, err := resolver.RetrieveFile(ctx, a.FileID); err == nil && f.Filename != "" {
				c.Filename = f.Filename
			} else {
				res.LookupErrors++
			}
		}
		res.Citations = append(res.Citations, c)
	}

	res.Text = strings.TrimSpace(text)
	return res
}
