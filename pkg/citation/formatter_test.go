package citation

import (
	"context"
	"errors"
	"testing"

	"ethics-review-be/pkg/assistant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver map[string]string

func (s stubResolver) RetrieveFile(ctx context.Context, fileID string) (assistant.RemoteFile, error) {
	name, ok := s[fileID]
	if !ok {
		return assistant.RemoteFile{}, errors.New("not found")
	}
	return assistant.RemoteFile{ID: fileID, Filename: name}, nil
}

func TestFormatTwoFileCitations(t *testing.T) {
	messages := []assistant.Message{
		{
			Role: assistant.RoleAssistant,
			Text: "Transparency applies【4:0†source】 and so does oversight【4:1†source】.",
			Annotations: []assistant.Annotation{
				{Type: assistant.AnnotationFileCitation, Text: "【4:0†source】", FileID: "file-a"},
				{Type: assistant.AnnotationFileCitation, Text: "【4:1†source】", FileID: "file-b"},
			},
		},
		{Role: assistant.RoleUser, Text: "Discuss."},
	}

	res := Format(context.Background(), messages, stubResolver{"file-a": "AI_Act.pdf", "file-b": "HLEG.pdf"})

	assert.Equal(t, "Transparency applies[0] and so does oversight[1].", res.Text)
	require.Len(t, res.Citations, 2)
	assert.Equal(t, Citation{Index: 0, FileID: "file-a", Filename: "AI_Act.pdf"}, res.Citations[0])
	assert.Equal(t, Citation{Index: 1, FileID: "file-b", Filename: "HLEG.pdf"}, res.Citations[1])
	assert.Equal(t, "[1] HLEG.pdf", res.Citations[1].String())
}

func TestFormatNonFileAnnotationIsReplacedButNotListed(t *testing.T) {
	messages := []assistant.Message{
		{
			Role: assistant.RoleAssistant,
			Text: "See chart【1†path】 and source【2†source】.",
			Annotations: []assistant.Annotation{
				{Type: assistant.AnnotationFilePath, Text: "【1†path】", FileID: "file-chart"},
				{Type: assistant.AnnotationFileCitation, Text: "【2†source】", FileID: "file-a"},
			},
		},
	}

	res := Format(context.Background(), messages, stubResolver{"file-a": "Charter.pdf"})

	assert.Equal(t, "See chart[0] and source[1].", res.Text)
	require.Len(t, res.Citations, 1)
	assert.Equal(t, 1, res.Citations[0].Index)
	assert.Equal(t, "Charter.pdf", res.Citations[0].Filename)
}

func TestFormatUsesFirstAssistantMessageOnly(t *testing.T) {
	messages := []assistant.Message{
		{Role: assistant.RoleUser, Text: "latest question"},
		{Role: assistant.RoleAssistant, Text: "  newest reply  "},
		{Role: assistant.RoleAssistant, Text: "older reply"},
	}

	res := Format(context.Background(), messages, nil)

	assert.Equal(t, "newest reply", res.Text)
	assert.Empty(t, res.Citations)
}

func TestFormatUnresolvedFileFallsBackToID(t *testing.T) {
	messages := []assistant.Message{
		{
			Role:        assistant.RoleAssistant,
			Text:        "Cited【x】",
			Annotations: []assistant.Annotation{{Type: assistant.AnnotationFileCitation, Text: "【x】", FileID: "file-missing"}},
		},
	}

	res := Format(context.Background(), messages, stubResolver{})

	require.Len(t, res.Citations, 1)
	assert.Equal(t, "file-missing", res.Citations[0].Filename)
	assert.Equal(t, 1, res.LookupErrors)
}

func TestFormatWithoutAssistantMessage(t *testing.T) {
	res := Format(context.Background(), []assistant.Message{{Role: assistant.RoleUser, Text: "hello"}}, nil)
	assert.Equal(t, Response{}, res)
}
