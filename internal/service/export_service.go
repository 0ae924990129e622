package service

import (
	"strings"

	"ethics-review-be/internal/entity"
)

// ExportFilename is the name offered for the downloaded transcript.
const ExportFilename = "conversation_history.txt"

type IExportService interface {
	// Export renders the session as the plain-text conversation history.
	Export(sess *entity.ReviewSession) string
}

type exportService struct{}

func NewExportService() IExportService {
	return &exportService{}
}

func (s *exportService) Export(sess *entity.ReviewSession) string {
	var b strings.Builder

	b.WriteString("Project Description:\n")
	b.WriteString(sess.Description)
	b.WriteString("\n\n")

	b.WriteString("Agents:\n")
	for _, agent := range sess.Agents {
		if entity.IsEthicistName(agent.Name) {
			continue
		}
		b.WriteString("Name: " + agent.Name + "\n")
		b.WriteString("Instructions: " + agent.Role + "\n\n")
	}

	b.WriteString("Conversation History:\n")
	for _, entry := range sess.Transcript {
		b.WriteString(entry.Line())
		b.WriteString("\n")
	}

	return b.String()
}
