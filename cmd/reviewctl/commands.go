package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ethics-review-be/internal/bootstrap"
	"ethics-review-be/pkg/events"
	pktNats "ethics-review-be/pkg/nats"
	"ethics-review-be/pkg/persona"
)

// --- sync ---

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upload the source PDFs to the vector store",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		c, err := openContainer(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		report, err := c.AdminService.SyncDocuments(cmd.Context(), dir)
		if err != nil {
			return err
		}
		for _, name := range report.Uploaded {
			printSuccess("uploaded %s", name)
		}
		for _, name := range report.Replaced {
			printSuccess("replaced %s", name)
		}
		for _, f := range report.Failed {
			printWarning("%s: %s", f.Filename, f.Error)
		}
		printSuccess("%d uploaded, %d replaced, %d unchanged, %d failed",
			len(report.Uploaded), len(report.Replaced), len(report.Unchanged), len(report.Failed))
		return nil
	},
}

func init() {
	syncCmd.Flags().String("dir", "", "directory holding the PDFs (defaults to PDF_DIR)")
}

// --- classify ---

var classifyCmd = &cobra.Command{
	Use:   "classify <description>",
	Short: "Classify a system description into an EU AI Act risk tier",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openContainer(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		assessment, err := c.RiskService.Assess(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		verdict := assessment.ToEntity()
		printVerdict(&verdict)
		return nil
	},
}

// --- review ---

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run a full review: risk verdict, then the agent conversation",
	Long: `Run a full review in the terminal.

Examples:
  reviewctl review --description "A CV screening tool" --rounds 2 \
    --agent "Developer=agent_role_examples/developer.txt"
  reviewctl review --description "..." --elaborate --out conversation_history.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		rounds, _ := cmd.Flags().GetInt("rounds")
		agentSpecs, _ := cmd.Flags().GetStringArray("agent")
		elaborate, _ := cmd.Flags().GetBool("elaborate")
		out, _ := cmd.Flags().GetString("out")

		if strings.TrimSpace(description) == "" {
			return fmt.Errorf("--description is required")
		}
		agents, err := parseAgentSpecs(agentSpecs)
		if err != nil {
			return err
		}

		c, err := openContainer(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		return runReview(cmd.Context(), c, description, rounds, agents, elaborate, out)
	},
}

func init() {
	reviewCmd.Flags().String("description", "", "description of the AI system under review")
	reviewCmd.Flags().Int("rounds", 1, "number of conversation rounds")
	reviewCmd.Flags().StringArray("agent", nil, "agent as name=role-file.txt (repeatable)")
	reviewCmd.Flags().Bool("elaborate", false, "ask the AI Ethicist to elaborate on a prohibiting verdict")
	reviewCmd.Flags().String("out", "", "write the conversation history to this file")
}

type agentSpec struct {
	Name string
	Role string
}

func parseAgentSpecs(specs []string) ([]agentSpec, error) {
	agents := make([]agentSpec, 0, len(specs))
	for _, s := range specs {
		name, path, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("invalid --agent %q, expected name=role-file.txt", s)
		}
		role, err := persona.ReadRoleFile(strings.TrimSpace(path))
		if err != nil {
			return nil, err
		}
		agents = append(agents, agentSpec{Name: strings.TrimSpace(name), Role: role})
	}
	return agents, nil
}

func runReview(ctx context.Context, c *bootstrap.Container, description string, rounds int, agents []agentSpec, elaborate bool, out string) error {
	sess, err := c.SessionService.Create(ctx)
	if err != nil {
		return err
	}
	// Ending the session deletes the agents created for it.
	defer func() {
		if err := c.SessionService.End(context.Background(), sess.Id); err != nil {
			printWarning("ending session: %v", err)
		}
	}()

	for _, a := range agents {
		if _, err := c.SessionService.AddAgent(ctx, sess, a.Name, a.Role); err != nil {
			return err
		}
		printSuccess("added %s", a.Name)
	}

	verdict, reviewErr := c.ConversationService.Review(ctx, sess, description, rounds)
	if verdict != nil {
		printVerdict(verdict)
	}
	for _, e := range sess.Transcript {
		printEntry(e)
	}
	if reviewErr != nil {
		return reviewErr
	}

	if verdict.Blocking {
		printWarning("the conversation is blocked for unacceptable-risk systems")
		if elaborate {
			entry, err := c.ConversationService.Elaborate(ctx, sess)
			if err != nil {
				return err
			}
			printEntry(*entry)
		}
	}

	if out != "" {
		if err := os.WriteFile(out, []byte(c.ExportService.Export(sess)), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		printSuccess("history written to %s", out)
	}
	return nil
}

// --- purge-agents ---

var purgeAgentsCmd = &cobra.Command{
	Use:   "purge-agents",
	Short: "Delete every assistant on the remote account",
	RunE: func(cmd *cobra.Command, args []string) error {
		keepReserved, _ := cmd.Flags().GetBool("keep-reserved")

		c, err := openContainer(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		deleted, err := c.AdminService.PurgeAgents(cmd.Context(), keepReserved)
		if err != nil {
			return err
		}
		printSuccess("deleted %d assistants", deleted)
		return nil
	},
}

func init() {
	purgeAgentsCmd.Flags().Bool("keep-reserved", false, "keep the AI Ethicist and the risk classifier")
}

// --- events ---

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail review events from NATS",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		c, err := openContainer(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		if c.NatsSubscriber == nil {
			return fmt.Errorf("NATS_URL is not set or NATS is unreachable")
		}
		printSuccess("listening on %s>", pktNats.SubjectPrefix)
		return c.NatsSubscriber.Subscribe(cmd.Context(), pktNats.SubjectPrefix+">", "", func(_ context.Context, event events.Event) error {
			return printEvent(event, asJSON)
		})
	},
}

func init() {
	eventsCmd.Flags().Bool("json", false, "print events as JSON lines")
}

func printEvent(event events.Event, asJSON bool) error {
	if asJSON {
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	color.New(color.Faint).Printf("%s ", event.Timestamp().Format(time.RFC3339))
	color.New(color.FgCyan, color.Bold).Printf("%s", event.EventType())
	for k, v := range event.Payload() {
		fmt.Printf(" %s=%v", k, v)
	}
	fmt.Println()
	return nil
}
