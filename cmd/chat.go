package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/planner/internal/agent"
	"github.com/teemow/planner/internal/session"
)

const chatPrompt = "you> "

// runner is the part of the orchestrator the chat command drives.
type runner interface {
	Run(ctx context.Context, history []session.Message, sc *session.Context) (*agent.Result, error)
}

func newChatCmd() *cobra.Command {
	var showTrace bool

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the planner from the terminal",
		Long: `Talk to the planner from the terminal.

With a message argument, planner runs one request and prints the answer.
Without one, it starts an interactive session that keeps the conversation
until EOF (Ctrl-D) or "exit".

The Google credential is taken from --token, --adc or the account saved
by "planner auth login".`,
		Example: `  planner chat "schedule gym tomorrow at 6pm"
  planner chat --timezone Europe/Berlin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx := cmd.Context()

			credential, err := resolveCredential(ctx, cfg)
			if err != nil {
				return err
			}

			a, err := wireApp(ctx, cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer a.shutdown(context.WithoutCancel(ctx))

			c := &chatSession{
				runner:     a.orchestrator,
				credential: credential,
				timezone:   a.location.String(),
				out:        cmd.OutOrStdout(),
				showTrace:  showTrace,
			}
			if len(args) > 0 {
				return c.send(ctx, strings.Join(args, " "))
			}
			return c.loop(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().BoolVar(&showTrace, "show-trace", false, "Print tool results of each run")
	addModelFlags(cmd)
	addToolFlags(cmd)
	addCredentialFlags(cmd)

	return cmd
}

// chatSession keeps the user and assistant turns of one terminal
// conversation. Tool results stay inside each run.
type chatSession struct {
	runner     runner
	credential string
	timezone   string
	out        io.Writer
	showTrace  bool

	history []session.Message
}

func (c *chatSession) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, chatPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if err := c.send(ctx, line); err != nil {
			if ctx.Err() != nil {
				return err
			}
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

func (c *chatSession) send(ctx context.Context, text string) error {
	history := append(c.history, session.UserMessage(text))

	res, err := c.runner.Run(ctx, history, session.New(c.credential, c.timezone))
	if err != nil {
		return err
	}

	if c.showTrace {
		for _, m := range res.History[len(history):] {
			if m.Role == session.RoleToolResult {
				fmt.Fprintf(c.out, "  %s\n", m.Content)
			}
		}
	}
	fmt.Fprintf(c.out, "planner> %s\n", res.Answer)

	c.history = append(history, session.AssistantMessage(res.Answer))
	return nil
}
