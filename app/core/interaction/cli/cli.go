package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"orbit/app/core/persona"
	"orbit/app/core/reconcile"
	"orbit/app/pkg/types"
)

// Channel is the interactive terminal surface. One persona is active at a
// time; "@companion" and "@ideal_self" switch between them.
type Channel struct {
	id       string
	personas *persona.Sessions
	active   string
	in       io.Reader
	out      io.Writer
}

func NewChannel(personas *persona.Sessions) *Channel {
	return &Channel{
		id:       "cli",
		personas: personas,
		active:   persona.Companion,
		in:       os.Stdin,
		out:      os.Stdout,
	}
}

func (c *Channel) ID() string {
	return c.id
}

func (c *Channel) Start(ctx context.Context, handle func(context.Context, types.Message) (types.Message, error)) error {
	scanner := bufio.NewScanner(c.in)
	fmt.Fprintln(c.out, ">> Orbit started. Talk to your companion, @<persona> switches, 'exit' quits, /help lists commands.")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		fmt.Fprintf(c.out, "[%s] > ", c.active)
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			fmt.Fprintln(c.out, "Until next time.")
			return nil
		}
		if strings.HasPrefix(text, "@") {
			c.switchPersona(strings.TrimPrefix(text, "@"))
			continue
		}

		msg := types.Message{
			ID:        fmt.Sprintf("cli-%d", time.Now().UnixNano()),
			PersonaID: c.active,
			Role:      types.RoleUser,
			Text:      text,
		}
		reply, err := handle(ctx, msg)
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
			continue
		}
		c.render(reply)
	}
}

func (c *Channel) switchPersona(raw string) {
	id := persona.NormalizeID(raw)
	sess, ok := c.personas.Get(id)
	if !ok {
		fmt.Fprintf(c.out, "Unknown persona %q, available: %s\n", raw, strings.Join(c.personas.IDs(), ", "))
		return
	}
	c.active = sess.Persona().ID
	fmt.Fprintf(c.out, "Now talking to %s.\n", sess.Persona().Name)
}

func (c *Channel) render(reply types.Message) {
	name := reply.PersonaID
	if sess, ok := c.personas.Get(reply.PersonaID); ok {
		name = sess.Persona().Name
	}
	fmt.Fprintf(c.out, "[%s]: %s\n", name, reply.Text)

	actions, _ := reply.Meta["suggestedActions"].([]reconcile.Action)
	for i, a := range actions {
		line := fmt.Sprintf("  proposal %d: %s", i+1, a.Kind)
		if a.Data.Title != nil {
			line += fmt.Sprintf(" %q", *a.Data.Title)
		}
		if a.Reason != "" {
			line += " (" + a.Reason + ")"
		}
		fmt.Fprintln(c.out, line)
	}
	if len(actions) > 0 {
		fmt.Fprintln(c.out, "  use /approve <n> or /dismiss <n>")
	}
}

// Notify prints an out-of-band line, used for completion celebrations.
func (c *Channel) Notify(text string) {
	fmt.Fprintln(c.out, text)
}
