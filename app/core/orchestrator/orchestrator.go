package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	config "orbit/app/configs"
	"orbit/app/core/habits"
	"orbit/app/core/llm"
	"orbit/app/core/mood"
	"orbit/app/core/orchestrator/command"
	"orbit/app/core/persona"
	"orbit/app/core/reconcile"
	"orbit/app/core/task"
	"orbit/app/pkg/logger"
	"orbit/app/pkg/types"
)

// FallbackText is shown when generation or parsing fails. The user turn is
// already committed by then, so the conversation stays coherent.
const FallbackText = "I'm having trouble connecting to my thought process right now. But I'm here listening."

const unconfiguredText = "The agent backend is not configured. Set the model API key to enable replies, or use /help for local commands."

type Options struct {
	Sessions   *persona.Sessions
	Store      *task.Store
	Moods      *mood.Log
	Habits     *habits.Model
	Reconciler *reconcile.Reconciler
	Generator  llm.Generator // nil disables generation
	User       config.UserConfig
	MoodWindow int
	Timeout    time.Duration
}

// Orchestrator runs the send-message flow: commit the user turn, assemble
// the dashboard snapshot, call the generator, parse and attach proposals.
type Orchestrator struct {
	sessions   *persona.Sessions
	store      *task.Store
	moods      *mood.Log
	habits     *habits.Model
	reconciler *reconcile.Reconciler
	generator  llm.Generator
	command    *command.Executor

	user       config.UserConfig
	loc        *time.Location
	moodWindow int
	timeout    time.Duration

	// one in-flight generation per persona
	sendMu map[string]*sync.Mutex
}

func New(opts Options) *Orchestrator {
	loc, err := time.LoadLocation(strings.TrimSpace(opts.User.Timezone))
	if err != nil {
		logger.Error("[Orchestrator] bad timezone %q, using UTC: %v", opts.User.Timezone, err)
		loc = time.UTC
	}
	if opts.MoodWindow <= 0 {
		opts.MoodWindow = 14
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	o := &Orchestrator{
		sessions:   opts.Sessions,
		store:      opts.Store,
		moods:      opts.Moods,
		habits:     opts.Habits,
		reconciler: opts.Reconciler,
		generator:  opts.Generator,
		user:       opts.User,
		loc:        loc,
		moodWindow: opts.MoodWindow,
		timeout:    opts.Timeout,
		sendMu:     make(map[string]*sync.Mutex),
	}
	o.command = command.NewExecutor(opts.Store, opts.Moods, opts.Sessions, opts.Habits, opts.Reconciler)
	for _, id := range opts.Sessions.IDs() {
		o.sendMu[id] = &sync.Mutex{}
	}
	return o
}

// SetStatusProvider adds runtime details to the /status command.
func (o *Orchestrator) SetStatusProvider(provider func() map[string]interface{}) {
	o.command.SetStatusProvider(provider)
}

// SendMessage commits the user turn, generates a reply for the persona and
// appends it to the session. Generation failures never surface as errors;
// they produce a fallback model turn instead.
func (o *Orchestrator) SendMessage(ctx context.Context, personaID, text string) (persona.Message, error) {
	sess, ok := o.sessions.Get(personaID)
	if !ok {
		return persona.Message{}, fmt.Errorf("unknown persona: %s", personaID)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return persona.Message{}, fmt.Errorf("empty message")
	}

	mu := o.sendMu[sess.Persona().ID]
	mu.Lock()
	defer mu.Unlock()

	sess.AppendUser(text)
	sess.SetAwaiting(true)
	defer sess.SetAwaiting(false)

	if o.generator == nil {
		return sess.AppendModel(unconfiguredText, nil), nil
	}

	prompt := o.buildSystemPrompt(sess.Persona())
	genCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	raw, err := o.generator.Generate(genCtx, prompt, text)
	if err != nil {
		logger.Error("[Orchestrator] generation failed persona=%s: %v", sess.Persona().ID, err)
		return sess.AppendModel(FallbackText, nil), nil
	}

	reply, err := reconcile.ParseReply(raw)
	if err != nil {
		logger.Error("[Orchestrator] unparseable reply persona=%s: %v", sess.Persona().ID, err)
		return sess.AppendModel(FallbackText, nil), nil
	}

	msg := sess.AppendModel(reply.Text, reply.Actions)
	o.habits.Observe(text, reply.Actions)
	if len(reply.Actions) > 0 {
		logger.Info("[Orchestrator] persona=%s proposed %d action(s)", sess.Persona().ID, len(reply.Actions))
	}
	return msg, nil
}

// Approve resolves one pending proposal and applies it to the task store.
func (o *Orchestrator) Approve(personaID, messageID, actionID string) (reconcile.Outcome, error) {
	act, err := o.takeAction(personaID, messageID, actionID)
	if err != nil {
		return reconcile.Outcome{}, err
	}
	outcome := o.reconciler.Apply(act)
	logger.Info("[Orchestrator] approved %s persona=%s applied=%v", act.Kind, personaID, outcome.Applied)
	return outcome, nil
}

// Dismiss resolves one pending proposal without applying it.
func (o *Orchestrator) Dismiss(personaID, messageID, actionID string) error {
	_, err := o.takeAction(personaID, messageID, actionID)
	return err
}

func (o *Orchestrator) takeAction(personaID, messageID, actionID string) (reconcile.Action, error) {
	sess, ok := o.sessions.Get(personaID)
	if !ok {
		return reconcile.Action{}, fmt.Errorf("unknown persona: %s", personaID)
	}
	act, ok := sess.TakeAction(messageID, actionID)
	if !ok {
		return reconcile.Action{}, fmt.Errorf("proposal not found or already resolved")
	}
	return act, nil
}

// Process adapts the orchestrator to the channel pipeline. Slash commands
// are served locally; everything else goes through SendMessage.
func (o *Orchestrator) Process(ctx context.Context, msg types.Message) (types.Message, error) {
	personaID := persona.NormalizeID(msg.PersonaID)
	if personaID == "" {
		personaID = persona.Companion
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return types.Message{}, fmt.Errorf("empty message")
	}

	if strings.HasPrefix(text, "/") {
		out, handled, err := o.command.ExecuteSlash(personaID, text)
		if handled {
			if err != nil {
				out = fmt.Sprintf("Command failed: %v", err)
			}
			return o.newReply(personaID, "", out, nil), nil
		}
	}

	reply, err := o.SendMessage(ctx, personaID, text)
	if err != nil {
		return types.Message{}, err
	}
	return o.newReply(personaID, reply.ID, reply.Text, reply.Actions), nil
}

func (o *Orchestrator) newReply(personaID, messageID, text string, actions []reconcile.Action) types.Message {
	reply := types.Message{
		ID:        messageID,
		PersonaID: personaID,
		Role:      types.RoleModel,
		Text:      text,
	}
	if len(actions) > 0 {
		reply.Meta = map[string]interface{}{"suggestedActions": actions}
	}
	return reply
}
