package command

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"orbit/app/core/habits"
	"orbit/app/core/mood"
	"orbit/app/core/persona"
	"orbit/app/core/reconcile"
	"orbit/app/core/task"
)

// Executor handles slash commands so the dashboard stays usable without a
// generation backend. Commands operate on local state only.
type Executor struct {
	store      *task.Store
	moods      *mood.Log
	sessions   *persona.Sessions
	habitModel *habits.Model
	reconciler *reconcile.Reconciler

	statusProvider func() map[string]interface{}
}

func NewExecutor(store *task.Store, moods *mood.Log, sessions *persona.Sessions, habitModel *habits.Model, reconciler *reconcile.Reconciler) *Executor {
	return &Executor{
		store:      store,
		moods:      moods,
		sessions:   sessions,
		habitModel: habitModel,
		reconciler: reconciler,
	}
}

// SetStatusProvider adds runtime details to /status.
func (e *Executor) SetStatusProvider(provider func() map[string]interface{}) {
	e.statusProvider = provider
}

// ExecuteSlash dispatches a "/..." input. The second return reports whether
// the input was recognized as a command at all.
func (e *Executor) ExecuteSlash(personaID, content string) (string, bool, error) {
	cmd := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(content), "/"))
	if cmd == "" {
		return "", false, nil
	}
	parts := strings.Fields(cmd)
	switch parts[0] {
	case "help":
		return e.helpText(), true, nil
	case "tasks":
		return e.listTasks(parts[1:]), true, nil
	case "task":
		out, err := e.executeTaskCommand(parts[1:])
		return out, true, err
	case "mood":
		out, err := e.recordMood(parts[1:])
		return out, true, err
	case "moods":
		return e.listMoods(), true, nil
	case "actions":
		out, err := e.listActions(personaID)
		return out, true, err
	case "approve":
		out, err := e.resolveAction(personaID, parts[1:], true)
		return out, true, err
	case "dismiss":
		out, err := e.resolveAction(personaID, parts[1:], false)
		return out, true, err
	case "habits":
		return e.habitSummary(), true, nil
	case "persona":
		return e.listPersonas(personaID), true, nil
	case "status":
		return e.statusText(), true, nil
	default:
		return "", true, fmt.Errorf("unknown command: %s", parts[0])
	}
}

func (e *Executor) helpText() string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	b.WriteString("  /help\n")
	b.WriteString("Tasks:\n")
	b.WriteString("  /tasks [todo|done|pending|all]\n")
	b.WriteString("  /task add <title>\n")
	b.WriteString("  /task done <id>\n")
	b.WriteString("  /task rm <id>\n")
	b.WriteString("Mood:\n")
	b.WriteString("  /mood <1-10> [tags...]\n")
	b.WriteString("  /moods\n")
	b.WriteString("Proposals:\n")
	b.WriteString("  /actions\n")
	b.WriteString("  /approve <n>\n")
	b.WriteString("  /dismiss <n>\n")
	b.WriteString("Insights:\n")
	b.WriteString("  /habits\n")
	b.WriteString("  /persona\n")
	b.WriteString("  /status\n")
	return strings.TrimSpace(b.String())
}

func (e *Executor) listPersonas(activeID string) string {
	var b strings.Builder
	for _, id := range e.sessions.IDs() {
		sess, ok := e.sessions.Get(id)
		if !ok {
			continue
		}
		marker := " "
		if id == activeID {
			marker = "*"
		}
		b.WriteString(fmt.Sprintf("%s %s  %s - %s\n", marker, id, sess.Persona().Name, sess.Persona().Description))
	}
	return strings.TrimSpace(b.String())
}

func (e *Executor) statusText() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Tasks: %d\n", e.store.Count()))
	b.WriteString(fmt.Sprintf("Mood samples: %d\n", e.moods.Len()))
	if e.statusProvider != nil {
		keys := make([]string, 0)
		runtime := e.statusProvider()
		for k := range runtime {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("%s: %v\n", k, runtime[k]))
		}
	}
	return strings.TrimSpace(b.String())
}

func (e *Executor) listTasks(args []string) string {
	filter := "all"
	if len(args) > 0 {
		filter = strings.ToLower(args[0])
	}
	all := e.store.Snapshot()
	shown := make([]task.Task, 0, len(all))
	for _, t := range all {
		switch filter {
		case "todo":
			if t.Status != task.StatusTodo && t.Status != task.StatusInProgress {
				continue
			}
		case "done":
			if t.Status != task.StatusDone {
				continue
			}
		case "pending":
			if t.Status != task.StatusPendingReschedule {
				continue
			}
		}
		shown = append(shown, t)
	}
	if len(shown) == 0 {
		return "No tasks."
	}
	sort.SliceStable(shown, func(i, j int) bool {
		return shown[i].CreatedAt.Before(shown[j].CreatedAt)
	})
	var b strings.Builder
	for _, t := range shown {
		due := "-"
		if t.DueTime != nil {
			due = t.DueTime.Format("2006-01-02 15:04")
		}
		b.WriteString(fmt.Sprintf("%s  [%-18s] %-8s due=%s %dm  %s\n",
			shortID(t.ID), t.Status, t.Category, due, t.DurationMinutes, t.Title))
	}
	return strings.TrimSpace(b.String())
}

func (e *Executor) executeTaskCommand(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: /task add|done|rm ...")
	}
	switch args[0] {
	case "add":
		title := strings.TrimSpace(strings.Join(args[1:], " "))
		p := task.Patch{}
		if title != "" {
			p.Title = &title
		}
		created := e.store.Add(p)
		return fmt.Sprintf("Added %s: %s", shortID(created.ID), created.Title), nil
	case "done":
		if len(args) < 2 {
			return "", fmt.Errorf("usage: /task done <id>")
		}
		t, err := e.findTask(args[1])
		if err != nil {
			return "", err
		}
		toggled, _ := e.store.Toggle(t.ID)
		return fmt.Sprintf("%s is now %s", shortID(toggled.ID), toggled.Status), nil
	case "rm":
		if len(args) < 2 {
			return "", fmt.Errorf("usage: /task rm <id>")
		}
		t, err := e.findTask(args[1])
		if err != nil {
			return "", err
		}
		e.store.Delete(t.ID)
		return fmt.Sprintf("Removed %s: %s", shortID(t.ID), t.Title), nil
	default:
		return "", fmt.Errorf("unknown task command: %s", args[0])
	}
}

// findTask resolves a full ID or an unambiguous prefix.
func (e *Executor) findTask(ref string) (task.Task, error) {
	ref = task.NormalizeID(ref)
	if ref == "" {
		return task.Task{}, fmt.Errorf("empty task id")
	}
	if t, ok := e.store.Get(ref); ok {
		return t, nil
	}
	var matches []task.Task
	for _, t := range e.store.Snapshot() {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return task.Task{}, fmt.Errorf("no task matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return task.Task{}, fmt.Errorf("task id %q is ambiguous (%d matches)", ref, len(matches))
	}
}

func (e *Executor) recordMood(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: /mood <1-10> [tags...]")
	}
	score, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("mood score must be a number: %q", args[0])
	}
	entry := e.moods.Append(mood.Entry{
		Date:  time.Now().Format("2006-01-02"),
		Score: score,
		Tags:  args[1:],
	})
	return fmt.Sprintf("Logged mood %d/10 for %s", entry.Score, entry.Date), nil
}

func (e *Executor) listMoods() string {
	recent := e.moods.Recent(7)
	if len(recent) == 0 {
		return "No mood samples recorded yet."
	}
	var b strings.Builder
	for _, m := range recent {
		line := fmt.Sprintf("%s  %2d/10", m.Date, m.Score)
		if len(m.Tags) > 0 {
			line += "  " + strings.Join(m.Tags, ",")
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimSpace(b.String())
}

func (e *Executor) listActions(personaID string) (string, error) {
	sess, ok := e.sessions.Get(personaID)
	if !ok {
		return "", fmt.Errorf("unknown persona: %s", personaID)
	}
	pending := sess.PendingActions()
	if len(pending) == 0 {
		return "No pending proposals.", nil
	}
	var b strings.Builder
	for i, p := range pending {
		b.WriteString(fmt.Sprintf("%d. %s", i+1, p.Action.Kind))
		if p.Action.TaskID != "" {
			b.WriteString(" " + shortID(p.Action.TaskID))
		}
		if p.Action.Data.Title != nil {
			b.WriteString(fmt.Sprintf(" %q", *p.Action.Data.Title))
		}
		if p.Action.Reason != "" {
			b.WriteString(" - " + p.Action.Reason)
		}
		b.WriteString("\n")
	}
	b.WriteString("Use /approve <n> or /dismiss <n>.")
	return strings.TrimSpace(b.String()), nil
}

func (e *Executor) resolveAction(personaID string, args []string, approve bool) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: /approve <n> or /dismiss <n>")
	}
	sess, ok := e.sessions.Get(personaID)
	if !ok {
		return "", fmt.Errorf("unknown persona: %s", personaID)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return "", fmt.Errorf("proposal number must be a positive integer: %q", args[0])
	}
	pending := sess.PendingActions()
	if n > len(pending) {
		return "", fmt.Errorf("no proposal %d, only %d pending", n, len(pending))
	}
	target := pending[n-1]
	act, ok := sess.TakeAction(target.MessageID, target.Action.ID)
	if !ok {
		return "", fmt.Errorf("proposal %d was already resolved", n)
	}
	if !approve {
		return fmt.Sprintf("Dismissed %s proposal.", act.Kind), nil
	}
	outcome := e.reconciler.Apply(act)
	if !outcome.Applied {
		return fmt.Sprintf("%s had no effect, the task no longer exists.", act.Kind), nil
	}
	return fmt.Sprintf("Applied %s on %s.", outcome.Kind, shortID(outcome.TaskID)), nil
}

func (e *Executor) habitSummary() string {
	snap := e.habitModel.Snapshot()
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Preferred duration: %d minutes\n", snap.PreferredDuration))
	if len(snap.PreferredCategories) > 0 {
		b.WriteString("Preferred categories: " + strings.Join(snap.PreferredCategories, ", ") + "\n")
	}
	b.WriteString("Communication style: " + snap.CommunicationStyle + "\n")
	if len(snap.RecentPatterns) > 0 {
		b.WriteString("Recent patterns: " + strings.Join(snap.RecentPatterns, ", ") + "\n")
	}
	return strings.TrimSpace(b.String())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
