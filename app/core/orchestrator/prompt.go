package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/sjson"

	"orbit/app/core/persona"
)

func (o *Orchestrator) buildSystemPrompt(p persona.Persona) string {
	var b strings.Builder
	b.WriteString("You are an intelligent holistic life architect speaking as \"")
	b.WriteString(p.Name)
	b.WriteString("\".\n")
	b.WriteString(p.SystemInstruction)
	b.WriteString("\n\n=== CURRENT CONTEXT ===\n")
	b.WriteString(o.contextSnapshot())
	b.WriteString("\n\n=== TASK MANAGEMENT RULES ===\n")
	b.WriteString("- When the user wants to plan, change or drop something, propose actions instead of pretending you changed anything.\n")
	b.WriteString("- Action types: ADD, UPDATE, DELETE, RESCHEDULE.\n")
	b.WriteString("- For UPDATE, DELETE and RESCHEDULE, taskId must be the exact id from the context, character for character.\n")
	b.WriteString("- For RESCHEDULE, taskData must include the new dueTime (ISO 8601) and status \"TODO\".\n")
	b.WriteString("- Respect the user's preferred durations and categories from the habit profile when suggesting new tasks.\n")
	b.WriteString("\n=== OUTPUT FORMAT ===\n")
	b.WriteString("Return ONLY a JSON object with this shape, no markdown fences and no prose outside it:\n")
	b.WriteString(`{"response_text": "what you say to the user", "suggested_actions": [{"type": "ADD", "taskId": "", "taskData": {"title": "...", "dueTime": "...", "durationMinutes": 30, "category": "work|personal|growth|health"}, "reason": "why"}]}`)
	b.WriteString("\nsuggested_actions may be empty when the user just wants to talk.")
	return b.String()
}

// contextSnapshot serializes the dashboard state the model reasons over.
func (o *Orchestrator) contextSnapshot() string {
	now := time.Now().In(o.loc)

	doc := "{}"
	doc, _ = sjson.Set(doc, "now.iso", now.Format(time.RFC3339))
	doc, _ = sjson.Set(doc, "now.weekday", now.Weekday().String())
	doc, _ = sjson.Set(doc, "now.timezone", o.loc.String())

	doc, _ = sjson.Set(doc, "user.name", o.user.Name)
	doc, _ = sjson.Set(doc, "user.workStartHour", o.user.WorkStartHour)
	doc, _ = sjson.Set(doc, "user.workEndHour", o.user.WorkEndHour)

	doc, _ = sjson.Set(doc, "moodSummary", o.moods.Summary(o.moodWindow))

	snap := o.habits.Snapshot()
	doc, _ = sjson.Set(doc, "habits.preferredDuration", snap.PreferredDuration)
	doc, _ = sjson.Set(doc, "habits.preferredCategories", snap.PreferredCategories)
	doc, _ = sjson.Set(doc, "habits.communicationStyle", snap.CommunicationStyle)
	doc, _ = sjson.Set(doc, "habits.recentPatterns", snap.RecentPatterns)

	tasks := o.store.Snapshot()
	doc, _ = sjson.Set(doc, "tasks", []interface{}{})
	for i, t := range tasks {
		prefix := fmt.Sprintf("tasks.%d.", i)
		doc, _ = sjson.Set(doc, prefix+"id", t.ID)
		doc, _ = sjson.Set(doc, prefix+"title", t.Title)
		doc, _ = sjson.Set(doc, prefix+"status", string(t.Status))
		doc, _ = sjson.Set(doc, prefix+"category", string(t.Category))
		doc, _ = sjson.Set(doc, prefix+"durationMinutes", t.DurationMinutes)
		if t.DueTime != nil {
			doc, _ = sjson.Set(doc, prefix+"dueTime", t.DueTime.In(o.loc).Format(time.RFC3339))
		}
		if strings.TrimSpace(t.Description) != "" {
			doc, _ = sjson.Set(doc, prefix+"description", t.Description)
		}
	}
	return doc
}
