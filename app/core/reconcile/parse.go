package reconcile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"orbit/app/core/task"
)

// ErrMalformedReply marks a generation result that failed structural
// validation. Callers treat it the same as a network failure: the whole
// response is discarded, never partially trusted.
var ErrMalformedReply = errors.New("reconcile: malformed agent reply")

// Reply is the validated wire contract of one generation call: the
// conversational text plus zero or more proposed actions.
type Reply struct {
	Text    string
	Actions []Action
}

var dueTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseReply validates a raw model response against the generation contract.
// Wrapping code fences are stripped first. The structure is all-or-nothing:
// a missing response_text, a non-array suggested_actions, or any action
// missing its type or reason discards the entire reply. Inside a well-formed
// action, field values that fail validation (bad category, unparseable
// dueTime, unknown status label) are dropped rather than rejected, and an
// unknown action type drops only that action so future kinds degrade to
// no-ops.
func ParseReply(raw string) (Reply, error) {
	payload, err := extractJSONObject(stripFences(raw))
	if err != nil {
		return Reply{}, err
	}
	if !gjson.Valid(payload) {
		return Reply{}, fmt.Errorf("%w: invalid json", ErrMalformedReply)
	}
	doc := gjson.Parse(payload)

	text := doc.Get("response_text")
	if text.Type != gjson.String || strings.TrimSpace(text.String()) == "" {
		return Reply{}, fmt.Errorf("%w: missing response_text", ErrMalformedReply)
	}
	rawActions := doc.Get("suggested_actions")
	if !rawActions.Exists() || !rawActions.IsArray() {
		return Reply{}, fmt.Errorf("%w: missing suggested_actions array", ErrMalformedReply)
	}

	reply := Reply{Text: text.String()}
	for _, item := range rawActions.Array() {
		if !item.IsObject() {
			return Reply{}, fmt.Errorf("%w: action is not an object", ErrMalformedReply)
		}
		kindRes := item.Get("type")
		reasonRes := item.Get("reason")
		if kindRes.Type != gjson.String || reasonRes.Type != gjson.String {
			return Reply{}, fmt.Errorf("%w: action missing type or reason", ErrMalformedReply)
		}
		kind, ok := ParseKind(kindRes.String())
		if !ok {
			// forward-compatibility: future kinds are dropped, never fatal
			continue
		}
		reply.Actions = append(reply.Actions, Action{
			ID:     uuid.NewString(),
			Kind:   kind,
			TaskID: task.NormalizeID(item.Get("taskId").String()),
			Data:   parsePatch(item.Get("taskData")),
			Reason: reasonRes.String(),
		})
	}
	return reply, nil
}

func parsePatch(res gjson.Result) task.Patch {
	var p task.Patch
	if !res.IsObject() {
		return p
	}
	if v := res.Get("title"); v.Type == gjson.String && strings.TrimSpace(v.String()) != "" {
		title := strings.TrimSpace(v.String())
		p.Title = &title
	}
	if v := res.Get("description"); v.Type == gjson.String {
		desc := v.String()
		p.Description = &desc
	}
	if v := res.Get("durationMinutes"); v.Type == gjson.Number {
		dur := int(v.Int())
		p.DurationMinutes = &dur
	}
	if v := res.Get("dueTime"); v.Type == gjson.String {
		if due, ok := parseDueTime(v.String()); ok {
			p.DueTime = &due
		}
	}
	if v := res.Get("category"); v.Exists() {
		if cat, ok := task.ParseCategory(v.String()); ok {
			p.Category = &cat
		}
	}
	if v := res.Get("status"); v.Exists() {
		if st, ok := task.ParseStatus(v.String()); ok {
			p.Status = &st
		}
	}
	if v := res.Get("importance"); v.Exists() {
		if pr, ok := task.ParsePriority(v.String()); ok {
			p.Importance = &pr
		}
	}
	if v := res.Get("urgency"); v.Exists() {
		if pr, ok := task.ParsePriority(v.String()); ok {
			p.Urgency = &pr
		}
	}
	return p
}

func parseDueTime(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dueTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func extractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("%w: json object not found", ErrMalformedReply)
	}
	return text[start : end+1], nil
}
