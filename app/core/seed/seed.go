package seed

import (
	"math"
	"math/rand"
	"time"

	"orbit/app/core/mood"
	"orbit/app/core/task"
	"orbit/app/pkg/logger"
)

// Apply fills the store and mood log with a month of demo data so the
// dashboard has something to show on first run.
func Apply(store *task.Store, moods *mood.Log, now time.Time) {
	seedTasks(store, now)
	seedMoods(moods, now)
	logger.Info("[Seed] loaded %d demo task(s) and %d mood sample(s)", store.Count(), moods.Len())
}

type template struct {
	title       string
	description string
	category    task.Category
	duration    int
	hour        int
	minute      int
}

func seedTasks(store *task.Store, now time.Time) {
	heavy := []template{
		{"Deep Work: System Architecture", "Focus on core scalability and database schema.", task.CategoryWork, 120, 9, 0},
		{"Design Team Sync", "Weekly sync with design team.", task.CategoryWork, 60, 13, 30},
		{"Evening HIIT Workout", "High intensity interval training.", task.CategoryHealth, 45, 18, 0},
	}
	medium := []template{
		{"Client Review", "", task.CategoryWork, 45, 11, 0},
		{"Reading: Cognitive Science", "", task.CategoryGrowth, 30, 20, 0},
	}
	light := []template{
		{"Morning Meditation", "", task.CategoryHealth, 15, 8, 0},
	}

	addDays(store, now, []int{5, 12, 19, 26}, heavy)
	addDays(store, now, []int{2, 8, 10, 15, 17, 22, 24}, medium)
	addDays(store, now, []int{3, 7, 13, 21, 28}, light)

	today := now.Day()
	addTask(store, now, today, template{"Morning Reflection", "Write down 3 things I am grateful for.", task.CategoryGrowth, 15, 8, 0}, task.StatusDone)
	addTask(store, now, today, template{"Deep Work: Project Alpha", "Focus on the Q3 report analysis.", task.CategoryWork, 90, 10, 0}, task.StatusInProgress)
	addTask(store, now, today, template{"Gym Session", "Cardio and light weights.", task.CategoryHealth, 60, 17, 30}, task.StatusTodo)
	addTask(store, now, today, template{"Read Research Paper", "Read the latest paper on self-voice.", task.CategoryGrowth, 45, 20, 0}, task.StatusTodo)
}

func addDays(store *task.Store, now time.Time, days []int, templates []template) {
	for _, day := range days {
		status := task.StatusTodo
		if day < now.Day() {
			status = task.StatusDone
		}
		for _, tpl := range templates {
			addTask(store, now, day, tpl, status)
		}
	}
}

func addTask(store *task.Store, now time.Time, day int, tpl template, status task.Status) {
	// clamp to day 28 so short months never overflow
	if day > 28 {
		day = 28
	}
	due := time.Date(now.Year(), now.Month(), day, tpl.hour, tpl.minute, 0, 0, now.Location())

	p := task.Patch{
		Title:           &tpl.title,
		DueTime:         &due,
		Category:        &tpl.category,
		DurationMinutes: &tpl.duration,
	}
	if tpl.description != "" {
		p.Description = &tpl.description
	}
	created := store.Add(p)
	if status != task.StatusTodo {
		store.Update(created.ID, task.Patch{Status: &status})
	}
}

// seedMoods writes a gentle two week wave around a baseline of six.
func seedMoods(moods *mood.Log, now time.Time) {
	for i := 0; i < 14; i++ {
		day := now.AddDate(0, 0, -(13 - i))
		wave := math.Sin(float64(i)/2) * 2
		score := int(math.Round(6 + wave + rand.Float64()*2))

		var tags []string
		switch {
		case score > 7:
			tags = []string{"energetic", "flow"}
		case score < 5:
			tags = []string{"tired", "anxious"}
		default:
			tags = []string{"neutral"}
		}

		moods.Append(mood.Entry{
			Date:  day.Format("2006-01-02"),
			Score: score,
			Tags:  tags,
			Note:  "Sample mood entry",
		})
	}
}
