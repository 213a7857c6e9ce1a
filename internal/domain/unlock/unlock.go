// Package unlock derives path status for topics in a module and modules in
// a category from a user's progress.
//
// Both levels use one rule: walk the items in catalog order; the first item
// that is not complete is Current, everything before it is Completed, and
// everything after it is Locked when the container gates linearly, or freely
// selectable otherwise.
package unlock

import (
	"github.com/phrazzld/lingdou-api/internal/domain"
)

// Status is the path status of a topic or module.
type Status string

// Path statuses
const (
	StatusLocked    Status = "locked"
	StatusCurrent   Status = "current"
	StatusUnlocked  Status = "unlocked"
	StatusCompleted Status = "completed"
)

// TopicStatus is one entry of a module's unlock layout.
type TopicStatus struct {
	Topic    domain.Topic        `json:"topic"`
	Status   Status              `json:"status"`
	Progress domain.UserProgress `json:"progress"`
	// Trainable is independent of Status: a topic can be trained once its
	// knowledge is learned.
	Trainable bool `json:"trainable"`
}

// Aggregate is the derived progress summary of a module or category.
type Aggregate struct {
	Total   int `json:"total"`
	Learned int `json:"learned"`
	// Completed counts mastered topics.
	Completed  int `json:"completed"`
	Percentage int `json:"percentage"`
}

// walk assigns statuses to a sequence given which items are complete.
func walk(complete []bool, linear bool) []Status {
	out := make([]Status, len(complete))
	current := -1
	for i, done := range complete {
		switch {
		case current < 0 && done:
			out[i] = StatusCompleted
		case current < 0:
			out[i] = StatusCurrent
			current = i
		case linear:
			out[i] = StatusLocked
		case done:
			out[i] = StatusCompleted
		default:
			out[i] = StatusUnlocked
		}
	}
	return out
}

func indexProgress(progress []domain.UserProgress) map[string]domain.UserProgress {
	byTopic := make(map[string]domain.UserProgress, len(progress))
	for _, p := range progress {
		byTopic[p.TopicID] = p
	}
	return byTopic
}

func progressFor(byTopic map[string]domain.UserProgress, topicID string) domain.UserProgress {
	if p, ok := byTopic[topicID]; ok {
		return p
	}
	return domain.UserProgress{TopicID: topicID, MasteryLevel: domain.MasteryNotStarted}
}

// Layout returns the status of each topic, in the order given. Topics must
// already be in catalog order.
func Layout(topics []domain.Topic, progress []domain.UserProgress, linear bool) []TopicStatus {
	byTopic := indexProgress(progress)

	rows := make([]domain.UserProgress, len(topics))
	learned := make([]bool, len(topics))
	for i, t := range topics {
		rows[i] = progressFor(byTopic, t.ID)
		learned[i] = rows[i].KnowledgeLearned
	}

	statuses := walk(learned, linear)
	out := make([]TopicStatus, len(topics))
	for i, t := range topics {
		out[i] = TopicStatus{
			Topic:     t,
			Status:    statuses[i],
			Progress:  rows[i],
			Trainable: rows[i].KnowledgeLearned,
		}
	}
	return out
}

// Summarize reduces the progress of a topic set into an Aggregate.
func Summarize(topics []domain.Topic, progress []domain.UserProgress) Aggregate {
	byTopic := indexProgress(progress)
	agg := Aggregate{Total: len(topics)}
	for _, t := range topics {
		p := progressFor(byTopic, t.ID)
		if p.KnowledgeLearned {
			agg.Learned++
		}
		if p.MasteryLevel == domain.MasteryMastered {
			agg.Completed++
		}
	}
	agg.Percentage = domain.Percent(agg.Learned, agg.Total)
	return agg
}

// Merge adds aggregates together, recomputing the percentage.
func Merge(parts ...Aggregate) Aggregate {
	var agg Aggregate
	for _, p := range parts {
		agg.Total += p.Total
		agg.Learned += p.Learned
		agg.Completed += p.Completed
	}
	agg.Percentage = domain.Percent(agg.Learned, agg.Total)
	return agg
}

// ModuleStatus is one entry of a category's unlock layout.
type ModuleStatus struct {
	Module    domain.Module `json:"module"`
	Status    Status        `json:"status"`
	Aggregate Aggregate     `json:"aggregate"`
}

// LayoutModules returns the status of each module in a category. A module
// is complete when all of its topics are learned; a module with no topics
// counts as complete so it never blocks the path.
func LayoutModules(modules []domain.Module, aggregates map[string]Aggregate, linear bool) []ModuleStatus {
	complete := make([]bool, len(modules))
	for i, m := range modules {
		agg := aggregates[m.Name]
		complete[i] = agg.Learned >= agg.Total
	}

	statuses := walk(complete, linear)
	out := make([]ModuleStatus, len(modules))
	for i, m := range modules {
		out[i] = ModuleStatus{Module: m, Status: statuses[i], Aggregate: aggregates[m.Name]}
	}
	return out
}
