package domain

import (
	"sort"
	"time"
)

// Stats counts projects by status
type Stats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	Pending    int `json:"pending"`
}

// ComputeStats is a pure function of the given list
func ComputeStats(projects []Project) Stats {
	stats := Stats{Total: len(projects)}
	for _, p := range projects {
		switch p.Status {
		case ProjectStatusCompleted:
			stats.Completed++
		case ProjectStatusInProgress:
			stats.InProgress++
		case ProjectStatusPending:
			stats.Pending++
		}
	}
	return stats
}

// SortByRecency returns a copy ordered by creation time, newest first.
// Projects without a creation time sort last; ties keep their input order.
func SortByRecency(projects []Project) []Project {
	sorted := make([]Project, len(projects))
	copy(sorted, projects)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}

// Recent returns at most n projects from the recency-sorted view
func Recent(projects []Project, n int) []Project {
	sorted := SortByRecency(projects)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// MonthBucket aggregates projects created during one calendar month
type MonthBucket struct {
	Month time.Time `json:"month"`
	Label string    `json:"label"`
	Stats
}

// MonthlyActivity buckets projects by creation month over the last `months` months
// ending with the month of now, oldest first. Projects outside the window are ignored.
func MonthlyActivity(projects []Project, now time.Time, months int) []MonthBucket {
	if months <= 0 {
		return []MonthBucket{}
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)
	buckets := make([]MonthBucket, months)
	for i := range buckets {
		m := first.AddDate(0, i, 0)
		buckets[i] = MonthBucket{Month: m, Label: m.Format("2006-01")}
	}

	for _, p := range projects {
		if p.CreatedAt.IsZero() {
			continue
		}
		created := p.CreatedAt.In(now.Location())
		idx := (created.Year()-first.Year())*12 + int(created.Month()) - int(first.Month())
		if idx < 0 || idx >= months {
			continue
		}

		b := &buckets[idx]
		b.Total++
		switch p.Status {
		case ProjectStatusCompleted:
			b.Completed++
		case ProjectStatusInProgress:
			b.InProgress++
		case ProjectStatusPending:
			b.Pending++
		}
	}
	return buckets
}
