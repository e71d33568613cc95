package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"studio-admin-backend/internal/project/domain"
	"studio-admin-backend/pkg/fuzzy"
)

// projectUsecase implements ProjectUsecase
type projectUsecase struct {
	live    ProjectSync
	gateway *MutationGateway
	now     func() time.Time

	statsMu      sync.Mutex
	statsVersion uint64
	statsValid   bool
	stats        domain.Stats
}

// NewProjectUsecase creates a new instance of projectUsecase
func NewProjectUsecase(projectSync ProjectSync, gateway *MutationGateway) ProjectUsecase {
	return &projectUsecase{
		live:    projectSync,
		gateway: gateway,
		now:     time.Now,
	}
}

func (u *projectUsecase) State() ProjectState {
	st := u.live.State()
	state := ProjectState{
		Projects:  st.Items,
		Loading:   st.Loading,
		Epoch:     st.Epoch,
		Version:   st.Version,
		UpdatedAt: st.UpdatedAt,
	}
	if st.Err != "" {
		msg := st.Err
		state.Error = &msg
	}
	return state
}

// Stats is recomputed only when the live list version changes
func (u *projectUsecase) Stats() domain.Stats {
	st := u.live.State()

	u.statsMu.Lock()
	defer u.statsMu.Unlock()

	if u.statsValid && u.statsVersion == st.Version {
		return u.stats
	}
	u.stats = domain.ComputeStats(st.Items)
	u.statsVersion = st.Version
	u.statsValid = true
	return u.stats
}

func (u *projectUsecase) SortedByRecency(limit int) []domain.Project {
	items := u.live.State().Items
	if limit > 0 {
		return domain.Recent(items, limit)
	}
	return domain.SortByRecency(items)
}

func (u *projectUsecase) MonthlyActivity(months int) []domain.MonthBucket {
	return domain.MonthlyActivity(u.live.State().Items, u.now(), months)
}

func (u *projectUsecase) Search(query string) []domain.Project {
	items := domain.SortByRecency(u.live.State().Items)
	if query == "" {
		return items
	}

	type scored struct {
		project domain.Project
		score   float64
	}
	var matches []scored
	for _, p := range items {
		if !fuzzy.Match(query, p.Name, p.Client, p.Description) {
			continue
		}
		matches = append(matches, scored{
			project: p,
			score: fuzzy.Score(query,
				fuzzy.Field{Text: p.Name, Weight: 1.0},
				fuzzy.Field{Text: p.Client, Weight: 0.8},
				fuzzy.Field{Text: p.Description, Weight: 0.4},
			),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	results := make([]domain.Project, len(matches))
	for i, m := range matches {
		results[i] = m.project
	}
	return results
}

func (u *projectUsecase) RefreshProjects() uint64 {
	return u.live.Refresh()
}

func (u *projectUsecase) DeleteProject(ctx context.Context, id string) error {
	return u.gateway.Delete(ctx, id)
}

func (u *projectUsecase) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) error {
	return u.gateway.Update(ctx, id, patch)
}

func (u *projectUsecase) Changes() (<-chan struct{}, func()) {
	return u.live.Listen()
}
