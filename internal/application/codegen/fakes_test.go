package codegen

import (
	"context"
	"sort"
	"sync"

	"screen-dev-assistant/internal/domain/entity"
	"screen-dev-assistant/internal/domain/repository"
	"screen-dev-assistant/internal/infrastructure/messaging"
)

type fakeScreens struct {
	mu      sync.Mutex
	screens map[string]*entity.Screen
	reqs    map[string][]*entity.Requirement
}

func newFakeScreens(screens ...*entity.Screen) *fakeScreens {
	f := &fakeScreens{screens: map[string]*entity.Screen{}, reqs: map[string][]*entity.Requirement{}}
	for _, s := range screens {
		f.screens[s.ID] = s
	}
	return f
}

func (f *fakeScreens) Create(_ context.Context, s *entity.Screen) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screens[s.ID] = s
	return nil
}

func (f *fakeScreens) GetByID(_ context.Context, id string) (*entity.Screen, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.screens[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeScreens) GetByCode(_ context.Context, code string) (*entity.Screen, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.screens {
		if s.ScreenCode == code {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeScreens) Update(ctx context.Context, s *entity.Screen) error {
	return f.Create(ctx, s)
}

func (f *fakeScreens) UpdateStatus(_ context.Context, id string, status entity.ScreenStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.screens[id]; ok {
		s.Status = status
	}
	return nil
}

func (f *fakeScreens) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.screens, id)
	delete(f.reqs, id)
	return nil
}

func (f *fakeScreens) List(_ context.Context, _ *repository.ScreenFilter, p repository.Pagination) (*repository.PagedResult[*entity.Screen], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []*entity.Screen
	for _, s := range f.screens {
		items = append(items, s)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ScreenCode < items[j].ScreenCode })
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (f *fakeScreens) CountByStatus(_ context.Context, status entity.ScreenStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.screens {
		if status == "" || s.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeScreens) SetRequirements(_ context.Context, screenID string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var reqs []*entity.Requirement
	for _, id := range ids {
		reqs = append(reqs, &entity.Requirement{ID: id})
	}
	f.reqs[screenID] = reqs
	return nil
}

func (f *fakeScreens) ListRequirements(_ context.Context, screenID string) ([]*entity.Requirement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[screenID], nil
}

type fakeJobs struct {
	mu       sync.Mutex
	jobs     map[string]entity.GenerationJob
	progress []string
	// afterGet 在 GetByID 读出记录后调用，用于模拟并发写入
	afterGet func(id string)
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: map[string]entity.GenerationJob{}}
}

func (f *fakeJobs) Create(_ context.Context, job *entity.GenerationJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = *job
	return nil
}

func (f *fakeJobs) GetByID(_ context.Context, id string) (*entity.GenerationJob, error) {
	f.mu.Lock()
	job, ok := f.jobs[id]
	hook := f.afterGet
	f.mu.Unlock()
	if !ok {
		return nil, nil
	}
	if hook != nil {
		hook(id)
	}
	return &job, nil
}

func (f *fakeJobs) Update(_ context.Context, job *entity.GenerationJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.jobs[job.ID]; ok && cur.Status.Terminal() {
		return repository.ErrJobFinished
	}
	f.jobs[job.ID] = *job
	return nil
}

func (f *fakeJobs) UpdateProgress(_ context.Context, id string, progress int, state string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, state)
	if job, ok := f.jobs[id]; ok {
		job.Progress = progress
		job.State = state
		f.jobs[id] = job
	}
	return nil
}

func (f *fakeJobs) ListByScreen(_ context.Context, screenID string, _ *repository.JobFilter, p repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []*entity.GenerationJob
	for _, j := range f.jobs {
		if j.ScreenID == screenID {
			cp := j
			items = append(items, &cp)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (f *fakeJobs) LatestByScreen(_ context.Context, screenID string) (*entity.GenerationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *entity.GenerationJob
	for _, j := range f.jobs {
		if j.ScreenID != screenID || j.StartedAt == nil {
			continue
		}
		if latest == nil || j.StartedAt.After(*latest.StartedAt) {
			cp := j
			latest = &cp
		}
	}
	return latest, nil
}

func (f *fakeJobs) get(id string) entity.GenerationJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[id]
}

type fakeQueue struct {
	mu   sync.Mutex
	sent []*messaging.CodegenJobMessage
	err  error
}

func (q *fakeQueue) PublishCodegenJob(_ context.Context, job *messaging.CodegenJobMessage) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.sent = append(q.sent, job)
	return "1-0", nil
}
