package screen

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"screen-dev-assistant/internal/domain/entity"
	"screen-dev-assistant/internal/domain/repository"
)

type passthroughTx struct{ calls int }

func (t *passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type memStore struct {
	mu      sync.Mutex
	seq     int
	screens map[string]*entity.Screen
	links   map[string][]string
	reqs    map[string]*entity.Requirement
	runs    []*entity.TestRun
}

func newMemStore() *memStore {
	return &memStore{
		screens: map[string]*entity.Screen{},
		links:   map[string][]string{},
		reqs:    map[string]*entity.Requirement{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

// screens

type memScreens struct{ *memStore }

func (r memScreens) Create(_ context.Context, s *entity.Screen) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = r.nextID("scr")
	}
	cp := *s
	r.screens[s.ID] = &cp
	return nil
}

func (r memScreens) GetByID(_ context.Context, id string) (*entity.Screen, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.screens[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r memScreens) GetByCode(_ context.Context, code string) (*entity.Screen, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.screens {
		if s.ScreenCode == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memScreens) Update(_ context.Context, s *entity.Screen) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.screens[s.ID] = &cp
	return nil
}

func (r memScreens) UpdateStatus(_ context.Context, id string, status entity.ScreenStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.screens[id]; ok {
		s.Status = status
	}
	return nil
}

func (r memScreens) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.screens, id)
	delete(r.links, id)
	return nil
}

func (r memScreens) List(_ context.Context, filter *repository.ScreenFilter, p repository.Pagination) (*repository.PagedResult[*entity.Screen], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*entity.Screen
	for _, s := range r.screens {
		if filter != nil && filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter != nil && filter.Query != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(filter.Query)) {
			continue
		}
		cp := *s
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ScreenCode < items[j].ScreenCode })
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (r memScreens) CountByStatus(_ context.Context, status entity.ScreenStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.screens {
		if status == "" || s.Status == status {
			n++
		}
	}
	return n, nil
}

func (r memScreens) SetRequirements(_ context.Context, screenID string, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[screenID] = append([]string(nil), ids...)
	return nil
}

func (r memScreens) ListRequirements(_ context.Context, screenID string) ([]*entity.Requirement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Requirement
	for _, id := range r.links[screenID] {
		if req, ok := r.reqs[id]; ok {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

// requirements

type memRequirements struct{ *memStore }

func (r memRequirements) Create(_ context.Context, req *entity.Requirement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == "" {
		req.ID = r.nextID("req")
	}
	cp := *req
	r.reqs[req.ID] = &cp
	return nil
}

func (r memRequirements) GetByID(_ context.Context, id string) (*entity.Requirement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.reqs[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (r memRequirements) GetByCode(_ context.Context, code string) (*entity.Requirement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.reqs {
		if req.RequirementCode == code {
			cp := *req
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memRequirements) GetByIDs(_ context.Context, ids []string) ([]*entity.Requirement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Requirement
	for _, id := range ids {
		if req, ok := r.reqs[id]; ok {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memRequirements) Update(ctx context.Context, req *entity.Requirement) error {
	return r.Create(ctx, req)
}

func (r memRequirements) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reqs, id)
	return nil
}

func (r memRequirements) Search(_ context.Context, query string, p repository.Pagination) (*repository.PagedResult[*entity.Requirement], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*entity.Requirement
	for _, req := range r.reqs {
		if query == "" || strings.Contains(strings.ToLower(req.Overview), strings.ToLower(query)) {
			cp := *req
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].RequirementCode < items[j].RequirementCode })
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

// test runs

type memRuns struct{ *memStore }

func (r memRuns) Create(_ context.Context, run *entity.TestRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run.ID = r.nextID("run")
	r.runs = append(r.runs, run)
	return nil
}

func (r memRuns) Latest(_ context.Context, screenID string) (*entity.TestRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *entity.TestRun
	for _, run := range r.runs {
		if run.ScreenID == screenID && (latest == nil || run.RunAt.After(latest.RunAt)) {
			latest = run
		}
	}
	return latest, nil
}

func (r memRuns) ListByScreen(_ context.Context, screenID string, p repository.Pagination) (*repository.PagedResult[*entity.TestRun], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*entity.TestRun
	for _, run := range r.runs {
		if run.ScreenID == screenID {
			items = append(items, run)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

// cache

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	loads   int
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) GetOrLoad(_ context.Context, key string, _ time.Duration, loader func() (any, error)) ([]byte, error) {
	c.mu.Lock()
	if v, ok := c.data[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := loader()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.loads++
	c.data[key] = raw
	c.mu.Unlock()
	return raw, nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func (c *memCache) InvalidatePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *memCache) InvalidateScreen(ctx context.Context, screenID string) error {
	return c.Delete(ctx, "sda:screen:"+screenID, "sda:review:"+screenID, "sda:dashboard")
}
