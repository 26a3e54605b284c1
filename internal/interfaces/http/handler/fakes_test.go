package handler

import (
	"context"

	"screen-dev-assistant/internal/application/codegen"
	"screen-dev-assistant/internal/application/screen"
	domain "screen-dev-assistant/internal/domain/codegen"
	"screen-dev-assistant/internal/domain/entity"
	"screen-dev-assistant/internal/domain/repository"
	apperrors "screen-dev-assistant/pkg/errors"
)

type fakeScreenService struct {
	screens map[string]*entity.Screen
	created []screen.CreateInput
	deleted []string
}

func newFakeScreenService(screens ...*entity.Screen) *fakeScreenService {
	f := &fakeScreenService{screens: make(map[string]*entity.Screen)}
	for _, s := range screens {
		f.screens[s.ID] = s
	}
	return f
}

func (f *fakeScreenService) Dashboard(context.Context) (*screen.Dashboard, error) {
	d := &screen.Dashboard{ByStatus: map[entity.ScreenStatus]int64{}}
	for _, s := range f.screens {
		d.TotalScreens++
		d.ByStatus[s.Status]++
	}
	return d, nil
}

func (f *fakeScreenService) List(_ context.Context, _ *repository.ScreenFilter, p repository.Pagination) (*repository.PagedResult[*entity.Screen], error) {
	items := make([]*entity.Screen, 0, len(f.screens))
	for _, s := range f.screens {
		items = append(items, s)
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (f *fakeScreenService) Create(_ context.Context, in screen.CreateInput) (*screen.Detail, error) {
	if in.ScreenCode == "DUP" {
		return nil, apperrors.ErrConflict.WithDetail("screen code already exists")
	}
	f.created = append(f.created, in)
	s := entity.NewScreen(in.ScreenCode, in.Name)
	s.ID = "new-id"
	f.screens[s.ID] = s
	return &screen.Detail{Screen: s}, nil
}

func (f *fakeScreenService) Get(_ context.Context, id string) (*screen.Detail, error) {
	s, ok := f.screens[id]
	if !ok {
		return nil, apperrors.ErrScreenNotFound
	}
	return &screen.Detail{Screen: s}, nil
}

func (f *fakeScreenService) Update(ctx context.Context, id string, _ screen.UpdateInput) (*screen.Detail, error) {
	return f.Get(ctx, id)
}

func (f *fakeScreenService) UpdateStatus(_ context.Context, id string, status entity.ScreenStatus) (*entity.Screen, error) {
	if !status.Valid() {
		return nil, apperrors.ErrInvalidParam.WithDetail("unknown status")
	}
	s, ok := f.screens[id]
	if !ok {
		return nil, apperrors.ErrScreenNotFound
	}
	s.Status = status
	return s, nil
}

func (f *fakeScreenService) Delete(_ context.Context, id string) error {
	if _, ok := f.screens[id]; !ok {
		return apperrors.ErrScreenNotFound
	}
	delete(f.screens, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeScreenService) SetRequirements(ctx context.Context, id string, _ []string) (*screen.Detail, error) {
	return f.Get(ctx, id)
}

type fakeCodegenService struct {
	startErr  error
	generated *codegen.GenerateResult
	forgotten []string
	jobs      map[string]*entity.GenerationJob
}

func (f *fakeCodegenService) Start(_ context.Context, screenID string) (*codegen.StartResult, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	job := entity.NewGenerationJob(screenID, entity.JobModeInline)
	job.ID = "job-1"
	job.Start(1)
	return &codegen.StartResult{
		Snapshot: codegen.Snapshot{State: codegen.StateFetchingImage, Attempt: 1},
		Job:      job,
	}, nil
}

func (f *fakeCodegenService) Generate(context.Context, string) (*codegen.GenerateResult, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.generated, nil
}

func (f *fakeCodegenService) Enqueue(_ context.Context, screenID string) (*entity.GenerationJob, error) {
	job := entity.NewGenerationJob(screenID, entity.JobModeQueued)
	job.ID = "job-q"
	return job, nil
}

func (f *fakeCodegenService) Status(context.Context, string) (codegen.Snapshot, error) {
	return codegen.Snapshot{State: codegen.StateIdle}, nil
}

func (f *fakeCodegenService) Cancel(context.Context, string) (bool, error) {
	return true, nil
}

func (f *fakeCodegenService) Forget(screenID string) {
	f.forgotten = append(f.forgotten, screenID)
}

func (f *fakeCodegenService) PreviewPrompt(context.Context, string) (*codegen.PromptPreview, error) {
	return &codegen.PromptPreview{SystemInstruction: codegen.SystemInstruction, Text: "Screen: Login"}, nil
}

func (f *fakeCodegenService) GetJob(_ context.Context, jobID string) (*entity.GenerationJob, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, apperrors.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeCodegenService) ListJobs(_ context.Context, _ string, _ *repository.JobFilter, p repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error) {
	items := make([]*entity.GenerationJob, 0, len(f.jobs))
	for _, j := range f.jobs {
		items = append(items, j)
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (f *fakeCodegenService) CancelJob(ctx context.Context, jobID string) (*entity.GenerationJob, error) {
	job, err := f.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.Cancel() {
		return nil, apperrors.ErrJobNotCancellable
	}
	return job, nil
}

type fakeDesignService struct {
	image *domain.RenderedImage
	err   error
}

func (f *fakeDesignService) Preview(_ context.Context, screenID string) (*codegen.DesignPreview, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &codegen.DesignPreview{FileID: "ABC", NodeID: "1:2", ImageURL: "https://cdn.example/1.png"}, nil
}

func (f *fakeDesignService) Image(context.Context, string) (*domain.RenderedImage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.image, nil
}
