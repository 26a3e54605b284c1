package codegen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	domain "screen-dev-assistant/internal/domain/codegen"
	"screen-dev-assistant/internal/domain/entity"
	apperrors "screen-dev-assistant/pkg/errors"
)

func loginScreen() *entity.Screen {
	s := entity.NewScreen("SCR-001", "Login")
	s.ID = "screen-1"
	s.SetDesign(domain.DesignReference{FileID: "ABC", NodeID: "1:2"})
	return s
}

type serviceFixture struct {
	svc     *Service
	screens *fakeScreens
	jobs    *fakeJobs
	queue   *fakeQueue
	fetcher *fakeFetcher
	gen     *fakeGenerator
}

func newServiceFixture(screens ...*entity.Screen) *serviceFixture {
	f := &serviceFixture{
		screens: newFakeScreens(screens...),
		jobs:    newFakeJobs(),
		queue:   &fakeQueue{},
		fetcher: &fakeFetcher{fn: func(_ context.Context, ref domain.DesignReference) (*domain.RenderedImage, error) {
			if ref.IsZero() {
				return nil, domain.MissingReferenceError(ref)
			}
			return &domain.RenderedImage{MediaType: "image/png", Data: "iVBORw0KGgo="}, nil
		}},
		gen: &fakeGenerator{},
	}
	sessions := NewSessions(func() *Orchestrator { return NewOrchestrator(f.fetcher, f.gen) })
	f.svc = NewService(f.screens, f.jobs, sessions, f.queue)
	return f
}

func TestServiceGenerateSuccess(t *testing.T) {
	f := newServiceFixture(loginScreen())
	ctx := context.Background()
	_ = f.screens.SetRequirements(ctx, "screen-1", []string{"r1"})
	f.screens.reqs["screen-1"][0].Overview = "Auth"
	f.screens.reqs["screen-1"][0].Context = "Email+password"

	out, err := f.svc.Generate(ctx, "screen-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !out.Result.Succeeded() || out.Result.Code != "<Login/>" {
		t.Fatalf("result = %+v", out.Result)
	}
	if out.Snapshot.State != StateSucceeded || out.Snapshot.Attempt != 1 {
		t.Errorf("snapshot = %+v", out.Snapshot)
	}

	job := f.jobs.get(out.Job.ID)
	if job.Status != entity.JobStatusCompleted || job.Progress != 100 || job.Code != "<Login/>" {
		t.Errorf("job = %+v", job)
	}
	if job.Mode != entity.JobModeInline || job.Attempt != 1 {
		t.Errorf("job mode/attempt = %s/%d", job.Mode, job.Attempt)
	}
	if diff := cmp.Diff([]string{"assembling", "generating", "succeeded"}, f.jobs.progress); diff != "" {
		t.Errorf("progress states (-want +got):\n%s", diff)
	}

	text := strings.Join(f.gen.last.TextBlocks(), "\n")
	if !strings.Contains(text, "- Auth: Email+password") {
		t.Errorf("request text missing requirement: %q", text)
	}
}

func TestServiceGenerateMissingReference(t *testing.T) {
	screen := loginScreen()
	screen.SetDesign(domain.DesignReference{})
	f := newServiceFixture(screen)

	out, err := f.svc.Generate(context.Background(), "screen-1")
	if err != nil {
		t.Fatalf("pipeline failure must not be an error: %v", err)
	}
	if out.Result.Succeeded() || out.Result.Kind != domain.KindMissingReference {
		t.Fatalf("result = %+v", out.Result)
	}
	if out.Result.Reason == "" {
		t.Error("failure must carry a reason")
	}
	if f.gen.calls.Load() != 0 {
		t.Errorf("generator called %d times", f.gen.calls.Load())
	}
	if job := f.jobs.get(out.Job.ID); job.Status != entity.JobStatusFailed || job.ErrorKind != string(domain.KindMissingReference) {
		t.Errorf("job = %+v", job)
	}
}

func TestServiceScreenNotFound(t *testing.T) {
	f := newServiceFixture()
	if _, err := f.svc.Generate(context.Background(), "missing"); !errors.Is(err, apperrors.ErrScreenNotFound) {
		t.Fatalf("err = %v, want ErrScreenNotFound", err)
	}
	if _, err := f.svc.Start(context.Background(), "missing"); !errors.Is(err, apperrors.ErrScreenNotFound) {
		t.Fatalf("err = %v, want ErrScreenNotFound", err)
	}
	if len(f.jobs.jobs) != 0 {
		t.Errorf("no job should be created")
	}
}

func TestServiceStartRejectsWhileInFlightAndCancels(t *testing.T) {
	f := newServiceFixture(loginScreen())
	entered := make(chan struct{})
	f.fetcher.fn = func(ctx context.Context, _ domain.DesignReference) (*domain.RenderedImage, error) {
		close(entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	reqCtx, cancelReq := context.WithCancel(context.Background())
	started, err := f.svc.Start(reqCtx, "screen-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	// 请求结束不影响后台尝试
	cancelReq()
	<-entered

	if started.Job.Status != entity.JobStatusRunning || started.Job.Progress != 10 {
		t.Errorf("accepted job = %+v", started.Job)
	}

	if _, err := f.svc.Start(context.Background(), "screen-1"); !errors.Is(err, apperrors.ErrGenerationInProgress) {
		t.Fatalf("second Start err = %v, want ErrGenerationInProgress", err)
	}

	snap, err := f.svc.Status(context.Background(), "screen-1")
	if err != nil || snap.State != StateFetchingImage {
		t.Fatalf("status = %+v, %v", snap, err)
	}

	ok, err := f.svc.Cancel(context.Background(), "screen-1")
	if err != nil || !ok {
		t.Fatalf("Cancel = %v, %v", ok, err)
	}
	f.svc.Wait()

	job := f.jobs.get(started.Job.ID)
	if job.Status != entity.JobStatusCancelled || job.ErrorKind != string(domain.KindCancelled) {
		t.Errorf("job = %+v", job)
	}
	if f.gen.calls.Load() != 0 {
		t.Errorf("generator should not run after cancelled fetch")
	}
}

func TestServiceStatusIdleBeforeFirstTrigger(t *testing.T) {
	f := newServiceFixture(loginScreen())
	snap, err := f.svc.Status(context.Background(), "screen-1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != StateIdle || snap.Attempt != 0 {
		t.Errorf("snapshot = %+v", snap)
	}
	ok, err := f.svc.Cancel(context.Background(), "screen-1")
	if err != nil || ok {
		t.Errorf("Cancel without attempt = %v, %v", ok, err)
	}
}

func TestServiceStatusFromWorkerJob(t *testing.T) {
	f := newServiceFixture(loginScreen())
	ctx := context.Background()

	queued := entity.NewGenerationJob("screen-1", entity.JobModeQueued)
	queued.ID = "job-queued"
	_ = f.jobs.Create(ctx, queued)
	snap, err := f.svc.Status(ctx, "screen-1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != StateIdle {
		t.Errorf("pending job should read as idle, got %+v", snap)
	}

	running := entity.NewGenerationJob("screen-1", entity.JobModeQueued)
	running.ID = "job-running"
	running.Start(3)
	running.State = string(StateGenerating)
	_ = f.jobs.Create(ctx, running)

	snap, err = f.svc.Status(ctx, "screen-1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != StateGenerating || snap.Attempt != 3 {
		t.Errorf("snapshot = %+v, want generating attempt 3", snap)
	}
}

func TestServiceEnqueueAndRunJob(t *testing.T) {
	f := newServiceFixture(loginScreen())
	ctx := context.Background()

	job, err := f.svc.Enqueue(ctx, "screen-1")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if job.Status != entity.JobStatusPending || job.Mode != entity.JobModeQueued {
		t.Fatalf("job = %+v", job)
	}
	if len(f.queue.sent) != 1 || f.queue.sent[0].JobID != job.ID || f.queue.sent[0].ScreenID != "screen-1" {
		t.Fatalf("queue = %+v", f.queue.sent)
	}

	if err := f.svc.RunJob(ctx, job.ID); err != nil {
		t.Fatalf("RunJob: %v", err)
	}
	got := f.jobs.get(job.ID)
	if got.Status != entity.JobStatusCompleted || got.Code != "<Login/>" || got.Attempt != 1 {
		t.Errorf("job = %+v", got)
	}

	// 重复投递的消息被跳过
	if err := f.svc.RunJob(ctx, job.ID); err != nil {
		t.Fatalf("RunJob redelivery: %v", err)
	}
	if f.gen.calls.Load() != 1 {
		t.Errorf("generator calls = %d, want 1", f.gen.calls.Load())
	}

	if err := f.svc.RunJob(ctx, "unknown"); err != nil {
		t.Errorf("unknown job should be dropped, got %v", err)
	}
}

func TestServiceEnqueueFailures(t *testing.T) {
	f := newServiceFixture(loginScreen())
	f.queue.err = errors.New("redis down")

	if _, err := f.svc.Enqueue(context.Background(), "screen-1"); !errors.Is(err, apperrors.ErrQueueUnavailable) {
		t.Fatalf("err = %v, want ErrQueueUnavailable", err)
	}
	for _, job := range f.jobs.jobs {
		if job.Status != entity.JobStatusFailed {
			t.Errorf("job should be failed after publish error: %+v", job)
		}
	}

	noQueue := NewService(f.screens, f.jobs, NewSessions(func() *Orchestrator { return NewOrchestrator(f.fetcher, f.gen) }), nil)
	if _, err := noQueue.Enqueue(context.Background(), "screen-1"); !errors.Is(err, apperrors.ErrQueueUnavailable) {
		t.Fatalf("err = %v, want ErrQueueUnavailable", err)
	}
}

func TestServiceRunJobCancelledWhileLoading(t *testing.T) {
	f := newServiceFixture(loginScreen())
	ctx := context.Background()

	job, err := f.svc.Enqueue(ctx, "screen-1")
	if err != nil {
		t.Fatal(err)
	}
	f.jobs.afterGet = func(id string) {
		f.jobs.mu.Lock()
		defer f.jobs.mu.Unlock()
		j := f.jobs.jobs[id]
		j.Cancel()
		f.jobs.jobs[id] = j
	}

	if err := f.svc.RunJob(ctx, job.ID); err != nil {
		t.Fatalf("RunJob: %v", err)
	}
	if got := f.jobs.get(job.ID); got.Status != entity.JobStatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}
	if f.gen.calls.Load() != 0 {
		t.Errorf("generator ran for a cancelled job")
	}
}

func TestServiceCancelJob(t *testing.T) {
	f := newServiceFixture(loginScreen())
	ctx := context.Background()

	job, err := f.svc.Enqueue(ctx, "screen-1")
	if err != nil {
		t.Fatal(err)
	}
	cancelled, err := f.svc.CancelJob(ctx, job.ID)
	if err != nil || cancelled.Status != entity.JobStatusCancelled {
		t.Fatalf("CancelJob = %+v, %v", cancelled, err)
	}
	// 已取消的任务不会再执行
	if err := f.svc.RunJob(ctx, job.ID); err != nil {
		t.Fatal(err)
	}
	if f.gen.calls.Load() != 0 {
		t.Errorf("cancelled job ran")
	}

	done, err := f.svc.Generate(ctx, "screen-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.CancelJob(ctx, done.Job.ID); !errors.Is(err, apperrors.ErrJobNotCancellable) {
		t.Errorf("err = %v, want ErrJobNotCancellable", err)
	}
	if _, err := f.svc.CancelJob(ctx, "nope"); !errors.Is(err, apperrors.ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}

func TestServicePreviewPrompt(t *testing.T) {
	f := newServiceFixture(loginScreen())
	preview, err := f.svc.PreviewPrompt(context.Background(), "screen-1")
	if err != nil {
		t.Fatal(err)
	}
	if preview.SystemInstruction != SystemInstruction {
		t.Error("system instruction mismatch")
	}
	if preview.Text != BuildText("Login", nil) {
		t.Errorf("text = %q", preview.Text)
	}
	if !strings.Contains(preview.DesignURL, "ABC") {
		t.Errorf("design url = %q", preview.DesignURL)
	}
}

type fakeDesignSource struct {
	fakeFetcher
	url string
	err error
}

func (s *fakeDesignSource) ResolveImageURL(_ context.Context, _ domain.DesignReference) (string, error) {
	return s.url, s.err
}

func TestDesignService(t *testing.T) {
	noDesign := entity.NewScreen("SCR-002", "Blank")
	noDesign.ID = "screen-2"
	screens := newFakeScreens(loginScreen(), noDesign)

	src := &fakeDesignSource{url: "https://cdn.example/img.png"}
	svc := NewDesignService(screens, src)

	preview, err := svc.Preview(context.Background(), "screen-1")
	if err != nil {
		t.Fatal(err)
	}
	if preview.ImageURL != src.url || preview.NodeID != "1:2" {
		t.Errorf("preview = %+v", preview)
	}

	if _, err := svc.Preview(context.Background(), "screen-2"); !errors.Is(err, apperrors.ErrMissingDesign) {
		t.Errorf("err = %v, want ErrMissingDesign", err)
	}
	if _, err := svc.Image(context.Background(), "missing"); !errors.Is(err, apperrors.ErrScreenNotFound) {
		t.Errorf("err = %v, want ErrScreenNotFound", err)
	}

	src.err = domain.ResolutionError("invalid file")
	_, err = svc.Preview(context.Background(), "screen-1")
	if !errors.Is(err, apperrors.ErrDesignFetchFailed) {
		t.Fatalf("err = %v, want ErrDesignFetchFailed", err)
	}
	if !errors.Is(err, domain.ErrResolution) {
		t.Errorf("underlying resolution error should be kept")
	}

	img, err := svc.Image(context.Background(), "screen-1")
	if err != nil || img.MediaType != "image/png" {
		t.Errorf("Image = %+v, %v", img, err)
	}
}
