package codegen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "screen-dev-assistant/internal/domain/codegen"
	"screen-dev-assistant/pkg/metrics"
)

// State 编排状态
type State string

const (
	StateIdle          State = "idle"
	StateFetchingImage State = "fetching_image"
	StateAssembling    State = "assembling"
	StateGenerating    State = "generating"
	StateSucceeded     State = "succeeded"
	StateFailed        State = "failed"
)

// Busy 是否有尝试在进行中
func (s State) Busy() bool {
	return s == StateFetchingImage || s == StateAssembling || s == StateGenerating
}

// Event 状态迁移事件
type Event string

const (
	EventTrigger      Event = "trigger"
	EventImageFetched Event = "image_fetched"
	EventAssembled    Event = "assembled"
	EventGenerated    Event = "generated"
	EventFail         Event = "fail"
)

// transitions 合法迁移表，表外组合一律拒绝
var transitions = map[State]map[Event]State{
	StateIdle:          {EventTrigger: StateFetchingImage},
	StateSucceeded:     {EventTrigger: StateFetchingImage},
	StateFailed:        {EventTrigger: StateFetchingImage},
	StateFetchingImage: {EventImageFetched: StateAssembling, EventFail: StateFailed},
	StateAssembling:    {EventAssembled: StateGenerating},
	StateGenerating:    {EventGenerated: StateSucceeded, EventFail: StateFailed},
}

// errIllegalTransition 迁移表之外的组合
var errIllegalTransition = errors.New("illegal state transition")

// Next 返回 (from, event) 的目标状态
func Next(from State, ev Event) (State, bool) {
	to, ok := transitions[from][ev]
	return to, ok
}

// Input 单次尝试的输入
type Input struct {
	Reference    domain.DesignReference
	ScreenName   string
	Requirements []domain.Requirement
}

// Transition 一次状态迁移
type Transition struct {
	Attempt uint64    `json:"attempt"`
	From    State     `json:"from"`
	To      State     `json:"to"`
	Event   Event     `json:"event"`
	At      time.Time `json:"at"`
}

// Observer 迁移观察者，在锁外同步调用
type Observer func(Transition)

// Snapshot 编排器当前状态的只读视图
type Snapshot struct {
	State     State            `json:"state"`
	Attempt   uint64           `json:"attempt"`
	Code      string           `json:"code,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Kind      domain.ErrorKind `json:"kind,omitempty"`
	Stage     domain.Stage     `json:"stage,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Option 编排器选项
type Option func(*Orchestrator)

// WithTimeouts 设置抓图与生成阶段的超时，0 表示不限制
func WithTimeouts(fetch, generate time.Duration) Option {
	return func(o *Orchestrator) {
		o.fetchTimeout = fetch
		o.generateTimeout = generate
	}
}

// WithObserver 注册编排器级观察者
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observers = append(o.observers, obs) }
}

// WithClock 替换时间源
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator 生成流程状态机
// 同一实例同时最多只有一个尝试在进行中，状态只由编排器自身修改
type Orchestrator struct {
	fetcher         domain.ImageFetcher
	generator       domain.CodeGenerator
	fetchTimeout    time.Duration
	generateTimeout time.Duration
	observers       []Observer
	now             func() time.Time

	mu        sync.Mutex
	state     State
	attempt   uint64
	cancel    context.CancelFunc
	result    domain.GenerationResult
	updatedAt time.Time
}

// NewOrchestrator 创建编排器
func NewOrchestrator(fetcher domain.ImageFetcher, generator domain.CodeGenerator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:   fetcher,
		generator: generator,
		now:       time.Now,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.updatedAt = o.now()
	return o
}

// Snapshot 返回当前状态
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		State:     o.state,
		Attempt:   o.attempt,
		Code:      o.result.Code,
		Reason:    o.result.Reason,
		Kind:      o.result.Kind,
		Stage:     o.result.Stage,
		UpdatedAt: o.updatedAt,
	}
}

// Cancel 取消进行中的尝试，没有进行中的尝试时返回 false
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.state.Busy() || o.cancel == nil {
		return false
	}
	o.cancel()
	return true
}

// Attempt 一次已被接受的生成尝试
type Attempt struct {
	o         *Orchestrator
	id        uint64
	ctx       context.Context
	cancel    context.CancelFunc
	observers []Observer
	finished  bool
}

// ID 尝试序号，从 1 开始
func (a *Attempt) ID() uint64 {
	return a.id
}

// Begin 触发一次新尝试；已有尝试进行中时返回 ErrAttemptInFlight 且状态不变
func (o *Orchestrator) Begin(ctx context.Context, observers ...Observer) (*Attempt, error) {
	o.mu.Lock()
	if o.state.Busy() {
		o.mu.Unlock()
		metrics.CodegenAttemptsTotal.WithLabelValues("rejected").Inc()
		return nil, domain.ErrAttemptInFlight
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	o.attempt++
	o.cancel = cancel
	o.result = domain.GenerationResult{}
	a := &Attempt{o: o, id: o.attempt, ctx: attemptCtx, cancel: cancel, observers: observers}
	tr, err := o.applyLocked(a.id, EventTrigger)
	o.mu.Unlock()
	if err != nil {
		cancel()
		return nil, err
	}

	metrics.CodegenInFlight.Inc()
	a.notify(tr)
	return a, nil
}

// Run 触发并同步执行一次尝试
func (o *Orchestrator) Run(ctx context.Context, in Input, observers ...Observer) (domain.GenerationResult, error) {
	a, err := o.Begin(ctx, observers...)
	if err != nil {
		return domain.GenerationResult{}, err
	}
	return a.Execute(in), nil
}

// Execute 依次执行抓图、组装、生成，返回终态结果
func (a *Attempt) Execute(in Input) domain.GenerationResult {
	if a.finished {
		return domain.Failure(fmt.Errorf("attempt %d already finished", a.id))
	}
	defer a.finish()

	var image *domain.RenderedImage
	err := a.runStage(domain.StageFetch, a.o.fetchTimeout, func(ctx context.Context) error {
		var err error
		image, err = a.o.fetcher.FetchRenderedImage(ctx, in.Reference)
		return err
	})
	if err != nil {
		return a.fail(err)
	}
	a.advance(EventImageFetched)

	started := a.o.now()
	req := BuildRequest(in.ScreenName, in.Requirements, image)
	metrics.CodegenStageDuration.WithLabelValues(string(domain.StageAssemble)).Observe(a.o.now().Sub(started).Seconds())
	a.advance(EventAssembled)

	var completion *domain.Completion
	err = a.runStage(domain.StageGenerate, a.o.generateTimeout, func(ctx context.Context) error {
		var err error
		completion, err = a.o.generator.Generate(ctx, req)
		return err
	})
	if err != nil {
		return a.fail(err)
	}
	return a.succeed(completion)
}

// Abort 在执行前终止已接受的尝试，例如任务记录写入失败
func (a *Attempt) Abort(err error) domain.GenerationResult {
	if a.finished {
		return domain.Failure(err)
	}
	defer a.finish()
	return a.fail(err)
}

func (a *Attempt) finish() {
	a.finished = true
	a.cancel()
	metrics.CodegenInFlight.Dec()
}

// runStage 为阶段绑定超时，并把 context 错误归类为取消或超时
func (a *Attempt) runStage(stage domain.Stage, timeout time.Duration, fn func(ctx context.Context) error) error {
	if err := a.contextError(stage); err != nil {
		metrics.CodegenStageErrors.WithLabelValues(string(stage), string(domain.KindOf(err))).Inc()
		return err
	}

	stageCtx := a.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(a.ctx, timeout)
		defer cancel()
	}

	started := a.o.now()
	err := fn(stageCtx)
	metrics.CodegenStageDuration.WithLabelValues(string(stage)).Observe(a.o.now().Sub(started).Seconds())
	if err == nil {
		return nil
	}

	if ctxErr := a.contextError(stage); ctxErr != nil {
		err = ctxErr
	} else if errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
		err = domain.TimeoutError(stage, stageCtx.Err())
	}
	metrics.CodegenStageErrors.WithLabelValues(string(stage), string(domain.KindOf(err))).Inc()
	return err
}

func (a *Attempt) contextError(stage domain.Stage) error {
	ctxErr := a.ctx.Err()
	switch {
	case ctxErr == nil:
		return nil
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return domain.TimeoutError(stage, ctxErr)
	default:
		return domain.CancelledError(stage, ctxErr)
	}
}

func (a *Attempt) advance(ev Event) {
	a.o.mu.Lock()
	tr, err := a.o.applyLocked(a.id, ev)
	a.o.mu.Unlock()
	if err == nil {
		a.notify(tr)
	}
}

func (a *Attempt) fail(err error) domain.GenerationResult {
	result := domain.Failure(err)
	a.o.mu.Lock()
	a.o.result = result
	tr, terr := a.o.applyLocked(a.id, EventFail)
	a.o.mu.Unlock()
	metrics.CodegenAttemptsTotal.WithLabelValues(string(domain.OutcomeFailure)).Inc()
	if terr == nil {
		a.notify(tr)
	}
	return result
}

func (a *Attempt) succeed(c *domain.Completion) domain.GenerationResult {
	result := domain.Success(c)
	a.o.mu.Lock()
	a.o.result = result
	tr, err := a.o.applyLocked(a.id, EventGenerated)
	a.o.mu.Unlock()
	metrics.CodegenAttemptsTotal.WithLabelValues(string(domain.OutcomeSuccess)).Inc()
	if err == nil {
		a.notify(tr)
	}
	return result
}

// applyLocked 按迁移表推进状态，调用方持有锁
func (o *Orchestrator) applyLocked(attempt uint64, ev Event) (Transition, error) {
	if attempt != o.attempt {
		return Transition{}, fmt.Errorf("%w: stale attempt %d (current %d)", errIllegalTransition, attempt, o.attempt)
	}
	to, ok := Next(o.state, ev)
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s on %s", errIllegalTransition, ev, o.state)
	}
	tr := Transition{Attempt: attempt, From: o.state, To: to, Event: ev, At: o.now()}
	o.state = to
	o.updatedAt = tr.At
	if !to.Busy() {
		o.cancel = nil
	}
	return tr, nil
}

func (a *Attempt) notify(tr Transition) {
	for _, obs := range a.o.observers {
		obs(tr)
	}
	for _, obs := range a.observers {
		obs(tr)
	}
}
