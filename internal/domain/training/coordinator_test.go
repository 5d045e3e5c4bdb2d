package training

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/botforge/botforge/internal/utils/platformerrors"
)

type fakeRepo struct {
	mu        sync.Mutex
	nextID    uint
	runs      map[uint]*Run
	completed chan uint
	gateDelay time.Duration
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{runs: make(map[uint]*Run), completed: make(chan uint, 8)}
}

func (r *fakeRepo) Create(_ context.Context, run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	run.ID = r.nextID
	copied := *run
	r.runs[run.ID] = &copied
	return nil
}

func (r *fakeRepo) Complete(_ context.Context, id uint, status Status, endTS time.Time, modelPath, exception string) error {
	r.mu.Lock()
	run, ok := r.runs[id]
	if ok && run.Status == StatusInProgress {
		run.Status = status
		run.EndTS = &endTS
		run.ModelPath = modelPath
		run.Exception = exception
	}
	r.mu.Unlock()
	if !ok {
		return errors.New("run not found")
	}
	r.completed <- id
	return nil
}

func (r *fakeRepo) FindInProgress(_ context.Context, bot string) (*Run, error) {
	// Widens the check-then-create window so interleavings show up.
	time.Sleep(r.gateDelay)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.runs {
		if run.Bot == bot && run.Status == StatusInProgress {
			copied := *run
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) CountSince(_ context.Context, bot string, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, run := range r.runs {
		if run.Bot == bot && run.StartTS.After(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) History(_ context.Context, bot string) ([]Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var history []Run
	for _, run := range r.runs {
		if run.Bot == bot {
			history = append(history, *run)
		}
	}
	return history, nil
}

func (r *fakeRepo) FailStaleRuns(_ context.Context, cutoff time.Time, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var swept int64
	for _, run := range r.runs {
		if run.Status == StatusInProgress && run.StartTS.Before(cutoff) {
			run.Status = StatusFail
			run.Exception = reason
			swept++
		}
	}
	return swept, nil
}

func (r *fakeRepo) get(id uint) Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.runs[id]
}

func (r *fakeRepo) countInProgress(bot string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int
	for _, run := range r.runs {
		if run.Bot == bot && run.Status == StatusInProgress {
			count++
		}
	}
	return count
}

// blockingTrainer holds every run open until released so an IN_PROGRESS row
// stays visible to subsequent requests.
type blockingTrainer struct {
	release chan struct{}
}

func (t *blockingTrainer) Train(_ context.Context, _ string) (string, error) {
	<-t.release
	return "m.tar.gz", nil
}

type fakeTrainer struct {
	modelPath string
	err       error
}

func (t *fakeTrainer) Train(_ context.Context, _ string) (string, error) {
	return t.modelPath, t.err
}

type fakeNotifier struct {
	mu      sync.Mutex
	reloads []string
}

func (n *fakeNotifier) NotifyReload(_ context.Context, bot string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reloads = append(n.reloads, bot)
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reloads)
}

func waitCompleted(t *testing.T, repo *fakeRepo) uint {
	t.Helper()
	select {
	case id := <-repo.completed:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("training did not reach a terminal state")
		return 0
	}
}

func TestStartTrainingSuccess(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	coordinator := NewCoordinator(repo, &fakeTrainer{modelPath: "models/bot-a/1.tar.gz"}, notifier, 5, zerolog.Nop())

	run, err := coordinator.StartTraining(context.Background(), "bot-a", "tester")
	if err != nil {
		t.Fatalf("StartTraining failed: %v", err)
	}
	if run.Status != StatusInProgress {
		t.Errorf("new run should be IN_PROGRESS, got %s", run.Status)
	}

	id := waitCompleted(t, repo)
	final := repo.get(id)
	if final.Status != StatusDone {
		t.Errorf("expected DONE, got %s", final.Status)
	}
	if final.ModelPath != "models/bot-a/1.tar.gz" {
		t.Errorf("unexpected model path %q", final.ModelPath)
	}
	if final.EndTS == nil {
		t.Error("terminal run must carry an end timestamp")
	}
	if notifier.count() != 1 {
		t.Errorf("expected one reload notification, got %d", notifier.count())
	}
}

func TestStartTrainingFailureRecordsException(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	coordinator := NewCoordinator(repo, &fakeTrainer{err: errors.New("pipeline exploded")}, notifier, 5, zerolog.Nop())

	_, err := coordinator.StartTraining(context.Background(), "bot-a", "tester")
	if err != nil {
		t.Fatalf("StartTraining failed: %v", err)
	}

	id := waitCompleted(t, repo)
	final := repo.get(id)
	if final.Status != StatusFail {
		t.Errorf("expected FAIL, got %s", final.Status)
	}
	if final.Exception != "pipeline exploded" {
		t.Errorf("unexpected exception %q", final.Exception)
	}
	if notifier.count() != 0 {
		t.Error("failed training must not notify a reload")
	}
}

func TestStartTrainingRejectsConcurrentRun(t *testing.T) {
	repo := newFakeRepo()
	coordinator := NewCoordinator(repo, &fakeTrainer{}, nil, 5, zerolog.Nop())

	// Seed an active run directly so the gate sees it.
	seed := &Run{Bot: "bot-a", User: "tester", Status: StatusInProgress, StartTS: time.Now().UTC()}
	if err := repo.Create(context.Background(), seed); err != nil {
		t.Fatal(err)
	}

	_, err := coordinator.StartTraining(context.Background(), "bot-a", "tester")
	if err == nil {
		t.Fatal("expected gate error while a run is in progress")
	}
	if !platformerrors.IsType(err, platformerrors.ErrorTypeGate) {
		t.Errorf("expected GATE error, got %v", err)
	}
}

func TestStartTrainingSimultaneousRequestsCreateOneRun(t *testing.T) {
	repo := newFakeRepo()
	repo.gateDelay = 50 * time.Millisecond
	trainer := &blockingTrainer{release: make(chan struct{})}
	coordinator := NewCoordinator(repo, trainer, nil, 5, zerolog.Nop())

	ctx := context.Background()
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := coordinator.StartTraining(ctx, "bot-a", "tester")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var started, gated int
	for err := range errs {
		switch {
		case err == nil:
			started++
		case platformerrors.IsType(err, platformerrors.ErrorTypeGate):
			gated++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if started != 1 || gated != 1 {
		t.Errorf("expected one started and one gated request, got %d started / %d gated", started, gated)
	}
	if count := repo.countInProgress("bot-a"); count != 1 {
		t.Errorf("expected exactly one IN_PROGRESS run, got %d", count)
	}

	close(trainer.release)
	waitCompleted(t, repo)
}

func TestStartTrainingMapsDuplicateRunToGate(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = ErrActiveRunExists
	coordinator := NewCoordinator(repo, &fakeTrainer{}, nil, 5, zerolog.Nop())

	_, err := coordinator.StartTraining(context.Background(), "bot-a", "tester")
	if err == nil {
		t.Fatal("expected gate error when the store rejects a duplicate active run")
	}
	if !platformerrors.IsType(err, platformerrors.ErrorTypeGate) {
		t.Errorf("expected GATE error, got %v", err)
	}
}

func TestStartTrainingEnforcesDailyLimit(t *testing.T) {
	repo := newFakeRepo()
	coordinator := NewCoordinator(repo, &fakeTrainer{modelPath: "m.tar.gz"}, nil, 2, zerolog.Nop())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := coordinator.StartTraining(ctx, "bot-a", "tester"); err != nil {
			t.Fatalf("run %d failed to start: %v", i+1, err)
		}
		waitCompleted(t, repo)
	}

	_, err := coordinator.StartTraining(ctx, "bot-a", "tester")
	if err == nil {
		t.Fatal("expected daily limit gate")
	}
	if !platformerrors.IsType(err, platformerrors.ErrorTypeGate) {
		t.Errorf("expected GATE error, got %v", err)
	}

	// Another bot is unaffected by this bot's quota.
	if _, err := coordinator.StartTraining(ctx, "bot-b", "tester"); err != nil {
		t.Errorf("other bot should not share the quota: %v", err)
	}
	waitCompleted(t, repo)
}

func TestSweepStaleRuns(t *testing.T) {
	repo := newFakeRepo()
	coordinator := NewCoordinator(repo, &fakeTrainer{}, nil, 5, zerolog.Nop())

	stale := &Run{Bot: "bot-a", Status: StatusInProgress, StartTS: time.Now().UTC().Add(-48 * time.Hour)}
	fresh := &Run{Bot: "bot-b", Status: StatusInProgress, StartTS: time.Now().UTC()}
	ctx := context.Background()
	if err := repo.Create(ctx, stale); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	swept, err := coordinator.SweepStaleRuns(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("SweepStaleRuns failed: %v", err)
	}
	if swept != 1 {
		t.Errorf("expected 1 swept run, got %d", swept)
	}
	if got := repo.get(stale.ID); got.Status != StatusFail {
		t.Errorf("stale run should be FAIL, got %s", got.Status)
	}
	if got := repo.get(fresh.ID); got.Status != StatusInProgress {
		t.Errorf("fresh run should stay IN_PROGRESS, got %s", got.Status)
	}
}
