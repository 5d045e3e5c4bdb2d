package agent

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/botforge/botforge/internal/utils/platformerrors"
)

type stubAgent struct {
	bot string
}

func (a *stubAgent) Parse(_ context.Context, _ string) (*ParseResult, error) {
	return &ParseResult{Intent: "greet", Confidence: 1}, nil
}

func (a *stubAgent) HandleText(_ context.Context, _, _ string) ([]Message, error) {
	return []Message{{Text: "hello from " + a.bot}}, nil
}

type stubLoader struct {
	mu    sync.Mutex
	loads int64
	delay time.Duration
	fail  map[string]error
}

func (l *stubLoader) Load(_ context.Context, bot string) (Agent, error) {
	atomic.AddInt64(&l.loads, 1)
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	l.mu.Lock()
	err := l.fail[bot]
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &stubAgent{bot: bot}, nil
}

type stubBilling struct {
	billed map[string]bool
	err    error
}

func (b *stubBilling) IsBilled(_ context.Context, bot string) (bool, error) {
	if b.err != nil {
		return false, b.err
	}
	return b.billed[bot], nil
}

func newTestCache(capacity int, loader Loader, billing BillingChecker) *Cache {
	return NewCache(capacity, loader, billing, zerolog.Nop())
}

func TestCacheGetLoadsOnMiss(t *testing.T) {
	loader := &stubLoader{}
	cache := newTestCache(2, loader, &stubBilling{})

	got, err := cache.Get(context.Background(), "bot-a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected an agent")
	}
	if !cache.IsExists("bot-a") {
		t.Error("agent should be cached after Get")
	}

	if _, err := cache.Get(context.Background(), "bot-a"); err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if n := atomic.LoadInt64(&loader.loads); n != 1 {
		t.Errorf("expected 1 load, got %d", n)
	}
}

func TestCacheGetPropagatesLoadError(t *testing.T) {
	loadErr := platformerrors.NewError(context.Background(), platformerrors.LayerDomain,
		platformerrors.ErrorTypeGate, "bot bot-a has not been trained yet", nil)
	loader := &stubLoader{fail: map[string]error{"bot-a": loadErr}}
	cache := newTestCache(2, loader, &stubBilling{})

	_, err := cache.Get(context.Background(), "bot-a")
	if err == nil {
		t.Fatal("expected error for untrained bot")
	}
	if !platformerrors.IsType(err, platformerrors.ErrorTypeGate) {
		t.Errorf("expected GATE error, got %v", err)
	}
	if cache.IsExists("bot-a") {
		t.Error("failed load must not leave a cache entry")
	}
}

func TestCacheEvictsUnbilledBeforeBilled(t *testing.T) {
	loader := &stubLoader{}
	billing := &stubBilling{billed: map[string]bool{"billed-bot": true}}
	cache := newTestCache(2, loader, billing)

	ctx := context.Background()
	if _, err := cache.Get(ctx, "billed-bot"); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Get(ctx, "free-bot"); err != nil {
		t.Fatal(err)
	}

	// free-bot was touched last, but being unbilled it is still the victim.
	if _, err := cache.Get(ctx, "new-bot"); err != nil {
		t.Fatal(err)
	}

	if !cache.IsExists("billed-bot") {
		t.Error("billed bot was evicted while an unbilled one remained")
	}
	if cache.IsExists("free-bot") {
		t.Error("unbilled bot should have been evicted")
	}
	if !cache.IsExists("new-bot") {
		t.Error("new bot should be cached")
	}
}

func TestCacheEvictsLeastRecentlyUsedWithinClass(t *testing.T) {
	loader := &stubLoader{}
	cache := newTestCache(2, loader, &stubBilling{})

	ctx := context.Background()
	if _, err := cache.Get(ctx, "bot-a"); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Get(ctx, "bot-b"); err != nil {
		t.Fatal(err)
	}
	// Refresh bot-a so bot-b becomes the oldest.
	if _, err := cache.Get(ctx, "bot-a"); err != nil {
		t.Fatal(err)
	}

	if _, err := cache.Get(ctx, "bot-c"); err != nil {
		t.Fatal(err)
	}

	if !cache.IsExists("bot-a") {
		t.Error("recently used bot should survive")
	}
	if cache.IsExists("bot-b") {
		t.Error("least recently used bot should have been evicted")
	}
}

func TestCacheConcurrentGetsShareOneLoad(t *testing.T) {
	loader := &stubLoader{delay: 50 * time.Millisecond}
	cache := newTestCache(2, loader, &stubBilling{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(context.Background(), "bot-a"); err != nil {
				t.Errorf("Get failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt64(&loader.loads); n != 1 {
		t.Errorf("expected concurrent gets to share one load, got %d", n)
	}
}

func TestCacheBillingLookupFailureTreatsBotAsUnbilled(t *testing.T) {
	loader := &stubLoader{}
	billing := &stubBilling{err: errors.New("db down")}
	cache := newTestCache(1, loader, billing)

	ctx := context.Background()
	if _, err := cache.Get(ctx, "bot-a"); err != nil {
		t.Fatalf("billing failure must not block loading: %v", err)
	}
	if _, err := cache.Get(ctx, "bot-b"); err != nil {
		t.Fatal(err)
	}
	if cache.IsExists("bot-a") {
		t.Error("bot-a should have been evicted as unbilled")
	}
}

func TestNotifyReloadSkipsUncachedBot(t *testing.T) {
	loader := &stubLoader{}
	cache := newTestCache(2, loader, &stubBilling{})

	cache.NotifyReload(context.Background(), "bot-a")
	if n := atomic.LoadInt64(&loader.loads); n != 0 {
		t.Errorf("uncached bot must not trigger a load, got %d loads", n)
	}

	if _, err := cache.Get(context.Background(), "bot-a"); err != nil {
		t.Fatal(err)
	}
	cache.NotifyReload(context.Background(), "bot-a")
	if n := atomic.LoadInt64(&loader.loads); n != 2 {
		t.Errorf("cached bot should reload, got %d loads", n)
	}
}

func TestInProcessLockStoreSerialisesSameConversation(t *testing.T) {
	store := NewInProcessLockStore()

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithLock(context.Background(), "bot-a", "conv-1", func() error {
				n := atomic.AddInt32(&active, 1)
				if n > atomic.LoadInt32(&maxActive) {
					atomic.StoreInt32(&maxActive, n)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
			if err != nil {
				t.Errorf("WithLock failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if atomic.LoadInt32(&maxActive) != 1 {
		t.Errorf("expected serialised execution, saw %d concurrent holders", maxActive)
	}
}
