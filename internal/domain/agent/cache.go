package agent

import (
	"container/heap"
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/botforge/botforge/internal/infrastructure/metrics"
	"github.com/botforge/botforge/internal/utils/platformerrors"
)

// entry is one cached agent with its eviction key. index is maintained by
// the heap so key updates can sift in O(log n).
type entry struct {
	bot        string
	agent      Agent
	isBilled   bool
	lastAccess time.Time
	index      int
}

// priorityQueue orders entries by eviction priority: unbilled before billed,
// then least-recently-accessed first. The root is always the next victim.
type priorityQueue []*entry

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].isBilled != pq[j].isBilled {
		return !pq[i].isBilled
	}
	return pq[i].lastAccess.Before(pq[j].lastAccess)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*entry)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// Cache is a bounded in-process map of bot to loaded agent. On insert into a
// full cache the lowest-priority entry is evicted: a billed entry is never
// evicted while an unbilled one remains, and within a billing class the
// least-recently-accessed loses. Concurrent Get calls for the same missing
// bot share a single reload.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*entry
	queue    priorityQueue

	loader  Loader
	billing BillingChecker
	group   singleflight.Group
	log     zerolog.Logger
}

// NewCache creates an agent cache with the given fixed capacity.
func NewCache(capacity int, loader Loader, billing BillingChecker, log zerolog.Logger) *Cache {
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*entry),
		queue:    make(priorityQueue, 0, capacity),
		loader:   loader,
		billing:  billing,
		log:      log,
	}
}

// Get returns the cached agent for the bot, loading it on a miss. The access
// timestamp is refreshed on every hit.
func (c *Cache) Get(ctx context.Context, bot string) (Agent, error) {
	c.mu.Lock()
	if cached, ok := c.entries[bot]; ok {
		cached.lastAccess = time.Now().UTC()
		heap.Fix(&c.queue, cached.index)
		c.mu.Unlock()
		metrics.CacheHits.Inc()
		return cached.agent, nil
	}
	c.mu.Unlock()

	metrics.CacheMisses.Inc()
	if err := c.Reload(ctx, bot); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	cached, ok := c.entries[bot]
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeGate,
			fmt.Sprintf("bot %s has not been trained yet", bot), nil)
	}
	cached.lastAccess = time.Now().UTC()
	heap.Fix(&c.queue, cached.index)
	return cached.agent, nil
}

// Reload loads the latest artefact for the bot and replaces its cache entry.
// Concurrent reloads of the same bot collapse into one load.
func (c *Cache) Reload(ctx context.Context, bot string) error {
	_, err, _ := c.group.Do(bot, func() (any, error) {
		loaded, err := c.loader.Load(ctx, bot)
		if err != nil {
			c.log.Error().Err(err).Str("bot", bot).Msg("failed to load agent")
			return nil, err
		}
		isBilled := false
		if c.billing != nil {
			billed, err := c.billing.IsBilled(ctx, bot)
			if err != nil {
				c.log.Warn().Err(err).Str("bot", bot).Msg("billing lookup failed, treating bot as unbilled")
			} else {
				isBilled = billed
			}
		}
		c.put(bot, loaded, isBilled)
		return nil, nil
	})
	return err
}

func (c *Cache) put(bot string, loaded Agent, isBilled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := c.entries[bot]; ok {
		existing.agent = loaded
		existing.isBilled = isBilled
		existing.lastAccess = now
		heap.Fix(&c.queue, existing.index)
		return
	}

	if len(c.entries) >= c.capacity {
		victim := heap.Pop(&c.queue).(*entry)
		delete(c.entries, victim.bot)
		metrics.CacheEvictions.WithLabelValues(strconv.FormatBool(victim.isBilled)).Inc()
		c.log.Info().
			Str("evicted_bot", victim.bot).
			Bool("billed", victim.isBilled).
			Str("for_bot", bot).
			Msg("evicted agent from cache")
	}

	item := &entry{bot: bot, agent: loaded, isBilled: isBilled, lastAccess: now}
	heap.Push(&c.queue, item)
	c.entries[bot] = item
}

// IsExists reports whether the bot currently has a cached agent.
func (c *Cache) IsExists(bot string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[bot]
	return ok
}

// Len returns the number of cached agents.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// NotifyReload implements training.ReloadNotifier. A bot that is not cached
// is skipped; it will be loaded lazily on its next query.
func (c *Cache) NotifyReload(ctx context.Context, bot string) {
	if !c.IsExists(bot) {
		return
	}
	if err := c.Reload(ctx, bot); err != nil {
		c.log.Error().Err(err).Str("bot", bot).Msg("post-training agent reload failed")
	}
}
