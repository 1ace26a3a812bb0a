package cart

import (
	"encoding/json"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printforge/storefront/internal/broadcast"
	"github.com/printforge/storefront/internal/cart/store"
	"github.com/printforge/storefront/internal/models"
)

// Topic is the fixed broadcast topic cart sync messages travel on.
const Topic = "storefront.cart"

// defaultPollInterval is the storage polling cadence used when no broadcast
// bus is available.
const defaultPollInterval = 2 * time.Second

// Coordinator is the single source of truth for the cart within one client
// instance. Every mutation goes through it; it writes through to the Store,
// publishes the new state on the Bus, and replaces its own state when a
// sibling instance publishes. Consistency across instances is eventual:
// the last snapshot observed wins, and the focus/poll resync paths bound
// divergence when a broadcast is missed.
type Coordinator struct {
	// OnChange, when set before Init, is invoked with a snapshot after
	// every state change, local or remote.
	OnChange func([]models.CartLine)

	instanceID string
	store      store.Store
	bus        broadcast.Bus
	log        *zap.Logger

	mu    sync.Mutex
	lines []models.CartLine

	// mutateMu serializes whole mutations, keeping each apply-persist-
	// broadcast pipeline atomic with respect to sibling mutations on the
	// same coordinator. Snapshots therefore reach the store in apply
	// order; without it two callers could interleave their Save calls and
	// persist the older snapshot last, which a later resync would then
	// restore. handleMessage never publishes, so holding mutateMu across
	// a synchronous bus delivery cannot deadlock.
	mutateMu sync.Mutex

	unsubscribe func()
	pollStop    chan struct{}
	pollDone    chan struct{}
	initialized bool
}

// NewCoordinator creates a coordinator bound to a store and a broadcast bus.
// bus may be nil; the coordinator then degrades to storage polling only.
// A fresh random instance identifier is generated per coordinator, never
// persisted, so sibling instances can tell each other's messages apart.
func NewCoordinator(st store.Store, bus broadcast.Bus, log *zap.Logger) *Coordinator {
	return &Coordinator{
		instanceID: uuid.NewString(),
		store:      st,
		bus:        bus,
		log:        log,
	}
}

// InstanceID returns the per-instance sender identifier.
func (c *Coordinator) InstanceID() string { return c.instanceID }

// Init hydrates the cart from the store and subscribes to the sync topic.
// Store read failures degrade to an empty cart. Without a bus the
// coordinator starts a storage poller instead, so convergence does not
// depend solely on focus events. Init must be called exactly once before
// any other method.
func (c *Coordinator) Init() {
	lines, err := c.store.Load()
	if err != nil {
		c.log.Warn("cart load failed, starting empty", zap.Error(err))
		lines = []models.CartLine{}
	}
	c.mu.Lock()
	c.lines = lines
	c.initialized = true
	c.mu.Unlock()

	if c.bus != nil {
		c.unsubscribe = c.bus.Subscribe(Topic, c.handleMessage)
		return
	}
	c.pollStop = make(chan struct{})
	c.pollDone = make(chan struct{})
	go c.poll(defaultPollInterval)
}

// Dispose releases the broadcast subscription and the storage poller.
// It is safe to call more than once.
func (c *Coordinator) Dispose() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	if c.pollStop != nil {
		close(c.pollStop)
		<-c.pollDone
		c.pollStop = nil
	}
}

// Cart returns a snapshot of the current in-memory cart.
func (c *Coordinator) Cart() []models.CartLine {
	c.checkInit()
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make([]models.CartLine, len(c.lines))
	copy(snapshot, c.lines)
	return snapshot
}

// AddToCart merges line into the cart under the (productID, color,
// filamentType) identity. A line without a product id is rejected without
// any side effect.
func (c *Coordinator) AddToCart(line models.CartLine) {
	c.checkInit()
	if line.ProductID == 0 {
		return
	}
	c.mutate(AddToCart{Line: line})
}

// RemoveFromCart removes the line matching the identity of line.
func (c *Coordinator) RemoveFromCart(line models.CartLine) {
	c.checkInit()
	c.mutate(RemoveFromCart{Line: line})
}

// UpdateQuantity sets the quantity on the matching line. A quantity of zero
// or less removes the line.
func (c *Coordinator) UpdateQuantity(line models.CartLine, quantity int) {
	c.checkInit()
	c.mutate(UpdateQuantity{Line: line, Quantity: quantity})
}

// ClearCart empties the cart.
func (c *Coordinator) ClearCart() {
	c.checkInit()
	c.mutate(Clear{})
}

// mutate applies cmd, then persists and broadcasts the new state in that
// order. Neither sink failure rolls the state back; both are best effort
// and logged. mutateMu holds the whole pipeline so snapshots hit the
// store in the order they were applied; the state lock alone covers the
// in-memory slice for readers and incoming sync messages.
func (c *Coordinator) mutate(cmd Command) {
	c.mutateMu.Lock()
	defer c.mutateMu.Unlock()

	c.mu.Lock()
	c.lines = Apply(c.lines, cmd)
	snapshot := make([]models.CartLine, len(c.lines))
	copy(snapshot, c.lines)
	c.mu.Unlock()

	if err := c.store.Save(snapshot); err != nil {
		c.log.Warn("cart persist failed", zap.Error(err))
	}
	c.publish(snapshot)
	c.notify(snapshot)
}

func (c *Coordinator) publish(snapshot []models.CartLine) {
	if c.bus == nil {
		return
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		c.log.Warn("cart broadcast encode failed", zap.Error(err))
		return
	}
	msg := broadcast.Message{Type: broadcast.SyncType, Sender: c.instanceID, Payload: payload}
	if err := c.bus.Publish(Topic, msg); err != nil {
		c.log.Warn("cart broadcast failed", zap.Error(err))
	}
}

// handleMessage replaces the in-memory cart with a sibling's snapshot.
// The sender already persisted, so the receiver neither re-persists nor
// re-broadcasts — re-broadcasting would echo forever.
func (c *Coordinator) handleMessage(msg broadcast.Message) {
	if msg.Type != broadcast.SyncType || msg.Sender == c.instanceID {
		return
	}
	var lines []models.CartLine
	if err := json.Unmarshal(msg.Payload, &lines); err != nil {
		c.log.Warn("cart sync message ignored", zap.Error(err))
		return
	}
	if lines == nil {
		lines = []models.CartLine{}
	}
	c.mu.Lock()
	c.lines = lines
	c.mu.Unlock()
	c.notify(lines)
}

// HandleFocus re-reads the store and replaces the in-memory cart if the
// persisted value differs. This is the fallback resync for a missed
// broadcast (instance suspended, bus unavailable).
func (c *Coordinator) HandleFocus() {
	c.checkInit()
	c.resyncFromStore()
}

func (c *Coordinator) resyncFromStore() {
	stored, err := c.store.Load()
	if err != nil {
		c.log.Warn("cart resync read failed", zap.Error(err))
		return
	}
	c.mu.Lock()
	if reflect.DeepEqual(c.lines, stored) {
		c.mu.Unlock()
		return
	}
	c.lines = stored
	c.mu.Unlock()
	c.notify(stored)
}

func (c *Coordinator) poll(interval time.Duration) {
	defer close(c.pollDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.pollStop:
			return
		case <-ticker.C:
			c.resyncFromStore()
		}
	}
}

func (c *Coordinator) notify(snapshot []models.CartLine) {
	if c.OnChange != nil {
		c.OnChange(snapshot)
	}
}

// checkInit panics when the coordinator is used before Init: that is a
// wiring bug, not a runtime condition.
func (c *Coordinator) checkInit() {
	c.mu.Lock()
	ok := c.initialized
	c.mu.Unlock()
	if !ok {
		panic("cart: coordinator used before Init")
	}
}
