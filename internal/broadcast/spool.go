package broadcast

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Spool bus tuning. Messages older than spoolRetention are garbage collected
// by the next publisher; subscribers only replay messages newer than their
// subscription time, so late GC is harmless.
const (
	spoolRetention    = time.Minute
	spoolPollInterval = 250 * time.Millisecond
)

// SpoolBus is a cross-process Bus backed by a shared spool directory. Each
// publish drops one JSON file per message; subscribers poll the topic
// directory and consume files they have not seen yet, in filename order
// (filenames sort by publish time).
type SpoolBus struct {
	dir      string
	interval time.Duration
}

// NewSpoolBus creates a spool bus rooted at dir, creating it if needed.
func NewSpoolBus(dir string) (*SpoolBus, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &SpoolBus{dir: dir, interval: spoolPollInterval}, nil
}

func (b *SpoolBus) topicDir(topic string) string {
	return filepath.Join(b.dir, topic)
}

// Publish writes msg as a new spool file and garbage collects expired ones.
func (b *SpoolBus) Publish(topic string, msg Message) error {
	dir := b.topicDir(topic)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("%020d-%s.json", time.Now().UnixNano(), uuid.NewString())
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
		return err
	}
	b.collect(dir)
	return nil
}

// Subscribe starts a polling goroutine on topic. The returned function stops
// it; it is safe to call from any goroutine and returns after the poller has
// seen the stop signal.
func (b *SpoolBus) Subscribe(topic string, h Handler) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	since := fmt.Sprintf("%020d", time.Now().UnixNano())

	go func() {
		defer close(done)
		seen := make(map[string]bool)
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				b.drain(topic, since, seen, h)
			}
		}
	}()

	return func() {
		close(stop)
		<-done
	}
}

// drain delivers unseen spool files newer than the subscription point.
func (b *SpoolBus) drain(topic, since string, seen map[string]bool, h Handler) {
	entries, err := os.ReadDir(b.topicDir(topic))
	if err != nil {
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if seen[name] || name <= since || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		seen[name] = true
		data, err := os.ReadFile(filepath.Join(b.topicDir(topic), name))
		if err != nil {
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		h(msg)
	}
}

// collect removes spool files past the retention window.
func (b *SpoolBus) collect(dir string) {
	cutoff := fmt.Sprintf("%020d", time.Now().Add(-spoolRetention).UnixNano())
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.Name() < cutoff {
			_ = os.Remove(filepath.Join(dir, e.Name()))
		}
	}
}
