package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
	"time"
)

// Publisher ships a batch of aggregated log entries somewhere durable.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush cadence
	CountThreshold int           // flush early once this many unique entries accumulate
	Topic          string
	Publisher      Publisher
}

// LogEntry is one deduplicated log line with occurrence bookkeeping.
type LogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// Collector deduplicates log entries in memory and periodically publishes
// the aggregate, so a tight error loop produces one entry with a count
// instead of a flood.
type Collector struct {
	cfg     *CollectionConfig
	mu      sync.Mutex
	entries map[uint64]*LogEntry
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func NewCollector(cfg *CollectionConfig) *Collector {
	c := &Collector{
		cfg:     cfg,
		entries: make(map[uint64]*LogEntry),
		stop:    make(chan struct{}),
	}
	c.wg.Add(1)
	go c.flushLoop()
	return c
}

func (c *Collector) Add(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := entryKey(level, message, fields, caller)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		c.entries[key] = &LogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	var batch []LogEntry
	if len(c.entries) >= c.cfg.CountThreshold {
		batch = c.drainLocked()
	}
	c.mu.Unlock()

	c.publish(batch)
}

func entryKey(level, message string, fields map[string]interface{}, caller string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(level))
	h.Write([]byte(message))
	h.Write([]byte(caller))
	if len(fields) > 0 {
		// json.Marshal sorts map keys, so equal field sets hash equal.
		if b, err := json.Marshal(fields); err == nil {
			h.Write(b)
		}
	}
	return h.Sum64()
}

func (c *Collector) flushLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.publish(c.drain())
		case <-c.stop:
			c.publish(c.drain())
			return
		}
	}
}

func (c *Collector) drain() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drainLocked()
}

// drainLocked snapshots and resets the entry map; callers hold c.mu.
func (c *Collector) drainLocked() []LogEntry {
	if len(c.entries) == 0 {
		return nil
	}
	batch := make([]LogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		batch = append(batch, *e)
	}
	c.entries = make(map[uint64]*LogEntry)
	return batch
}

func (c *Collector) publish(batch []LogEntry) {
	if len(batch) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.cfg.Publisher.PublishMessage(ctx, c.cfg.Topic, batch); err != nil {
			fmt.Printf("publish aggregated logs: %v\n", err)
		}
	}()
}

// Close flushes remaining entries and stops the background loop.
func (c *Collector) Close() {
	c.once.Do(func() { close(c.stop) })
	c.wg.Wait()
}
