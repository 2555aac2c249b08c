// Package cache provides an LRU cache of per-file analysis reports keyed
// by source content hash, with msgpack disk persistence between runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/pycritic/pkg/diagnostic"
)

// Key derives the cache key for a source file. The key covers the file
// content and a fingerprint of the analysis configuration, so editing the
// file or changing thresholds both invalidate the entry. The path does not
// participate: identical content anywhere yields identical findings.
func Key(src []byte, configFingerprint string) string {
	h := sha256.New()
	h.Write(src)
	io.WriteString(h, "\x00")
	io.WriteString(h, configFingerprint)
	return hex.EncodeToString(h.Sum(nil))
}

// Entry is one cached report with access metadata.
type Entry struct {
	Key        string             `msgpack:"key"`
	Report     *diagnostic.Report `msgpack:"report"`
	AccessedAt time.Time          `msgpack:"accessed_at"`
	CreatedAt  time.Time          `msgpack:"created_at"`
}

// ReportCache is an in-memory LRU cache of analysis reports with optional
// disk persistence.
type ReportCache struct {
	mu      sync.Mutex
	items   map[string]*listItem
	lru     *lruList
	maxSize int

	hits   int64
	misses int64
}

type listItem struct {
	Entry
	prev *listItem
	next *listItem
}

// lruList is a doubly-linked list, most recently used at the front.
type lruList struct {
	head *listItem
	tail *listItem
	len  int
}

func (l *lruList) moveToFront(item *listItem) {
	if item == l.head {
		return
	}
	if item.prev != nil {
		item.prev.next = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	}
	if item == l.tail {
		l.tail = item.prev
	}
	item.prev = nil
	item.next = l.head
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
}

func (l *lruList) pushFront(item *listItem) {
	item.next = l.head
	item.prev = nil
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
	l.len++
}

func (l *lruList) removeBack() *listItem {
	if l.tail == nil {
		return nil
	}
	item := l.tail
	l.tail = item.prev
	if l.tail != nil {
		l.tail.next = nil
	} else {
		l.head = nil
	}
	l.len--
	return item
}

// New creates a report cache holding at most maxSize entries; 0 means
// unlimited.
func New(maxSize int) *ReportCache {
	return &ReportCache{
		items:   make(map[string]*listItem),
		lru:     &lruList{},
		maxSize: maxSize,
	}
}

// Get retrieves a cached report by key.
func (c *ReportCache) Get(key string) (*diagnostic.Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		c.misses++
		return nil, false
	}
	c.hits++
	item.AccessedAt = time.Now()
	c.lru.moveToFront(item)
	return item.Report, true
}

// Put stores a report, evicting the least recently used entries when the
// cache is over capacity.
func (c *ReportCache) Put(key string, report *diagnostic.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, exists := c.items[key]; exists {
		item.Report = report
		item.AccessedAt = time.Now()
		c.lru.moveToFront(item)
		return
	}

	item := &listItem{Entry: Entry{
		Key:        key,
		Report:     report,
		AccessedAt: time.Now(),
		CreatedAt:  time.Now(),
	}}
	c.items[key] = item
	c.lru.pushFront(item)

	for c.maxSize > 0 && c.lru.len > c.maxSize {
		evicted := c.lru.removeBack()
		if evicted == nil {
			break
		}
		delete(c.items, evicted.Key)
	}
}

// Len returns the number of cached entries.
func (c *ReportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear removes all entries.
func (c *ReportCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*listItem)
	c.lru = &lruList{}
}

// Stats reports hit and miss counts since the cache was created or loaded.
type Stats struct {
	Length int   `json:"length"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Stats returns the current counters.
func (c *ReportCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Length: len(c.items), Hits: c.hits, Misses: c.misses}
}

// Save persists the cache to a writer using msgpack, most recently used
// entries last so Load restores the recency order.
func (c *ReportCache) Save(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]Entry, 0, c.lru.len)
	for item := c.lru.tail; item != nil; item = item.prev {
		entries = append(entries, item.Entry)
	}
	return msgpack.NewEncoder(w).Encode(entries)
}

// Load replaces the cache content from a reader.
func (c *ReportCache) Load(r io.Reader) error {
	var entries []Entry
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*listItem, len(entries))
	c.lru = &lruList{}
	for _, entry := range entries {
		item := &listItem{Entry: entry}
		c.items[entry.Key] = item
		c.lru.pushFront(item)
	}
	return nil
}

// PersistToFile saves the cache to a file.
func PersistToFile(c *ReportCache, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer f.Close()
	return c.Save(f)
}

// LoadFromFile loads the cache from a file. A missing file leaves the
// cache empty and is not an error.
func LoadFromFile(c *ReportCache, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()
	return c.Load(f)
}
