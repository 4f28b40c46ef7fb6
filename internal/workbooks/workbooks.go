// Package workbooks manages the excelize file handles backing the local
// store: a TTL-bearing cache with read/write locking and a capacity gate.
package workbooks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/ainetwork-ai/google-sheet-mcp/config"
)

// Handle is an in-memory workbook reference with TTL metadata and a
// monotonically increasing write version.
type Handle struct {
	ID        string
	File      *excelize.File
	LoadedAt  time.Time
	ExpiresAt time.Time
	version   int64
	mu        sync.RWMutex
}

// Gate coordinates capacity for open workbook handles (backed by
// runtime.Controller in production).
type Gate interface {
	AcquireSpreadsheet(ctx context.Context) error
	ReleaseSpreadsheet()
}

// PathValidator abstracts filesystem path validation. Implementations return
// a canonical absolute path when allowed, or an error when denied.
type PathValidator interface {
	ValidateOpenPath(path string) (string, error)
}

// ErrHandleNotFound indicates an unknown or expired handle ID.
var ErrHandleNotFound = errors.New("workbooks: handle not found")

// Manager owns workbook lifecycle: opening, TTL eviction, and locked access.
type Manager struct {
	mu           sync.RWMutex
	handles      map[string]*Handle
	ttl          time.Duration
	cleanupEvery time.Duration
	clock        func() time.Time
	gate         Gate
	validator    PathValidator
	stopCh       chan struct{}
	cleanupWG    sync.WaitGroup
}

// NewManager constructs a lifecycle manager. Pass ttl or cleanupEvery <= 0
// for defaults; gate and clock may be nil (no capacity gate, wall clock).
func NewManager(ttl, cleanupEvery time.Duration, gate Gate, clock func() time.Time) *Manager {
	if ttl <= 0 {
		ttl = config.DefaultSpreadsheetIdleTTL
	}
	if cleanupEvery <= 0 {
		cleanupEvery = config.DefaultSpreadsheetCleanupTick
	}
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		handles:      make(map[string]*Handle),
		ttl:          ttl,
		cleanupEvery: cleanupEvery,
		clock:        clock,
		gate:         gate,
		stopCh:       make(chan struct{}),
	}
}

// SetPathValidator installs an allow-list validator consulted by Open.
func (m *Manager) SetPathValidator(v PathValidator) { m.validator = v }

// Start launches periodic eviction of expired handles.
func (m *Manager) Start() {
	m.cleanupWG.Add(1)
	ticker := time.NewTicker(m.cleanupEvery)
	go func() {
		defer m.cleanupWG.Done()
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.EvictExpired()
			}
		}
	}()
}

// Close stops background cleanup and closes all open handles.
func (m *Manager) Close(ctx context.Context) error {
	close(m.stopCh)
	done := make(chan struct{})
	go func() { m.cleanupWG.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, h := range m.handles {
		h.mu.Lock()
		_ = h.File.Close()
		h.mu.Unlock()
		delete(m.handles, id)
		m.release()
	}
	return nil
}

// Open opens a workbook from path, registers a TTL-bearing handle, and
// returns its ID. Capacity is enforced via the gate when one is configured.
func (m *Manager) Open(ctx context.Context, path string) (string, error) {
	if err := m.acquire(ctx); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
	default:
		m.release()
		return "", fmt.Errorf("workbooks: unsupported format: %s", ext)
	}

	if m.validator != nil {
		canonical, err := m.validator.ValidateOpenPath(path)
		if err != nil {
			m.release()
			return "", err
		}
		path = canonical
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		m.release()
		return "", err
	}
	return m.register(f), nil
}

// Adopt registers an existing excelize.File as a managed handle. Used by the
// local store for newly created spreadsheets and by tests.
func (m *Manager) Adopt(ctx context.Context, f *excelize.File) (string, error) {
	if f == nil {
		return "", fmt.Errorf("workbooks: nil file")
	}
	if err := m.acquire(ctx); err != nil {
		return "", err
	}
	return m.register(f), nil
}

func (m *Manager) register(f *excelize.File) string {
	now := m.clock()
	h := &Handle{
		ID:        uuid.NewString(),
		File:      f,
		LoadedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}
	m.mu.Lock()
	m.handles[h.ID] = h
	m.mu.Unlock()
	return h.ID
}

// Get returns the handle when present and refreshes its TTL (idle timeout
// semantics).
func (m *Manager) Get(id string) (*Handle, bool) {
	m.mu.RLock()
	h, ok := m.handles[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	now := m.clock()
	h.mu.Lock()
	h.ExpiresAt = now.Add(m.ttl)
	h.mu.Unlock()
	return h, true
}

// WithRead executes fn under the handle's shared read lock. The callback
// receives the current write version for cache-coherency checks.
func (m *Manager) WithRead(id string, fn func(f *excelize.File, version int64) error) error {
	h, ok := m.Get(id)
	if !ok {
		return ErrHandleNotFound
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return fn(h.File, h.version)
}

// WithWrite executes fn under the handle's exclusive lock and bumps the
// write version when fn succeeds.
func (m *Manager) WithWrite(id string, fn func(f *excelize.File) error) error {
	h, ok := m.Get(id)
	if !ok {
		return ErrHandleNotFound
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := fn(h.File); err != nil {
		return err
	}
	h.version++
	return nil
}

// CloseHandle closes and removes a handle by ID, releasing gate capacity.
func (m *Manager) CloseHandle(ctx context.Context, id string) error {
	m.mu.Lock()
	h, ok := m.handles[id]
	if ok {
		delete(m.handles, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrHandleNotFound
	}
	h.mu.Lock()
	err := h.File.Close()
	h.mu.Unlock()
	m.release()
	return err
}

// EvictExpired scans for expired handles and closes them.
func (m *Manager) EvictExpired() {
	now := m.clock()
	var expired []*Handle
	var expiredIDs []string

	m.mu.RLock()
	for id, h := range m.handles {
		h.mu.RLock()
		isExpired := now.After(h.ExpiresAt)
		h.mu.RUnlock()
		if isExpired {
			expired = append(expired, h)
			expiredIDs = append(expiredIDs, id)
		}
	}
	m.mu.RUnlock()

	for i, h := range expired {
		h.mu.Lock()
		_ = h.File.Close()
		h.mu.Unlock()

		m.mu.Lock()
		delete(m.handles, expiredIDs[i])
		m.mu.Unlock()
		m.release()
	}
}

// Count returns the current number of cached handles.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handles)
}

func (m *Manager) acquire(ctx context.Context) error {
	if m.gate == nil {
		return nil
	}
	return m.gate.AcquireSpreadsheet(ctx)
}

func (m *Manager) release() {
	if m.gate == nil {
		return
	}
	m.gate.ReleaseSpreadsheet()
}
