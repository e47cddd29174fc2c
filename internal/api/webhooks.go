package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/mmo-worldgen/internal/eventbus"
	"github.com/annel0/mmo-worldgen/internal/logging"
)

// Webhook forwards world events to an HTTP endpoint.
type Webhook struct {
	ID           string     `json:"id"`
	Name         string     `json:"name" binding:"required"`
	URL          string     `json:"url" binding:"required,url"`
	Secret       string     `json:"secret,omitempty"`
	Events       []string   `json:"events" binding:"required"` // event types, "*" for all
	Active       bool       `json:"active"`
	Timeout      int        `json:"timeout"` // seconds
	RetryCount   int        `json:"retry_count"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUsed     *time.Time `json:"last_used,omitempty"`
	FailureCount int        `json:"failure_count"`
}

func (w *Webhook) subscribed(eventType string) bool {
	for _, e := range w.Events {
		if e == eventType || e == "*" {
			return true
		}
	}
	return false
}

// WebhookManager delivers bus events to registered webhooks.
type WebhookManager struct {
	mu         sync.RWMutex
	webhooks   map[string]*Webhook
	queue      chan *eventbus.Envelope
	httpClient *http.Client
	log        *logging.Logger
	backoff    time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewWebhookManager starts the delivery worker.
func NewWebhookManager(log *logging.Logger) *WebhookManager {
	if log == nil {
		log = logging.GetAPILogger()
	}
	m := &WebhookManager{
		webhooks:   make(map[string]*Webhook),
		queue:      make(chan *eventbus.Envelope, 1000),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
		backoff:    time.Second,
		stop:       make(chan struct{}),
	}
	m.wg.Add(1)
	go m.worker()
	return m
}

// Attach subscribes the manager to every world event on bus.
func (m *WebhookManager) Attach(ctx context.Context, bus eventbus.EventBus) (eventbus.Subscription, error) {
	return bus.Subscribe(ctx, eventbus.Filter{}, func(_ context.Context, ev *eventbus.Envelope) {
		m.Enqueue(ev)
	})
}

// Enqueue schedules ev for delivery; it is dropped when the queue is full.
func (m *WebhookManager) Enqueue(ev *eventbus.Envelope) {
	select {
	case m.queue <- ev:
	default:
		m.log.Warn("webhook queue full, dropping %s %s", ev.EventType, ev.ID)
	}
}

func (m *WebhookManager) Add(w Webhook) *Webhook {
	m.mu.Lock()
	defer m.mu.Unlock()

	w.ID = uuid.NewString()
	w.CreatedAt = time.Now().UTC()
	w.Active = true
	if w.Timeout == 0 {
		w.Timeout = 30
	}
	if w.RetryCount == 0 {
		w.RetryCount = 3
	}

	m.webhooks[w.ID] = &w
	copied := w
	return &copied
}

// List returns copies ordered by creation time.
func (m *WebhookManager) List() []Webhook {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Webhook, 0, len(m.webhooks))
	for _, w := range m.webhooks {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *WebhookManager) Get(id string) (Webhook, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.webhooks[id]
	if !ok {
		return Webhook{}, false
	}
	return *w, true
}

func (m *WebhookManager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.webhooks[id]; !ok {
		return false
	}
	delete(m.webhooks, id)
	return true
}

// Stop ends delivery. Queued events are discarded.
func (m *WebhookManager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()
}

func (m *WebhookManager) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stop:
			return
		case ev := <-m.queue:
			m.dispatch(ev)
		}
	}
}

func (m *WebhookManager) dispatch(ev *eventbus.Envelope) {
	m.mu.RLock()
	var targets []*Webhook
	for _, w := range m.webhooks {
		if w.Active && w.subscribed(ev.EventType) {
			targets = append(targets, w)
		}
	}
	m.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		m.log.Error("encode %s for webhooks: %v", ev.EventType, err)
		return
	}

	for _, w := range targets {
		m.wg.Add(1)
		go func(w *Webhook) {
			defer m.wg.Done()
			m.deliver(w, ev.EventType, body)
		}(w)
	}
}

func (m *WebhookManager) deliver(w *Webhook, eventType string, body []byte) {
	m.mu.RLock()
	name, url, secret := w.Name, w.URL, w.Secret
	timeout, retries := time.Duration(w.Timeout)*time.Second, w.RetryCount
	m.mu.RUnlock()

	success := false
	for attempt := 0; attempt <= retries && !success; attempt++ {
		if attempt > 0 {
			select {
			case <-m.stop:
				return
			case <-time.After(time.Duration(attempt) * m.backoff):
			}
		}
		err := m.post(url, secret, eventType, body, timeout)
		if err == nil {
			success = true
			break
		}
		m.log.Warn("webhook %s attempt %d/%d: %v", name, attempt+1, retries+1, err)
	}

	m.mu.Lock()
	now := time.Now().UTC()
	w.LastUsed = &now
	if !success {
		w.FailureCount++
	}
	m.mu.Unlock()
}

func (m *WebhookManager) post(url, secret, eventType string, body []byte, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "worldgen/1.0")
	req.Header.Set("X-Event-Type", eventType)
	if secret != "" {
		req.Header.Set("X-Webhook-Signature", Sign(body, secret))
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the HMAC-SHA256 signature header value for body.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// EventTypes lists the event types a webhook can subscribe to.
func EventTypes() []string {
	return []string{
		eventbus.EventZoneCreated,
		eventbus.EventRoomsCarved,
		eventbus.EventEntityMoved,
	}
}
