package page

import (
	"context"
	"sync"

	"github.com/z32nissan/CSGOFloat-Extension/internal/interfaces"
)

// Item is the state of one listing's float container
type Item struct {
	HasButton   bool
	ButtonLabel string
	HasMessage  bool
	Message     string
	Float       string
	Seed        string
}

type row struct {
	id   string
	item *Item
}

// Memory is an in-process Document. Rows are added bare and get their float
// container on the next Scan, like the live page.
type Memory struct {
	mu   sync.Mutex
	rows []*row
}

func NewMemory() *Memory {
	return &Memory{}
}

// AddRow appends an undecorated listing row
func (m *Memory) AddRow(listingID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, &row{id: listingID})
}

// AddListing appends a listing row that already has its float container
func (m *Memory) AddListing(listingID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, &row{id: listingID, item: newItem()})
}

// RemoveRow drops a listing row, as when the page re-renders
func (m *Memory) RemoveRow(listingID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.id == listingID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return
		}
	}
}

// Item returns a copy of the listing's float container state
func (m *Memory) Item(listingID string) (Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it := m.item(listingID); it != nil {
		return *it, true
	}
	return Item{}, false
}

// Scan decorates rows that have no float container yet and returns their ids
func (m *Memory) Scan(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var added []string
	for _, r := range m.rows {
		if r.item == nil {
			r.item = newItem()
			added = append(added, r.id)
		}
	}
	return added, nil
}

func (m *Memory) HasFloatDiv(ctx context.Context, listingID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.item(listingID) != nil, nil
}

func (m *Memory) SetButtonLabel(ctx context.Context, listingID, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it := m.item(listingID); it != nil && it.HasButton {
		it.ButtonLabel = label
	}
	return nil
}

func (m *Memory) SetMessage(ctx context.Context, listingID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it := m.item(listingID); it != nil && it.HasMessage {
		it.Message = message
	}
	return nil
}

func (m *Memory) ShowFloat(ctx context.Context, listingID string, info interfaces.ItemInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	it := m.item(listingID)
	if it == nil {
		return nil
	}
	it.HasButton = false
	it.ButtonLabel = ""
	it.HasMessage = false
	it.Message = ""
	it.Float = FloatText(info)
	it.Seed = SeedText(info)
	return nil
}

func (m *Memory) ListingIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.rows))
	for _, r := range m.rows {
		ids = append(ids, r.id)
	}
	return ids, nil
}

// Ping always succeeds
func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

func (m *Memory) item(listingID string) *Item {
	for _, r := range m.rows {
		if r.id == listingID {
			return r.item
		}
	}
	return nil
}

func newItem() *Item {
	return &Item{
		HasButton:   true,
		ButtonLabel: LabelGetFloat,
		HasMessage:  true,
	}
}
