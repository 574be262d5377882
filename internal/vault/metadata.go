package vault

import "github.com/google/uuid"

// Metadata holds database-wide auxiliary state that isn't part of the group
// tree: custom icons and free-form custom key/value data.
type Metadata struct {
	HistoryMaxItems int

	customIconsOrder []uuid.UUID
	customIcons      map[uuid.UUID][]byte

	CustomData *CustomData
}

// NewMetadata returns an empty Metadata with the given history cap.
func NewMetadata(historyMaxItems int) *Metadata {
	return &Metadata{
		HistoryMaxItems: historyMaxItems,
		customIcons:     make(map[uuid.UUID][]byte),
		CustomData:      NewCustomData(),
	}
}

// CustomIconsOrder returns custom icon UUIDs in insertion order.
func (m *Metadata) CustomIconsOrder() []uuid.UUID {
	out := make([]uuid.UUID, len(m.customIconsOrder))
	copy(out, m.customIconsOrder)
	return out
}

// HasCustomIcon reports whether id is already registered.
func (m *Metadata) HasCustomIcon(id uuid.UUID) bool {
	_, ok := m.customIcons[id]
	return ok
}

// CustomIcon returns the raw icon bytes for id.
func (m *Metadata) CustomIcon(id uuid.UUID) []byte {
	return m.customIcons[id]
}

// AddCustomIcon registers icon data under id, appending to the order if new.
func (m *Metadata) AddCustomIcon(id uuid.UUID, data []byte) {
	if _, ok := m.customIcons[id]; !ok {
		m.customIconsOrder = append(m.customIconsOrder, id)
	}
	m.customIcons[id] = data
}
