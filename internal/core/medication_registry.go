package core

import "healthsync.ai/companion/internal/observe"

type MedicationItem struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Time      string `json:"time"`
	Frequency string `json:"frequency"`
	Notes     string `json:"notes"`
	IsTaken   bool   `json:"is_taken"`
	Icon      string `json:"icon"`
}

type MedicationSummary struct {
	Total      int `json:"total"`
	Taken      int `json:"taken"`
	Compliance int `json:"compliance"` // percent, truncated
}

// MedicationRegistry is an ordered in-memory list of reminders. Every
// mutation publishes a fresh slice, so snapshots handed out earlier are never
// modified. Operations on an id that is not present do nothing.
type MedicationRegistry struct {
	items *observe.Value[[]MedicationItem]
}

func NewMedicationRegistry(initial ...MedicationItem) *MedicationRegistry {
	items := make([]MedicationItem, len(initial))
	copy(items, initial)
	return &MedicationRegistry{items: observe.NewValue(items)}
}

// DefaultMedications is the demo list shown on first launch.
func DefaultMedications() []MedicationItem {
	return []MedicationItem{
		{ID: 1, Name: "Paracetamol", Dosage: "500mg", Time: "8:00 AM", Frequency: "Daily", Icon: "close"},
		{ID: 2, Name: "Ibuprofen", Dosage: "200mg", Time: "2:00 PM", Frequency: "Every 8 hours", Icon: "location_on"},
	}
}

func (r *MedicationRegistry) State() *observe.Value[[]MedicationItem] {
	return r.items
}

func (r *MedicationRegistry) List() []MedicationItem {
	items := r.items.Get()
	out := make([]MedicationItem, len(items))
	copy(out, items)
	return out
}

func (r *MedicationRegistry) Get(id int) (MedicationItem, bool) {
	for _, item := range r.items.Get() {
		if item.ID == id {
			return item, true
		}
	}
	return MedicationItem{}, false
}

// Add appends item with id max(existing)+1 and returns the stored item.
func (r *MedicationRegistry) Add(item MedicationItem) MedicationItem {
	r.items.Update(func(items []MedicationItem) []MedicationItem {
		maxID := 0
		for _, it := range items {
			if it.ID > maxID {
				maxID = it.ID
			}
		}
		item.ID = maxID + 1
		next := make([]MedicationItem, 0, len(items)+1)
		next = append(next, items...)
		return append(next, item)
	})
	return item
}

// Update replaces the item with the same id, keeping its position.
func (r *MedicationRegistry) Update(item MedicationItem) bool {
	return r.replace(item.ID, func(MedicationItem) MedicationItem { return item })
}

func (r *MedicationRegistry) ToggleTaken(item MedicationItem) bool {
	return r.replace(item.ID, func(old MedicationItem) MedicationItem {
		old.IsTaken = !old.IsTaken
		return old
	})
}

func (r *MedicationRegistry) Delete(item MedicationItem) bool {
	found := false
	r.items.Update(func(items []MedicationItem) []MedicationItem {
		next := make([]MedicationItem, 0, len(items))
		for _, it := range items {
			if it.ID == item.ID {
				found = true
				continue
			}
			next = append(next, it)
		}
		if !found {
			return items
		}
		return next
	})
	return found
}

func (r *MedicationRegistry) Summary() MedicationSummary {
	items := r.items.Get()
	summary := MedicationSummary{Total: len(items)}
	for _, it := range items {
		if it.IsTaken {
			summary.Taken++
		}
	}
	if summary.Total > 0 {
		summary.Compliance = summary.Taken * 100 / summary.Total
	}
	return summary
}

func (r *MedicationRegistry) replace(id int, fn func(MedicationItem) MedicationItem) bool {
	found := false
	r.items.Update(func(items []MedicationItem) []MedicationItem {
		next := make([]MedicationItem, len(items))
		for i, it := range items {
			if it.ID == id {
				found = true
				next[i] = fn(it)
			} else {
				next[i] = it
			}
		}
		if !found {
			return items
		}
		return next
	})
	return found
}
