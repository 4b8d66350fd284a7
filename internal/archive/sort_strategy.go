package archive

import (
	"sort"

	"github.com/maruel/natural"
)

// Sort method constants
const (
	SortNatural    = 0 // Natural sort order (e.g., page1, page2, page10)
	SortSimple     = 1 // Simple string sort (lexicographical)
	SortEntryOrder = 2 // Order in which entries appear inside the archive
)

// PageEntry is a page file in the scratch directory together with the
// position its entry had inside the archive.
type PageEntry struct {
	Name  string
	Order int
}

// SortStrategy defines the interface for different page ordering strategies
type SortStrategy interface {
	// Sort returns a new sorted slice without modifying the original
	Sort(pages []PageEntry) []PageEntry
	// Name returns the human-readable name of the strategy
	Name() string
	// ID returns the numeric identifier for config storage
	ID() int
}

// NaturalSortStrategy orders page names numerically-aware using maruel/natural
type NaturalSortStrategy struct{}

func (s *NaturalSortStrategy) Sort(pages []PageEntry) []PageEntry {
	result := clonePages(pages)
	sort.SliceStable(result, func(i, j int) bool {
		return natural.Less(result[i].Name, result[j].Name)
	})
	return result
}

func (s *NaturalSortStrategy) Name() string {
	return "Natural"
}

func (s *NaturalSortStrategy) ID() int {
	return SortNatural
}

// SimpleSortStrategy implements lexicographical sorting
type SimpleSortStrategy struct{}

func (s *SimpleSortStrategy) Sort(pages []PageEntry) []PageEntry {
	result := clonePages(pages)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

func (s *SimpleSortStrategy) Name() string {
	return "Simple"
}

func (s *SimpleSortStrategy) ID() int {
	return SortSimple
}

// EntryOrderSortStrategy keeps the order of the entries inside the archive
type EntryOrderSortStrategy struct{}

func (s *EntryOrderSortStrategy) Sort(pages []PageEntry) []PageEntry {
	result := clonePages(pages)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Order < result[j].Order
	})
	return result
}

func (s *EntryOrderSortStrategy) Name() string {
	return "Entry Order"
}

func (s *EntryOrderSortStrategy) ID() int {
	return SortEntryOrder
}

// GetSortStrategy returns the appropriate strategy based on the sort method ID
func GetSortStrategy(sortMethod int) SortStrategy {
	switch sortMethod {
	case SortNatural:
		return &NaturalSortStrategy{}
	case SortSimple:
		return &SimpleSortStrategy{}
	case SortEntryOrder:
		return &EntryOrderSortStrategy{}
	default:
		return &NaturalSortStrategy{} // Default fallback
	}
}

// GetAllSortStrategies returns all available sort strategies
func GetAllSortStrategies() []SortStrategy {
	return []SortStrategy{
		&NaturalSortStrategy{},
		&SimpleSortStrategy{},
		&EntryOrderSortStrategy{},
	}
}

func clonePages(pages []PageEntry) []PageEntry {
	result := make([]PageEntry, len(pages))
	copy(result, pages)
	return result
}
