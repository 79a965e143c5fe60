package entities

// Collection names one of the six logical tables held by the local store.
type Collection string

const (
	CollectionPrices       Collection = "prices"
	CollectionWeather      Collection = "weather"
	CollectionLessons      Collection = "lessons"
	CollectionTransactions Collection = "transactions"
	CollectionPreferences  Collection = "preferences"
	CollectionSyncQueue    Collection = "sync_queue"
)

// AllCollections lists every collection in wipe order.
var AllCollections = []Collection{
	CollectionPrices,
	CollectionWeather,
	CollectionLessons,
	CollectionTransactions,
	CollectionPreferences,
	CollectionSyncQueue,
}

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	for _, known := range AllCollections {
		if c == known {
			return true
		}
	}
	return false
}

// Record is implemented by every persisted row type.
type Record interface {
	Collection() Collection
}

// Searchable rows expose the text fields matched by store searches.
type Searchable interface {
	Record
	SearchFields() []string
}
