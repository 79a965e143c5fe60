package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// CachedPrice is a market price snapshot fetched from the remote price feed.
// The natural key is (commodity, market, district, state).
type CachedPrice struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Commodity  string          `gorm:"size:100;not null;uniqueIndex:idx_price_natural_key,priority:1" json:"commodity"`
	Market     string          `gorm:"size:100;not null;uniqueIndex:idx_price_natural_key,priority:2" json:"market"`
	District   string          `gorm:"size:100;not null;uniqueIndex:idx_price_natural_key,priority:3" json:"district"`
	State      string          `gorm:"size:100;not null;uniqueIndex:idx_price_natural_key,priority:4" json:"state"`
	Variety    string          `gorm:"size:100" json:"variety,omitempty"`
	Unit       string          `gorm:"size:32" json:"unit,omitempty"`
	MinPrice   decimal.Decimal `gorm:"type:text" json:"min_price"`
	MaxPrice   decimal.Decimal `gorm:"type:text" json:"max_price"`
	ModalPrice decimal.Decimal `gorm:"type:text" json:"modal_price"`
	CachedAt   time.Time       `gorm:"index;not null" json:"cached_at"`
}

func (CachedPrice) TableName() string {
	return "cached_prices"
}

func (CachedPrice) Collection() Collection {
	return CollectionPrices
}

func (p CachedPrice) SearchFields() []string {
	return []string{p.Commodity, p.Market, p.District}
}

// PriceKey identifies a cached price by its natural key.
type PriceKey struct {
	Commodity string `json:"commodity"`
	Market    string `json:"market"`
	District  string `json:"district"`
	State     string `json:"state"`
}

func (p CachedPrice) Key() PriceKey {
	return PriceKey{Commodity: p.Commodity, Market: p.Market, District: p.District, State: p.State}
}
