// Package store owns the persisted fuel-price history.
package store

import "time"

// PriceEntry is one scraped price observation.
//
// The JSON tags are the wire format of the persisted file, which is kept
// human readable and rewritten wholesale on every save.
type PriceEntry struct {
	Date     time.Time `json:"date"`
	Price    float64   `json:"price"`
	Fuel     string    `json:"fuel"`
	Postal   string    `json:"postal"`
	Station  string    `json:"station"`
	Location string    `json:"location"`
}

// Day returns the calendar day the entry was recorded on, which is the
// dedup key together with station and postal code.
func (e PriceEntry) Day() string {
	return e.Date.Format("2006-01-02")
}

// SameSlot reports whether other occupies the same (day, station, postal)
// slot as e.
func (e PriceEntry) SameSlot(other PriceEntry) bool {
	return e.Day() == other.Day() && e.Station == other.Station && e.Postal == other.Postal
}
