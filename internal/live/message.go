// Package live ingests the real-time market feed: newline-delimited
// JSON messages, each carrying one station's full price board plus
// station metadata. Messages are applied wholesale through the store's
// board replacement, never field-merged.
package live

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

// Message is one feed message: a station's complete market snapshot.
type Message struct {
	Timestamp            string      `json:"timestamp"`
	SystemName           string      `json:"systemName"`
	StationName          string      `json:"stationName"`
	StationType          string      `json:"stationType"`
	CarrierDockingAccess string      `json:"carrierDockingAccess"`
	MarketID             int64       `json:"marketId"`
	Commodities          []Commodity `json:"commodities"`
}

// Commodity is one board line within a Message.
type Commodity struct {
	Name          string `json:"name"`
	BuyPrice      int64  `json:"buyPrice"`
	SellPrice     int64  `json:"sellPrice"`
	Stock         int64  `json:"stock"`
	StockBracket  int64  `json:"stockBracket"`
	Demand        int64  `json:"demand"`
	DemandBracket int64  `json:"demandBracket"`
}

// parseMessage decodes and validates one feed line.
func parseMessage(line []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return Message{}, fmt.Errorf("decode feed message: %w", err)
	}
	if strings.TrimSpace(msg.SystemName) == "" || strings.TrimSpace(msg.StationName) == "" {
		return Message{}, fmt.Errorf("feed message missing system or station name")
	}
	return msg, nil
}

// IsCarrier reports whether the message describes a fleet carrier.
func (m Message) IsCarrier() bool {
	return m.StationType == types.StationTypeFleetCarrier
}

// Time returns the message timestamp, zero when absent or unparseable.
func (m Message) Time() time.Time {
	if m.Timestamp == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, m.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// board converts the message commodities into price entries for the
// resolved station. Symbols are normalized so feed variants line up
// with the catalog.
func (m Message) board(stationID int64) []types.PriceEntry {
	ts := m.Time()
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	entries := make([]types.PriceEntry, 0, len(m.Commodities))
	for _, c := range m.Commodities {
		if c.Name == "" {
			continue
		}
		entries = append(entries, types.PriceEntry{
			Commodity:   types.NormalizeSymbol(c.Name),
			BuyPrice:    c.BuyPrice,
			SellPrice:   c.SellPrice,
			Supply:      c.Stock,
			SupplyLevel: c.StockBracket,
			Demand:      c.Demand,
			DemandLevel: c.DemandBracket,
			Modified:    ts,
			StationID:   stationID,
		})
	}
	return entries
}
