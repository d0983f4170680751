package telemetry

import (
	"math"
	"time"
)

// Node is a single reporting participant of a chain. Lat and Lon are nil when the
// node's location is unknown.
type Node struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Implementation string     `json:"implementation,omitempty"`
	Version        string     `json:"version,omitempty"`
	Validator      string     `json:"validator,omitempty"`
	NetworkID      string     `json:"network_id,omitempty"`
	Lat            *float64   `json:"lat,omitempty"`
	Lon            *float64   `json:"lon,omitempty"`
	City           string     `json:"city,omitempty"`
	Peers          int        `json:"peers"`
	Txs            int        `json:"txs"`
	Upload         float64    `json:"upload"`
	Download       float64    `json:"download"`
	Block          Block      `json:"block"`
	Finalized      Finalized  `json:"finalized"`
	StartupTime    *time.Time `json:"startup_time,omitempty"`
}

type Block struct {
	Height      int64          `json:"height"`
	Hash        string         `json:"hash,omitempty"`
	Time        time.Duration  `json:"time"`
	Timestamp   time.Time      `json:"timestamp"`
	Propagation *time.Duration `json:"propagation,omitempty"`
}

type Finalized struct {
	Height int64  `json:"height"`
	Hash   string `json:"hash,omitempty"`
}

// Located reports whether both coordinates are known.
func (n Node) Located() bool {
	return n.Lat != nil && n.Lon != nil
}

// ValidCoordinate reports whether lat and lon are finite and within [-90, 90] and [-180, 180].
func ValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// CoordinatesInRange reports whether every coordinate the node carries is in range. A node
// with no location passes.
func (n Node) CoordinatesInRange() bool {
	lat, lon := 0.0, 0.0
	if n.Lat != nil {
		lat = *n.Lat
	}
	if n.Lon != nil {
		lon = *n.Lon
	}
	return ValidCoordinate(lat, lon)
}

// Chain is one entry of the chain list.
type Chain struct {
	GenesisHash string `json:"genesis_hash"`
	Label       string `json:"label"`
	NodeCount   int    `json:"node_count"`
}

// Feed is one batch of updates delivered by the transport layer.
type Feed struct {
	GenesisHash string   `json:"genesis_hash"`
	Label       string   `json:"label,omitempty"`
	Upserts     []Node   `json:"upserts,omitempty"`
	Removed     []string `json:"removed,omitempty"`
}
