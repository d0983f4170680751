package columns

import (
	"cmp"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"telemetry_map/core-go/internal/telemetry"
)

var ErrUnknownColumn = errors.New("columns: unknown column")

// Descriptor describes one table column. Setting is the settings key that toggles the column;
// columns with an empty Setting are always shown.
type Descriptor struct {
	Key     string
	Label   string
	Icon    string
	Width   int
	Setting string
	Compare func(a, b telemetry.Node) int
	Value   func(n telemetry.Node, now time.Time) string
}

var registry = []Descriptor{
	{
		Key:     "name",
		Label:   "Node",
		Icon:    "node-name.svg",
		Width:   0,
		Compare: func(a, b telemetry.Node) int { return compareFold(a.Name, b.Name) },
		Value:   func(n telemetry.Node, _ time.Time) string { return n.Name },
	},
	{
		Key:     "validator",
		Label:   "Validator",
		Icon:    "shield.svg",
		Width:   16,
		Setting: "validator",
		Compare: func(a, b telemetry.Node) int { return compareFold(a.Validator, b.Validator) },
		Value:   func(n telemetry.Node, _ time.Time) string { return orDash(n.Validator) },
	},
	{
		Key:     "location",
		Label:   "Location",
		Icon:    "location.svg",
		Width:   140,
		Setting: "location",
		Compare: func(a, b telemetry.Node) int { return compareFold(a.City, b.City) },
		Value:   func(n telemetry.Node, _ time.Time) string { return orDash(n.City) },
	},
	{
		Key:     "implementation",
		Label:   "Implementation",
		Icon:    "terminal.svg",
		Width:   90,
		Setting: "implementation",
		Compare: func(a, b telemetry.Node) int {
			if c := compareFold(a.Implementation, b.Implementation); c != 0 {
				return c
			}
			return strings.Compare(a.Version, b.Version)
		},
		Value: func(n telemetry.Node, _ time.Time) string {
			if n.Version == "" {
				return orDash(n.Implementation)
			}
			return strings.TrimSpace(n.Implementation + " v" + n.Version)
		},
	},
	{
		Key:     "network_id",
		Label:   "Network ID",
		Icon:    "fingerprint.svg",
		Width:   90,
		Setting: "networkId",
		Compare: func(a, b telemetry.Node) int { return strings.Compare(a.NetworkID, b.NetworkID) },
		Value:   func(n telemetry.Node, _ time.Time) string { return orDash(n.NetworkID) },
	},
	{
		Key:     "peers",
		Label:   "Peer Count",
		Icon:    "broadcast.svg",
		Width:   26,
		Setting: "peers",
		Compare: func(a, b telemetry.Node) int { return cmp.Compare(a.Peers, b.Peers) },
		Value:   func(n telemetry.Node, _ time.Time) string { return humanize.Comma(int64(n.Peers)) },
	},
	{
		Key:     "txs",
		Label:   "Transactions in Queue",
		Icon:    "inbox.svg",
		Width:   26,
		Setting: "txs",
		Compare: func(a, b telemetry.Node) int { return cmp.Compare(a.Txs, b.Txs) },
		Value:   func(n telemetry.Node, _ time.Time) string { return humanize.Comma(int64(n.Txs)) },
	},
	{
		Key:     "upload",
		Label:   "Upload Bandwidth",
		Icon:    "cloud-upload.svg",
		Width:   65,
		Setting: "upload",
		Compare: func(a, b telemetry.Node) int { return cmp.Compare(a.Upload, b.Upload) },
		Value:   func(n telemetry.Node, _ time.Time) string { return bytesPerSecond(n.Upload) },
	},
	{
		Key:     "download",
		Label:   "Download Bandwidth",
		Icon:    "cloud-download.svg",
		Width:   65,
		Setting: "download",
		Compare: func(a, b telemetry.Node) int { return cmp.Compare(a.Download, b.Download) },
		Value:   func(n telemetry.Node, _ time.Time) string { return bytesPerSecond(n.Download) },
	},
	{
		Key:     "block",
		Label:   "Block",
		Icon:    "cube.svg",
		Width:   88,
		Setting: "blocknumber",
		Compare: func(a, b telemetry.Node) int { return cmp.Compare(a.Block.Height, b.Block.Height) },
		Value:   func(n telemetry.Node, _ time.Time) string { return "#" + humanize.Comma(n.Block.Height) },
	},
	{
		Key:     "block_hash",
		Label:   "Block Hash",
		Icon:    "file-binary.svg",
		Width:   154,
		Setting: "blockhash",
		Compare: func(a, b telemetry.Node) int { return strings.Compare(a.Block.Hash, b.Block.Hash) },
		Value:   func(n telemetry.Node, _ time.Time) string { return orDash(n.Block.Hash) },
	},
	{
		Key:     "finalized",
		Label:   "Finalized Block",
		Icon:    "cube-alt.svg",
		Width:   88,
		Setting: "finalized",
		Compare: func(a, b telemetry.Node) int { return cmp.Compare(a.Finalized.Height, b.Finalized.Height) },
		Value:   func(n telemetry.Node, _ time.Time) string { return "#" + humanize.Comma(n.Finalized.Height) },
	},
	{
		Key:     "finalized_hash",
		Label:   "Finalized Block Hash",
		Icon:    "file-binary.svg",
		Width:   154,
		Setting: "finalizedhash",
		Compare: func(a, b telemetry.Node) int { return strings.Compare(a.Finalized.Hash, b.Finalized.Hash) },
		Value:   func(n telemetry.Node, _ time.Time) string { return orDash(n.Finalized.Hash) },
	},
	{
		Key:     "block_time",
		Label:   "Block Time",
		Icon:    "history.svg",
		Width:   80,
		Setting: "blocktime",
		Compare: func(a, b telemetry.Node) int { return cmp.Compare(a.Block.Time, b.Block.Time) },
		Value: func(n telemetry.Node, _ time.Time) string {
			return fmt.Sprintf("%.3fs", n.Block.Time.Seconds())
		},
	},
	{
		Key:     "propagation",
		Label:   "Block Propagation Time",
		Icon:    "dashboard.svg",
		Width:   58,
		Setting: "blockpropagation",
		Compare: func(a, b telemetry.Node) int { return compareOptionalDuration(a.Block.Propagation, b.Block.Propagation) },
		Value: func(n telemetry.Node, _ time.Time) string {
			if n.Block.Propagation == nil {
				return "-"
			}
			return fmt.Sprintf("%dms", n.Block.Propagation.Milliseconds())
		},
	},
	{
		Key:     "last_block",
		Label:   "Last Block Time",
		Icon:    "watch.svg",
		Width:   100,
		Setting: "blocklasttime",
		Compare: func(a, b telemetry.Node) int { return a.Block.Timestamp.Compare(b.Block.Timestamp) },
		Value: func(n telemetry.Node, now time.Time) string {
			if n.Block.Timestamp.IsZero() {
				return "-"
			}
			return humanize.RelTime(n.Block.Timestamp, now, "ago", "from now")
		},
	},
	{
		Key:     "uptime",
		Label:   "Node Uptime",
		Icon:    "pulse.svg",
		Width:   58,
		Setting: "uptime",
		Compare: func(a, b telemetry.Node) int { return compareOptionalTime(a.StartupTime, b.StartupTime) },
		Value: func(n telemetry.Node, now time.Time) string {
			if n.StartupTime == nil {
				return "-"
			}
			return strings.TrimSpace(humanize.RelTime(*n.StartupTime, now, "", ""))
		},
	},
}

// All returns the registry in display order.
func All() []Descriptor {
	out := make([]Descriptor, len(registry))
	copy(out, registry)
	return out
}

func Lookup(key string) (Descriptor, error) {
	for _, d := range registry {
		if d.Key == key {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownColumn, key)
}

// Settings lists every settings key a column can be toggled by.
func Settings() []string {
	out := make([]string, 0, len(registry))
	for _, d := range registry {
		if d.Setting != "" {
			out = append(out, d.Setting)
		}
	}
	return out
}

// Enabled filters the registry down to the columns visible under settings.
func Enabled(settings map[string]bool) []Descriptor {
	out := make([]Descriptor, 0, len(registry))
	for _, d := range registry {
		if d.Setting == "" || settings[d.Setting] {
			out = append(out, d)
		}
	}
	return out
}

func TotalWidth(cols []Descriptor) int {
	total := 0
	for _, d := range cols {
		total += d.Width
	}
	return total
}

func compareFold(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Unknown durations and times sort after known ones.
func compareOptionalDuration(a, b *time.Duration) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return cmp.Compare(*a, *b)
	}
}

func compareOptionalTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

func bytesPerSecond(v float64) string {
	if v <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(v)) + "/s"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
