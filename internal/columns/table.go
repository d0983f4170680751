package columns

import (
	"sort"
	"strings"
	"sync"
	"time"

	"telemetry_map/core-go/internal/telemetry"
)

// Sort selects the column the table is ordered by. An empty Key keeps the input order.
type Sort struct {
	Key        string `json:"key"`
	Descending bool   `json:"descending"`
}

type Header struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Icon       string `json:"icon"`
	Width      int    `json:"width"`
	Sorted     bool   `json:"sorted"`
	Descending bool   `json:"descending,omitempty"`
}

// Cell is one rendered value. Changed is set when the value differs from what was last
// served for the same node and column.
type Cell struct {
	Value   string `json:"value"`
	Changed bool   `json:"changed"`
}

type Row struct {
	NodeID string `json:"node_id"`
	Cells  []Cell `json:"cells"`
}

type Snapshot struct {
	Headers  []Header `json:"headers"`
	Width    int      `json:"width"`
	Rows     []Row    `json:"rows"`
	Resorted bool     `json:"resorted"`
}

// Table keeps the row order between passes and the cell values the client has been served.
// Row order is only recomputed when the sort or the set of node ids changes. A cell is Changed
// when it differs from the last served value, so passes nobody reads never hide a change.
type Table struct {
	mu        sync.Mutex
	sort      Sort
	sorted    bool
	order     []string
	members   map[string]struct{}
	columns   string
	displayed map[string]map[string]string
}

func NewTable() *Table {
	return &Table{
		members:   make(map[string]struct{}),
		displayed: make(map[string]map[string]string),
	}
}

// Update renders nodes under the given sort and visible columns.
func (t *Table) Update(nodes []telemetry.Node, s Sort, cols []Descriptor, now time.Time) (Snapshot, error) {
	var sortCol *Descriptor
	if s.Key != "" {
		d, err := Lookup(s.Key)
		if err != nil {
			return Snapshot{}, err
		}
		sortCol = &d
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	byID := make(map[string]telemetry.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	resorted := false
	if !t.sorted || s != t.sort || !t.sameMembers(byID) {
		t.order = orderOf(nodes, sortCol, s.Descending)
		t.members = make(map[string]struct{}, len(byID))
		for id := range byID {
			t.members[id] = struct{}{}
		}
		t.sort = s
		t.sorted = true
		resorted = true

		for id := range t.displayed {
			if _, ok := byID[id]; !ok {
				delete(t.displayed, id)
			}
		}
	}

	if sig := columnSignature(cols); sig != t.columns {
		// Values of hidden columns are forgotten so a re-enabled column is drawn afresh.
		t.displayed = make(map[string]map[string]string, len(byID))
		t.columns = sig
	}

	snap := Snapshot{
		Headers:  make([]Header, 0, len(cols)),
		Width:    TotalWidth(cols),
		Rows:     make([]Row, 0, len(t.order)),
		Resorted: resorted,
	}
	for _, d := range cols {
		snap.Headers = append(snap.Headers, Header{
			Key:        d.Key,
			Label:      d.Label,
			Icon:       d.Icon,
			Width:      d.Width,
			Sorted:     d.Key == s.Key,
			Descending: d.Key == s.Key && s.Descending,
		})
	}

	for _, id := range t.order {
		n := byID[id]
		prev := t.displayed[id]

		row := Row{NodeID: id, Cells: make([]Cell, 0, len(cols))}
		for _, d := range cols {
			value := d.Value(n, now)
			old, seen := prev[d.Key]
			row.Cells = append(row.Cells, Cell{Value: value, Changed: !seen || old != value})
		}
		snap.Rows = append(snap.Rows, row)
	}

	return snap, nil
}

// Served records the cell values of snap as displayed by the client. Snapshots rendered for a
// column set other than the current one are ignored.
func (t *Table) Served(snap Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]string, 0, len(snap.Headers))
	for _, h := range snap.Headers {
		keys = append(keys, h.Key)
	}
	if strings.Join(keys, ",") != t.columns {
		return
	}

	for _, row := range snap.Rows {
		if _, ok := t.members[row.NodeID]; !ok {
			continue
		}
		shown := t.displayed[row.NodeID]
		if shown == nil {
			shown = make(map[string]string, len(keys))
			t.displayed[row.NodeID] = shown
		}
		for i, cell := range row.Cells {
			if i < len(keys) {
				shown[keys[i]] = cell.Value
			}
		}
	}
}

func (t *Table) sameMembers(byID map[string]telemetry.Node) bool {
	if len(byID) != len(t.members) {
		return false
	}
	for id := range byID {
		if _, ok := t.members[id]; !ok {
			return false
		}
	}
	return true
}

// orderOf stable-sorts node ids, so equal values keep their input order in both directions.
func orderOf(nodes []telemetry.Node, col *Descriptor, descending bool) []string {
	sorted := make([]telemetry.Node, len(nodes))
	copy(sorted, nodes)

	if col != nil {
		sort.SliceStable(sorted, func(i, j int) bool {
			c := col.Compare(sorted[i], sorted[j])
			if descending {
				return c > 0
			}
			return c < 0
		})
	}

	ids := make([]string, 0, len(sorted))
	seen := make(map[string]struct{}, len(sorted))
	for _, n := range sorted {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		ids = append(ids, n.ID)
	}
	return ids
}

func columnSignature(cols []Descriptor) string {
	keys := make([]string, 0, len(cols))
	for _, d := range cols {
		keys = append(keys, d.Key)
	}
	return strings.Join(keys, ",")
}
