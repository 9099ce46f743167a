package mcver

// Cell is one entry of the historical drop table. A cell maps the drop
// Year.Drop onto the classic 1.Minor line, where hotfix h of the drop is
// classic patch Baseline+h. MaxHotfix bounds h, or is -1 if the drop is open
// ended.
type Cell struct {
	Year      int `json:"year"`
	Drop      int `json:"drop"`
	Minor     int `json:"minor"`
	Baseline  int `json:"baseline"`
	MaxHotfix int `json:"max_hotfix"`
}

// history lists every classic line in release order. All cells sharing a
// minor must be contiguous and ordered by baseline, and the last one of each
// minor catches any patch the earlier ones don't contain.
var history = [...]Cell{
	{11, 1, 0, 0, -1},

	{12, 1, 1, 0, -1},
	{12, 2, 2, 0, -1},
	{12, 3, 3, 0, -1},
	{12, 4, 4, 0, -1},

	{13, 1, 5, 0, -1},
	{13, 2, 6, 0, -1},
	{13, 3, 7, 0, -1},

	{14, 1, 8, 0, -1},

	{16, 1, 9, 0, -1},
	{16, 2, 10, 0, -1},
	{16, 3, 11, 0, -1},

	{17, 1, 12, 0, -1},
	{18, 1, 13, 0, -1},

	{19, 1, 14, 0, -1},
	{19, 2, 15, 0, -1},

	{20, 1, 16, 0, -1},

	{21, 1, 17, 0, -1},
	{21, 2, 18, 0, -1},

	{22, 1, 19, 0, -1},
	{23, 1, 20, 0, -1},

	{24, 1, 21, 0, 4},
	{25, 1, 21, 5, 0},
	{25, 2, 21, 6, 2},
	{25, 3, 21, 9, 1},
	{25, 4, 21, 11, -1},
}

type dropKey struct{ year, drop int }

var (
	cellsByMinor = map[int][]Cell{}
	cellsByDrop  = map[dropKey]Cell{}
)

func init() {
	for _, c := range history {
		cellsByMinor[c.Minor] = append(cellsByMinor[c.Minor], c)
		cellsByDrop[dropKey{c.Year, c.Drop}] = c
	}
}

// Table returns a copy of the historical table.
func Table() []Cell {
	t := make([]Cell, len(history))
	copy(t, history[:])
	return t
}

// containsHotfix checks whether hotfix h is part of the cell.
func (c Cell) containsHotfix(h int) bool {
	return h >= 0 && (c.MaxHotfix < 0 || h <= c.MaxHotfix)
}

// classicCell finds the cell for classic 1.minor.patch.
func classicCell(minor, patch int) (Cell, bool) {
	cs := cellsByMinor[minor]
	if len(cs) == 0 {
		return Cell{}, false
	}
	for _, c := range cs {
		if h, ok := addInt(patch, -c.Baseline); ok && c.containsHotfix(h) {
			return c, true
		}
	}
	return cs[len(cs)-1], true
}

// dropCell finds the classic minor and patch for year.drop.hotfix. The bool
// is false if the combination has no classic equivalent.
func dropCell(year, drop, hotfix int) (minor, patch int, ok bool) {
	c, ok := cellsByDrop[dropKey{year, drop}]
	if !ok || !c.containsHotfix(hotfix) {
		return 0, 0, false
	}
	if patch, ok = addInt(c.Baseline, hotfix); !ok {
		return 0, 0, false
	}
	return c.Minor, patch, true
}
