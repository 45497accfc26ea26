// Package sheet lays question rows out on printable worksheets and writes
// them as .xlsx workbooks.
//
// Items are placed into fixed-height vertical blocks. When a block is full
// the next one starts to its right, one blank column further on, and every
// block repeats the column headers. All grid coordinates in this package are
// 0-based; conversion to A1 references happens only when cells are written.
package sheet

// Block capacity bounds.
const (
	DefaultRowsPerBlock = 25
	MinRowsPerBlock     = 5
	MaxRowsPerBlock     = 100
)

// Worksheet bounds of the xlsx format.
const (
	MaxColumns = 16384
	MaxRows    = 1048576
)

// Default grid anchors. Rows 0-2 hold the title and info lines.
const (
	DefaultHeaderRow = 3 // block header row, data starts on the row below
	DefaultFirstCol  = 1 // column B
)

// Position is a 0-based (row, column) grid coordinate.
type Position struct {
	Row int
	Col int
}

// Layout places items into side-by-side blocks.
type Layout struct {
	RowsPerBlock int
	HeaderRow    int
	FirstCol     int
}

// NewLayout returns the default layout with the block capacity clamped into
// [MinRowsPerBlock, MaxRowsPerBlock]. A zero capacity selects the default.
func NewLayout(rowsPerBlock int) Layout {
	return Layout{
		RowsPerBlock: ClampRowsPerBlock(rowsPerBlock, MinRowsPerBlock, MaxRowsPerBlock),
		HeaderRow:    DefaultHeaderRow,
		FirstCol:     DefaultFirstCol,
	}
}

// ClampRowsPerBlock limits n to [lo, hi]; n <= 0 means DefaultRowsPerBlock.
func ClampRowsPerBlock(n, lo, hi int) int {
	if n <= 0 {
		n = DefaultRowsPerBlock
	}
	return max(lo, min(n, hi))
}

// Placement is where one item lands.
type Placement struct {
	Index      int      // Position of the item in the selection
	Block      int      // 0-based block number
	RowInBlock int      // 0-based row inside the block
	Cell       Position // First (leftmost) data cell of the item
	Header     bool     // The block header row is emitted with this item
}

// BlockOrigin returns the header cell of the first column of a block.
func (l Layout) BlockOrigin(block, numCols int) Position {
	return Position{
		Row: l.HeaderRow,
		Col: l.FirstCol + block*(numCols+1),
	}
}

// Locate returns where item i lands in a sheet with numCols columns per block.
func (l Layout) Locate(i, numCols int) Placement {
	rpb := max(l.RowsPerBlock, 1)
	block, row := i/rpb, i%rpb
	origin := l.BlockOrigin(block, numCols)
	return Placement{
		Index:      i,
		Block:      block,
		RowInBlock: row,
		Cell:       Position{Row: origin.Row + 1 + row, Col: origin.Col},
		Header:     row == 0,
	}
}

// Place returns the placement of every item in an n-item selection.
func (l Layout) Place(n, numCols int) []Placement {
	out := make([]Placement, n)
	for i := range n {
		out[i] = l.Locate(i, numCols)
	}
	return out
}

// Blocks returns how many blocks n items need.
func (l Layout) Blocks(n int) int {
	rpb := max(l.RowsPerBlock, 1)
	return (n + rpb - 1) / rpb
}

// Span returns how many grid columns, counted from column 0, n items occupy.
func (l Layout) Span(n, numCols int) int {
	if n <= 0 {
		return 0
	}
	return l.BlockOrigin(l.Blocks(n)-1, numCols).Col + numCols
}

// Capacity returns the most items whose blocks end within maxCols columns.
func (l Layout) Capacity(numCols, maxCols int) int {
	room := maxCols - l.FirstCol - numCols
	if room < 0 {
		return 0
	}
	return (room/(numCols+1) + 1) * max(l.RowsPerBlock, 1)
}

// DataRows returns how many data rows the tallest block uses.
func (l Layout) DataRows(n int) int {
	return min(n, max(l.RowsPerBlock, 1))
}
