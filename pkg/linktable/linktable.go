// Package linktable loads the tabular link dataset produced by the
// station collector and indexes it for the reconciliation engine.
//
// The dataset is UTF-8 CSV with header columns name, id and link. Rows
// are kept in file order, which is the tie-break for partial-id
// matching, and the id lookup is first-seen-wins: a repeated id keeps
// pointing at its first row while later occurrences are recorded in a
// duplicate set for diagnostics.
package linktable

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/riverlabs/gaugelink/pkg/errors"
	"github.com/riverlabs/gaugelink/pkg/logging"
)

// Required header columns. Order in the file may vary since the header
// is self-describing; resolution is by name.
const (
	columnName = "name"
	columnID   = "id"
	columnLink = "link"
)

// Row is one record of the link dataset. Rows are immutable after load.
type Row struct {
	// Name is the display name, may be empty.
	Name string

	// ID is the identifier key, trimmed of surrounding whitespace.
	// The value is case-sensitive exactly as sourced.
	ID string

	// Link is an opaque reference string (typically a URI), may be
	// empty but never absent.
	Link string
}

// Index is the loaded link table: rows in original file order plus a
// first-occurrence id lookup.
type Index struct {
	rows       []Row
	idToFirst  map[string]int
	duplicates map[string]struct{}
}

// Load reads and indexes the link table at path.
// It returns a ParseError if the file is not structurally valid CSV
// with the required header.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	idx, err := Read(f, path)
	if err != nil {
		return nil, err
	}

	logging.Debug().
		Str("file", path).
		Int("rows", idx.Len()).
		Int("unique_ids", len(idx.idToFirst)).
		Int("duplicate_ids", len(idx.duplicates)).
		Msg("Loaded link table")

	return idx, nil
}

// Read parses a link table from r. The name is used only in error
// messages, so fatal errors identify which input was malformed.
func Read(r io.Reader, name string) (*Index, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewParseError("csv", name, "missing header row", err)
	}
	if err != nil {
		return nil, errors.WrapParse("csv", name, err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, errors.NewParseError("csv", name, err.Error(), err)
	}

	idx := &Index{
		idToFirst:  make(map[string]int),
		duplicates: make(map[string]struct{}),
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Includes csv.ErrFieldCount for rows that cannot be
			// parsed into the header's columns.
			return nil, errors.WrapParse("csv", name, err)
		}

		row := Row{
			Name: strings.TrimSpace(record[cols.name]),
			ID:   strings.TrimSpace(record[cols.id]),
			Link: strings.TrimSpace(record[cols.link]),
		}

		i := len(idx.rows)
		idx.rows = append(idx.rows, row)

		if _, seen := idx.idToFirst[row.ID]; seen {
			idx.duplicates[row.ID] = struct{}{}
			continue
		}
		idx.idToFirst[row.ID] = i
	}

	return idx, nil
}

// columns holds the resolved positions of the required header columns.
type columns struct {
	name, id, link int
}

// resolveColumns maps the required column names to their positions.
// The first header cell may carry a UTF-8 BOM.
func resolveColumns(header []string) (columns, error) {
	cols := columns{name: -1, id: -1, link: -1}

	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		switch strings.ToLower(strings.TrimSpace(h)) {
		case columnName:
			cols.name = i
		case columnID:
			cols.id = i
		case columnLink:
			cols.link = i
		}
	}

	var missing []string
	if cols.name < 0 {
		missing = append(missing, columnName)
	}
	if cols.id < 0 {
		missing = append(missing, columnID)
	}
	if cols.link < 0 {
		missing = append(missing, columnLink)
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("missing required header columns: %s", strings.Join(missing, ", "))
	}

	return cols, nil
}

// Rows returns the rows in original file order.
// The returned slice must not be modified.
func (idx *Index) Rows() []Row {
	return idx.rows
}

// Row returns the row at index i.
func (idx *Index) Row(i int) Row {
	return idx.rows[i]
}

// Len returns the number of rows.
func (idx *Index) Len() int {
	return len(idx.rows)
}

// Lookup returns the index of the first row with the given id.
func (idx *Index) Lookup(id string) (int, bool) {
	i, ok := idx.idToFirst[id]
	return i, ok
}

// IsDuplicate reports whether id occurred on more than one row.
func (idx *Index) IsDuplicate(id string) bool {
	_, ok := idx.duplicates[id]
	return ok
}

// Duplicates returns the ids that occurred on more than one row,
// sorted for stable diagnostics output.
func (idx *Index) Duplicates() []string {
	ids := make([]string, 0, len(idx.duplicates))
	for id := range idx.duplicates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
