// Package catalog defines the venue's seats and what each one costs.  A seat
// identifier is "<ROW>-<COL>" (for example "A-5"); the row determines the
// category and the category determines the price.  The catalog is immutable
// after construction and safe for concurrent use.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSeat is returned for identifiers that are malformed or that do
// not exist in the layout.
var ErrInvalidSeat = errors.New("invalid seat")

//go:embed default_layout.yaml
var defaultLayout []byte

// Category is a pricing tier.
type Category struct {
	Name       string `yaml:"name" json:"name"`
	Label      string `yaml:"label" json:"label"`
	PriceCents int64  `yaml:"price_cents" json:"price_cents"`
}

// Row is one row of seats numbered 1..Seats.
type Row struct {
	Label    string `yaml:"row" json:"row"`
	Seats    int    `yaml:"seats" json:"seats"`
	Category string `yaml:"category" json:"category"`
}

// Layout is the on-disk description of a venue.
type Layout struct {
	Venue      string     `yaml:"venue"`
	Currency   string     `yaml:"currency"`
	Categories []Category `yaml:"categories"`
	Rows       []Row      `yaml:"rows"`
}

// Seat is a resolved catalog entry.
type Seat struct {
	ID       string   `json:"id"`
	Row      string   `json:"row"`
	Col      int      `json:"col"`
	Category Category `json:"category"`
}

// Catalog answers seat and price questions for one layout.
type Catalog struct {
	venue      string
	currency   string
	categories []Category
	rows       map[string]Row
	cats       map[string]Category
	seats      []Seat
	index      map[string]int // seat id -> position in seats
}

// New validates a layout and builds the lookup tables.
func New(l Layout) (*Catalog, error) {
	if len(l.Rows) == 0 {
		return nil, fmt.Errorf("layout has no rows")
	}
	c := &Catalog{
		venue:    l.Venue,
		currency: strings.ToLower(strings.TrimSpace(l.Currency)),
		rows:     make(map[string]Row, len(l.Rows)),
		cats:     make(map[string]Category, len(l.Categories)),
		index:    make(map[string]int),
	}
	if c.currency == "" {
		c.currency = "mxn"
	}
	for _, cat := range l.Categories {
		name := strings.ToUpper(strings.TrimSpace(cat.Name))
		if name == "" {
			return nil, fmt.Errorf("category without name")
		}
		if cat.PriceCents <= 0 {
			return nil, fmt.Errorf("category %s: price must be positive", name)
		}
		if _, dup := c.cats[name]; dup {
			return nil, fmt.Errorf("duplicate category %s", name)
		}
		cat.Name = name
		c.cats[name] = cat
		c.categories = append(c.categories, cat)
	}
	for _, r := range l.Rows {
		label := strings.ToUpper(strings.TrimSpace(r.Label))
		if label == "" || strings.Contains(label, "-") {
			return nil, fmt.Errorf("invalid row label %q", r.Label)
		}
		if r.Seats <= 0 {
			return nil, fmt.Errorf("row %s: seat count must be positive", label)
		}
		if _, dup := c.rows[label]; dup {
			return nil, fmt.Errorf("duplicate row %s", label)
		}
		cat, ok := c.cats[strings.ToUpper(r.Category)]
		if !ok {
			return nil, fmt.Errorf("row %s: unknown category %q", label, r.Category)
		}
		r.Label = label
		r.Category = cat.Name
		c.rows[label] = r
		for col := 1; col <= r.Seats; col++ {
			id := label + "-" + strconv.Itoa(col)
			c.index[id] = len(c.seats)
			c.seats = append(c.seats, Seat{ID: id, Row: label, Col: col, Category: cat})
		}
	}
	return c, nil
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return New(l)
}

// Load reads a YAML layout file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in venue: rows A-K, A is VIP, B-C preferente,
// the rest general admission.
func Default() *Catalog {
	c, err := Parse(defaultLayout)
	if err != nil {
		panic("catalog: embedded layout is invalid: " + err.Error())
	}
	return c
}

// ParseSeatID splits "A-5" into its row label and column.  The row is
// upper-cased; no layout check is made.
func ParseSeatID(id string) (string, int, error) {
	row, colStr, ok := strings.Cut(strings.TrimSpace(id), "-")
	row = strings.ToUpper(strings.TrimSpace(row))
	if !ok || row == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidSeat, id)
	}
	col, err := strconv.Atoi(strings.TrimSpace(colStr))
	if err != nil || col <= 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidSeat, id)
	}
	return row, col, nil
}

// PriceOf returns the price of a seat in the smallest currency unit.  The
// price depends only on the row.
func (c *Catalog) PriceOf(seatID string) (int64, error) {
	row, _, err := ParseSeatID(seatID)
	if err != nil {
		return 0, err
	}
	r, ok := c.rows[row]
	if !ok {
		return 0, fmt.Errorf("%w: unknown row %q", ErrInvalidSeat, row)
	}
	return c.cats[r.Category].PriceCents, nil
}

// Lookup resolves a seat, checking both the row and the column range.
func (c *Catalog) Lookup(seatID string) (Seat, error) {
	row, col, err := ParseSeatID(seatID)
	if err != nil {
		return Seat{}, err
	}
	i, ok := c.index[row+"-"+strconv.Itoa(col)]
	if !ok {
		return Seat{}, fmt.Errorf("%w: %q", ErrInvalidSeat, seatID)
	}
	return c.seats[i], nil
}

// AllSeats returns every seat id in layout order.  The slice is a copy.
func (c *Catalog) AllSeats() []string {
	out := make([]string, len(c.seats))
	for i, s := range c.seats {
		out[i] = s.ID
	}
	return out
}

// Seats returns every resolved seat in layout order.  The slice is a copy.
func (c *Catalog) Seats() []Seat {
	out := make([]Seat, len(c.seats))
	copy(out, c.seats)
	return out
}

// Categories lists the pricing tiers in declaration order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Rows lists the layout rows in order.
func (c *Catalog) Rows() []Row {
	out := make([]Row, 0, len(c.rows))
	seen := make(map[string]bool, len(c.rows))
	for _, s := range c.seats {
		if !seen[s.Row] {
			seen[s.Row] = true
			out = append(out, c.rows[s.Row])
		}
	}
	return out
}

// Currency is the ISO currency code prices are expressed in.
func (c *Catalog) Currency() string { return c.currency }

// Venue is the display name of the layout.
func (c *Catalog) Venue() string { return c.venue }

// Normalize canonicalizes a buyer's selection: ids are trimmed and
// upper-cased, duplicates dropped, every seat validated, and the result
// ordered by layout position.  An empty selection is an error.
func (c *Catalog) Normalize(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no seats selected", ErrInvalidSeat)
	}
	picked := make(map[int]struct{}, len(ids))
	for _, raw := range ids {
		s, err := c.Lookup(raw)
		if err != nil {
			return nil, err
		}
		picked[c.index[s.ID]] = struct{}{}
	}
	out := make([]string, 0, len(picked))
	for i, s := range c.seats {
		if _, ok := picked[i]; ok {
			out = append(out, s.ID)
		}
	}
	return out, nil
}

// Order sorts seat ids into layout order in place.  Unknown ids sort last,
// keeping their relative order.
func (c *Catalog) Order(ids []string) {
	pos := func(id string) int {
		if i, ok := c.index[id]; ok {
			return i
		}
		return len(c.seats)
	}
	sort.SliceStable(ids, func(i, j int) bool { return pos(ids[i]) < pos(ids[j]) })
}
