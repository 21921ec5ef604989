// Package attr reads the semi-structured attribute bag attached to catalog
// records. A bag may arrive as a native map, as JSON text (sometimes encoded
// twice), or not at all; every form decodes to a Bag and malformed input
// decodes to an empty one.
package attr

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// Bag is an immutable attribute name -> value mapping. The zero value is an
// empty bag.
type Bag struct {
	m map[string]any
}

// FromMap builds a bag from a native map. The map is copied.
func FromMap(m map[string]any) Bag {
	if len(m) == 0 {
		return Bag{}
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Bag{m: cp}
}

// FromJSON decodes a JSON object. A JSON string holding an encoded object is
// unwrapped once. Anything else yields an empty bag.
func FromJSON(data []byte) Bag {
	return fromJSON(data, 1)
}

func fromJSON(data []byte, unwrap int) Bag {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Bag{}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Bag{}
	}

	switch t := v.(type) {
	case map[string]any:
		return Bag{m: t}
	case string:
		if unwrap > 0 {
			return fromJSON([]byte(t), unwrap-1)
		}
	}
	return Bag{}
}

// Parse accepts any of the physical encodings seen in catalog data: a Bag,
// a native map, JSON text or bytes, or nil.
func Parse(v any) Bag {
	switch t := v.(type) {
	case nil:
		return Bag{}
	case Bag:
		return t
	case *Bag:
		if t == nil {
			return Bag{}
		}
		return *t
	case map[string]any:
		return FromMap(t)
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, s := range t {
			m[k] = s
		}
		return Bag{m: m}
	case string:
		return FromJSON([]byte(t))
	case []byte:
		return FromJSON(t)
	case json.RawMessage:
		return FromJSON(t)
	default:
		return Bag{}
	}
}

// Len returns the number of attributes.
func (b Bag) Len() int {
	return len(b.m)
}

// Get returns the raw value stored under name. A nil value counts as absent.
func (b Bag) Get(name string) (any, bool) {
	v, ok := b.m[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Has reports whether name holds a non-nil value.
func (b Bag) Has(name string) bool {
	_, ok := b.Get(name)
	return ok
}

// String returns the value as trimmed text. Numbers and booleans are
// formatted; blank text is absent.
func (b Bag) String(name string) (string, bool) {
	v, ok := b.Get(name)
	if !ok {
		return "", false
	}
	s, ok := toString(v)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Number returns the value as a decimal. Text is parsed locale-agnostically:
// grouping spaces are dropped, a lone comma is a decimal separator, and with
// both ',' and '.' the last one is the decimal point. A value that does not
// coerce, including ambiguous grouping, NaN and infinities, is absent.
func (b Bag) Number(name string) (decimal.Decimal, bool) {
	v, ok := b.Get(name)
	if !ok {
		return decimal.Zero, false
	}
	return ToNumber(v)
}

// Bool reports whether the value is an affirmative. Absent or unrecognised
// values are false.
func (b Bag) Bool(name string) bool {
	v, ok := b.Get(name)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return isTruthy(t)
	}
	if d, ok := ToNumber(v); ok {
		return !d.IsZero()
	}
	return false
}

// List returns the value as a list of non-blank strings. It accepts a JSON
// array, a JSON array encoded as text, or comma separated text.
func (b Bag) List(name string) []string {
	v, ok := b.Get(name)
	if !ok {
		return nil
	}

	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case []string:
		for _, s := range t {
			items = append(items, s)
		}
	case string:
		s := strings.TrimSpace(t)
		if strings.HasPrefix(s, "[") {
			dec := json.NewDecoder(strings.NewReader(s))
			dec.UseNumber()
			if err := dec.Decode(&items); err == nil {
				break
			}
			items = nil
		}
		for _, part := range strings.Split(s, ",") {
			items = append(items, part)
		}
	default:
		items = []any{v}
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := toString(it); ok && s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Keys returns the attribute names in sorted order.
func (b Bag) Keys() []string {
	keys := make([]string, 0, len(b.m))
	for k := range b.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WithPrefix returns the attributes whose names start with prefix, keyed by
// the remainder of the name.
func (b Bag) WithPrefix(prefix string) map[string]any {
	out := make(map[string]any)
	for k, v := range b.m {
		if rest, ok := strings.CutPrefix(k, prefix); ok && rest != "" && v != nil {
			out[rest] = v
		}
	}
	return out
}

// Map returns a copy of the underlying map.
func (b Bag) Map() map[string]any {
	cp := make(map[string]any, len(b.m))
	for k, v := range b.m {
		cp[k] = v
	}
	return cp
}

// MarshalJSON encodes the bag as a JSON object.
func (b Bag) MarshalJSON() ([]byte, error) {
	if b.m == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(b.m)
	if err != nil {
		return nil, eris.Wrap(err, "attr: marshal bag")
	}
	return data, nil
}

// UnmarshalJSON accepts an object or a string holding an encoded object.
// Anything else leaves the bag empty without failing the enclosing document.
func (b *Bag) UnmarshalJSON(data []byte) error {
	*b = FromJSON(data)
	return nil
}

// Scan implements sql.Scanner for TEXT / JSON / JSONB columns.
func (b *Bag) Scan(src any) error {
	*b = Parse(src)
	return nil
}

// Value implements driver.Valuer, storing the bag as JSON text.
func (b Bag) Value() (driver.Value, error) {
	data, err := b.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// ToNumber coerces a raw attribute value to a decimal.
func ToNumber(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, true
	case json.Number:
		return parseNumber(string(t))
	case string:
		return parseNumber(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(t), true
	case float32:
		if f := float64(t); math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int32:
		return decimal.NewFromInt32(t), true
	case int64:
		return decimal.NewFromInt(t), true
	}
	return decimal.Zero, false
}

func parseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "_", "").Replace(s)

	s, ok := normalizeSeparators(s)
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// normalizeSeparators rewrites s to use '.' as the only decimal separator.
// With both ',' and '.' present the last one is the decimal point and the
// other must group the integer part in threes. A single ',' is a decimal
// point; repeated ',' must be valid grouping. Anything else is rejected.
func normalizeSeparators(s string) (string, bool) {
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma < 0:
		return s, true
	case dot < 0:
		if strings.Count(s, ",") == 1 {
			return strings.Replace(s, ",", ".", 1), true
		}
		if !validGrouping(s, ',') {
			return "", false
		}
		return strings.ReplaceAll(s, ",", ""), true
	}

	decSep, groupSep := byte('.'), byte(',')
	sep := dot
	if comma > dot {
		decSep, groupSep, sep = ',', '.', comma
	}
	intPart, frac := s[:sep], s[sep+1:]
	if strings.IndexByte(frac, ',') >= 0 || strings.IndexByte(frac, '.') >= 0 ||
		strings.IndexByte(intPart, decSep) >= 0 || !validGrouping(intPart, groupSep) {
		return "", false
	}
	return strings.ReplaceAll(intPart, string(groupSep), "") + "." + frac, true
}

// validGrouping reports whether s splits on sep into a leading group of one
// to three digits followed by groups of exactly three.
func validGrouping(s string, sep byte) bool {
	s = strings.TrimLeft(s, "+-")
	groups := strings.Split(s, string(sep))
	if len(groups) < 2 {
		return false
	}
	for i, g := range groups {
		if !isDigits(g) || (i == 0 && len(g) > 3) || (i > 0 && len(g) != 3) {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func toString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case decimal.Decimal:
		return t.String(), true
	}
	return "", false
}

var truthy = map[string]bool{
	"true": true,
	"1":    true,
	"yes":  true,
	"y":    true,
	"on":   true,
	"да":   true,
}

func isTruthy(s string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(s))]
}
