package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
)

// StringList is an ordered list of plain strings (colors, sizes, photo names...).
// Relational stores keep it as a JSON text column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	return jsonValue([]string(l))
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var out []string
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	*l = StringList(out)
	return nil
}

// ContainsAny reports whether the list shares at least one value with want.
func (l StringList) ContainsAny(want []string) bool {
	for _, w := range want {
		if slices.Contains(l, w) {
			return true
		}
	}
	return false
}

// IDList is an ordered sequence of opaque entity identifiers. Insertion order
// is preserved and duplicates are allowed.
type IDList []string

// Value implements driver.Valuer.
func (l IDList) Value() (driver.Value, error) {
	return jsonValue([]string(l))
}

// Scan implements sql.Scanner.
func (l *IDList) Scan(src any) error {
	var out []string
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	*l = IDList(out)
	return nil
}

// Contains reports whether id occurs at least once.
func (l IDList) Contains(id string) bool {
	return slices.Contains(l, id)
}

// Without returns a copy with every occurrence of id removed.
func (l IDList) Without(id string) IDList {
	out := make(IDList, 0, len(l))
	for _, v := range l {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Toggle returns a copy of the list with id flipped: when present its first
// occurrence is removed, otherwise it is appended once. The boolean is true
// when the id was appended.
func (l IDList) Toggle(id string) (IDList, bool) {
	idx := slices.Index(l, id)
	if idx < 0 {
		out := make(IDList, 0, len(l)+1)
		out = append(out, l...)
		return append(out, id), true
	}
	out := make(IDList, 0, len(l)-1)
	out = append(out, l[:idx]...)
	return append(out, l[idx+1:]...), false
}

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}
