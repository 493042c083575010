package compiler

import (
	"slices"

	"cloud.google.com/go/civil"
	"cuelang.org/go/cue"
	"github.com/shopspring/decimal"
)

func lookup(v cue.Value, key string) cue.Value {
	return v.LookupPath(cue.MakePath(cue.Str(key)))
}

func has(v cue.Value, key string) bool {
	return lookup(v, key).Exists()
}

func isString(v cue.Value) bool { return v.Kind() == cue.StringKind }
func isList(v cue.Value) bool   { return v.Kind() == cue.ListKind }
func isStruct(v cue.Value) bool { return v.Kind() == cue.StructKind }
func isNumber(v cue.Value) bool { return v.Kind()&cue.NumberKind != 0 }

func join(path, elem string) string {
	if path == "" {
		return elem
	}
	return path + "." + elem
}

func stringOf(v cue.Value, field string) (string, error) {
	if !v.Exists() {
		return "", fail(InvalidSource, field, v, "required field is missing")
	}
	s, err := v.String()
	if err != nil {
		return "", fail(InvalidSource, field, v, "expected string")
	}
	return s, nil
}

func requireString(v cue.Value, key, field string) (string, error) {
	return stringOf(lookup(v, key), join(field, key))
}

// decimalOf reads a number from its literal text so that no binary float
// conversion happens on the way into the IR.
func decimalOf(v cue.Value, field string) (decimal.Decimal, error) {
	if !v.Exists() {
		return decimal.Decimal{}, fail(InvalidSource, field, v, "required field is missing")
	}
	if !isNumber(v) {
		return decimal.Decimal{}, fail(InvalidSource, field, v, "expected number")
	}
	raw, err := v.MarshalJSON()
	if err != nil {
		return decimal.Decimal{}, formatCUEError(field, err)
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Decimal{}, fail(InvalidSource, field, v, "invalid number %s", raw)
	}
	return d, nil
}

func requireDecimal(v cue.Value, key, field string) (decimal.Decimal, error) {
	return decimalOf(lookup(v, key), join(field, key))
}

// optDecimal returns def when key is absent.
func optDecimal(v cue.Value, key, field string, def decimal.Decimal) (decimal.Decimal, error) {
	if !has(v, key) {
		return def, nil
	}
	return requireDecimal(v, key, field)
}

func intOf(v cue.Value, field string) (int, error) {
	if !v.Exists() {
		return 0, fail(InvalidSource, field, v, "required field is missing")
	}
	n, err := v.Int64()
	if err != nil {
		return 0, fail(InvalidSource, field, v, "expected integer")
	}
	return int(n), nil
}

func requireInt(v cue.Value, key, field string) (int, error) {
	return intOf(lookup(v, key), join(field, key))
}

func dateOf(v cue.Value, field string) (civil.Date, error) {
	s, err := stringOf(v, field)
	if err != nil {
		return civil.Date{}, err
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fail(InvalidSource, field, v, "expected YYYY-MM-DD date, got %q", s)
	}
	return d, nil
}

func requireDate(v cue.Value, key, field string) (civil.Date, error) {
	return dateOf(lookup(v, key), join(field, key))
}

// optDate returns nil when key is absent.
func optDate(v cue.Value, key, field string) (*civil.Date, error) {
	if !has(v, key) {
		return nil, nil
	}
	d, err := requireDate(v, key, field)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func listOf(v cue.Value, field string) ([]cue.Value, error) {
	if !isList(v) {
		return nil, fail(InvalidSource, field, v, "expected list")
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(field, err)
	}
	var out []cue.Value
	for iter.Next() {
		out = append(out, iter.Value())
	}
	return out, nil
}

// names reads a single name or a list of names, normalized to a list.
func names(v cue.Value, field string) ([]string, error) {
	if isString(v) {
		s, _ := v.String()
		return []string{s}, nil
	}
	elems, err := listOf(v, field)
	if err != nil {
		return nil, fail(InvalidSource, field, v, "expected a name or a list of names")
	}
	return namesOf(elems, field)
}

func namesOf(elems []cue.Value, field string) ([]string, error) {
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		s, err := stringOf(e, field)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// head splits a [op, args...] list. ok is false when v is not a list
// starting with a string.
func head(v cue.Value) (op string, args []cue.Value, ok bool) {
	if !isList(v) {
		return "", nil, false
	}
	elems, err := listOf(v, "")
	if err != nil || len(elems) == 0 || !isString(elems[0]) {
		return "", nil, false
	}
	op, _ = elems[0].String()
	return op, elems[1:], true
}

// singleKey returns the only field of a one-field struct.
// closedKeys rejects any field of the struct v outside allowed.
func closedKeys(v cue.Value, field string, allowed ...string) error {
	iter, err := v.Fields()
	if err != nil {
		return fail(InvalidSource, field, v, "expected struct")
	}
	for iter.Next() {
		key := iter.Selector().Unquoted()
		if !slices.Contains(allowed, key) {
			return fail(UnmatchedEntityVariant, join(field, key), iter.Value(), "unknown field %q", key)
		}
	}
	return nil
}

// presentKeys lists which of keys the struct v carries, in keys order.
func presentKeys(v cue.Value, keys ...string) []string {
	var out []string
	for _, k := range keys {
		if has(v, k) {
			out = append(out, k)
		}
	}
	return out
}

func singleKey(v cue.Value) (string, cue.Value, bool) {
	if !isStruct(v) {
		return "", cue.Value{}, false
	}
	iter, err := v.Fields()
	if err != nil || !iter.Next() {
		return "", cue.Value{}, false
	}
	key, val := iter.Selector().Unquoted(), iter.Value()
	if iter.Next() {
		return "", cue.Value{}, false
	}
	return key, val, true
}

// entity is one named member of an entity collection.
type entity struct {
	name  string
	value cue.Value
}

// entities reads an entity collection: a struct keyed by name, or a list
// of [name, attributes] pairs. Source order is kept; a repeated name in
// the list form is a DuplicateName.
func entities(v cue.Value, category, field string) ([]entity, error) {
	if !v.Exists() {
		return nil, nil
	}
	var out []entity
	switch {
	case isStruct(v):
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(field, err)
		}
		for iter.Next() {
			out = append(out, entity{name: iter.Selector().Unquoted(), value: iter.Value()})
		}
		return out, nil
	case isList(v):
		elems, err := listOf(v, field)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(elems))
		for _, e := range elems {
			pair, err := listOf(e, field)
			if err != nil || len(pair) != 2 {
				return nil, fail(InvalidSource, field, e, "expected [name, attributes]")
			}
			name, err := stringOf(pair[0], field)
			if err != nil {
				return nil, err
			}
			if seen[name] {
				return nil, fail(DuplicateName, join(field, name), e, "%s %q declared more than once", category, name)
			}
			seen[name] = true
			out = append(out, entity{name: name, value: pair[1]})
		}
		return out, nil
	}
	return nil, fail(InvalidSource, field, v, "expected a struct keyed by name or a list of [name, attributes]")
}
