package audit

import (
	"strconv"
	"time"
)

// Field is one audited column with its rendered value. A nil Value is NULL.
type Field struct {
	Name  string
	Value *string
}

// Change is a field whose rendered value differs between two versions.
type Change struct {
	Field string
	Old   *string
	New   *string
}

const dateLayout = "2006-01-02"

func String(name, v string) Field { return Field{Name: name, Value: &v} }

func OptString(name string, v *string) Field {
	if v == nil {
		return Field{Name: name}
	}
	return String(name, *v)
}

// Text renders any string-backed enum.
func Text[S ~string](name string, v S) Field { return String(name, string(v)) }

func OptText[S ~string](name string, v *S) Field {
	if v == nil {
		return Field{Name: name}
	}
	return Text(name, *v)
}

func Int(name string, v int) Field { return String(name, strconv.Itoa(v)) }

func OptInt(name string, v *int) Field {
	if v == nil {
		return Field{Name: name}
	}
	return Int(name, *v)
}

func ID(name string, v uint) Field { return String(name, strconv.FormatUint(uint64(v), 10)) }

func OptID(name string, v *uint) Field {
	if v == nil {
		return Field{Name: name}
	}
	return ID(name, *v)
}

func Decimal(name string, v float64) Field {
	return String(name, strconv.FormatFloat(v, 'f', -1, 64))
}

func Date(name string, v time.Time) Field { return String(name, v.Format(dateLayout)) }

func OptDate(name string, v *time.Time) Field {
	if v == nil {
		return Field{Name: name}
	}
	return Date(name, *v)
}

func equal(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Diff compares two renderings of the same record field by field, in the
// order of before. Fields missing from after are treated as NULL.
func Diff(before, after []Field) []Change {
	byName := make(map[string]*string, len(after))
	for _, f := range after {
		byName[f.Name] = f.Value
	}

	var changes []Change
	for _, f := range before {
		nv := byName[f.Name]
		if !equal(f.Value, nv) {
			changes = append(changes, Change{Field: f.Name, Old: f.Value, New: nv})
		}
	}
	return changes
}
