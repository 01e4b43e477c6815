package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestRendering(t *testing.T) {
	day := time.Date(2024, 3, 9, 15, 4, 0, 0, time.UTC)

	assert.Equal(t, "5", *Int("qty", 5).Value)
	assert.Equal(t, "42", *ID("project_id", 42).Value)
	assert.Equal(t, "12.5", *Decimal("width", 12.5).Value)
	assert.Equal(t, "12", *Decimal("width", 12).Value)
	assert.Equal(t, "2024-03-09", *Date("due_date", day).Value)
	assert.Nil(t, OptDate("due_date", nil).Value)
	assert.Nil(t, OptString("notes", nil).Value)
	assert.Nil(t, OptID("assigned_to", nil).Value)
	assert.Nil(t, OptInt("total_qty", nil).Value)

	type status string
	assert.Equal(t, "Cut", *Text("status", status("Cut")).Value)
	assert.Nil(t, OptText[status]("shift", nil).Value)
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name string
		old  []Field
		new  []Field
		want []Change
	}{
		{
			name: "identical",
			old:  []Field{String("name", "A"), Int("qty", 5)},
			new:  []Field{String("name", "A"), Int("qty", 5)},
		},
		{
			name: "int and string renderings compare equal",
			old:  []Field{Int("qty", 5)},
			new:  []Field{String("qty", "5")},
		},
		{
			name: "both null",
			old:  []Field{OptString("notes", nil)},
			new:  []Field{OptString("notes", nil)},
		},
		{
			name: "null and empty differ",
			old:  []Field{OptString("notes", nil)},
			new:  []Field{String("notes", "")},
			want: []Change{{Field: "notes", Old: nil, New: ptr("")}},
		},
		{
			name: "order follows old",
			old:  []Field{String("a", "1"), String("b", "1"), String("c", "1")},
			new:  []Field{String("c", "2"), String("b", "1"), String("a", "2")},
			want: []Change{
				{Field: "a", Old: ptr("1"), New: ptr("2")},
				{Field: "c", Old: ptr("1"), New: ptr("2")},
			},
		},
		{
			name: "missing in new is null",
			old:  []Field{String("a", "1")},
			want: []Change{{Field: "a", Old: ptr("1")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i], got[i])
			}
		})
	}
}
