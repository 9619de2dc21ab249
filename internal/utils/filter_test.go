package utils

import (
	"reflect"
	"testing"
)

func TestFilter(t *testing.T) {
	evens := Filter([]int{1, 2, 3, 4, 5, 6}, func(n int) bool { return n%2 == 0 })
	if !reflect.DeepEqual(evens, []int{2, 4, 6}) {
		t.Errorf("Filter() = %v, want [2 4 6]", evens)
	}

	none := Filter([]int{1, 3}, func(n int) bool { return n > 10 })
	if len(none) != 0 {
		t.Errorf("Filter() = %v, want empty", none)
	}
}

func TestUnique(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"no duplicates", []string{"a", "b"}, []string{"a", "b"}},
		{"duplicates removed keeping first", []string{"a", "b", "a", "c", "b"}, []string{"a", "b", "c"}},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unique(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unique(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
