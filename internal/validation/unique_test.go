package validation

import (
	"errors"
	"iter"
	"os"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X, Y int
}

func strict(t *testing.T) *Unique {
	t.Helper()
	u, err := NewUnique(ModeStrict, MsgDuplicates)
	require.NoError(t, err)
	return u
}

func loose(t *testing.T) *Unique {
	t.Helper()
	u, err := NewUnique(ModeLoose, MsgDuplicates)
	require.NoError(t, err)
	return u
}

func TestUniqueConfiguration(t *testing.T) {
	_, err := NewUnique("fuzzy", MsgDuplicates)
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = NewUnique(ModeStrict, "")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	assert.Panics(t, func() { MustUnique("", MsgDuplicates) })
	assert.NotPanics(t, func() { MustUnique(ModeLoose, "dup") })
}

func TestUniqueEmptyInputIsValid(t *testing.T) {
	for _, u := range []*Unique{strict(t), loose(t)} {
		for _, in := range []any{nil, "", []any{}, []string(nil), map[string]int{}} {
			vs, err := u.Validate("roles", in)
			require.NoError(t, err)
			assert.Empty(t, vs, "mode %s input %#v", u.Mode(), in)
		}
	}
}

func TestUniqueNonIterable(t *testing.T) {
	for _, u := range []*Unique{strict(t), loose(t)} {
		for _, in := range []any{42, "abc", true, point{1, 2}} {
			_, err := u.Validate("roles", in)
			var te *TypeError
			require.True(t, errors.As(err, &te), "mode %s input %#v", u.Mode(), in)
			assert.Equal(t, "roles", te.Path)
		}
	}
}

func TestUniqueStrict(t *testing.T) {
	cases := []struct {
		name string
		in   any
		dup  bool
	}{
		{"distinct strings", []string{"a", "b", "c"}, false},
		{"repeated string", []string{"a", "b", "a"}, true},
		{"bool vs numeric string", []any{true, "1"}, false},
		{"bool string int", []any{true, "false", 1}, false},
		{"int vs float", []any{1, 1.0}, false},
		{"int vs string", []any{1, "1"}, false},
		{"same ints", []any{1, 2, 1}, true},
		{"equal structs", []point{{1, 2}, {1, 2}}, true},
		{"different structs", []point{{1, 2}, {2, 1}}, false},
		{"equal maps", []any{map[string]any{"a": 1, "b": "x"}, map[string]any{"b": "x", "a": 1}}, true},
		{"map value types differ", []any{map[string]any{"a": 1}, map[string]any{"a": "1"}}, false},
		{"pointers compared by value", []*point{{1, 1}, {1, 1}}, true},
		{"nested slices", []any{[]int{1, 2}, []int{1, 2}}, true},
		{"array input", [3]string{"x", "y", "z"}, false},
		{"map input values", map[string]string{"k1": "v", "k2": "v"}, true},
		{"nil elements", []any{nil, nil}, true},
	}
	u := strict(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vs, err := u.Validate("items", tc.in)
			require.NoError(t, err)
			if tc.dup {
				require.Len(t, vs, 1)
				assert.Equal(t, Violation{Path: "items", Message: MsgDuplicates}, vs[0])
			} else {
				assert.Empty(t, vs)
			}
		})
	}
}

func TestUniqueLoose(t *testing.T) {
	cases := []struct {
		name string
		in   any
		dup  bool
	}{
		{"bool true vs numeric string", []any{true, "1"}, true},
		{"true and 1 both stringify to 1", []any{true, "false", 1}, true},
		{"int vs string", []any{1, "1"}, true},
		{"float vs int", []any{1.0, 1}, true},
		{"false vs empty string", []any{false, ""}, true},
		{"nil vs empty string", []any{nil, ""}, true},
		{"distinct", []any{"a", "b", 3}, false},
		{"repeated string", []string{"a", "b", "a"}, true},
		{"structs reduced to encoding", []any{point{1, 2}, map[string]int{"X": 1, "Y": 2}}, true},
		{"different structs", []point{{1, 2}, {2, 1}}, false},
	}
	u := loose(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vs, err := u.Validate("items", tc.in)
			require.NoError(t, err)
			if tc.dup {
				assert.Len(t, vs, 1)
			} else {
				assert.Empty(t, vs)
			}
		})
	}
}

func TestUniqueReportsOnceRegardlessOfDuplicateCount(t *testing.T) {
	in := []string{"a", "a", "b", "b", "c", "c", "a"}
	for _, u := range []*Unique{strict(t), loose(t)} {
		vs, err := u.Validate("roles", in)
		require.NoError(t, err)
		assert.Len(t, vs, 1)
	}
}

func TestUniqueInsertingAnyDuplicate(t *testing.T) {
	base := []any{"ADMIN", "USER", "WORKER", 7, 3.5, false}
	u := strict(t)
	vs, err := u.Validate("items", base)
	require.NoError(t, err)
	require.Empty(t, vs)

	for i := range base {
		withDup := slices.Insert(slices.Clone(base), len(base), base[i])
		vs, err := u.Validate("items", withDup)
		require.NoError(t, err)
		assert.Len(t, vs, 1, "duplicate of %#v", base[i])
	}
}

func TestUniqueStreamingInput(t *testing.T) {
	seq := func(vals ...any) iter.Seq[any] {
		return func(yield func(any) bool) {
			for _, v := range vals {
				if !yield(v) {
					return
				}
			}
		}
	}

	vs, err := loose(t).Validate("items", seq(true, "false", 1))
	require.NoError(t, err)
	assert.Len(t, vs, 1)

	vs, err = strict(t).Validate("items", seq(true, "false", 1))
	require.NoError(t, err)
	assert.Empty(t, vs)

	// strict 遇到第一个重复就停止拉取
	pulled := 0
	counting := func(yield func(any) bool) {
		for _, v := range []any{"a", "a", "b", "c"} {
			pulled++
			if !yield(v) {
				return
			}
		}
	}
	vs, err = strict(t).Validate("items", iter.Seq[any](counting))
	require.NoError(t, err)
	assert.Len(t, vs, 1)
	assert.Equal(t, 2, pulled)
}

func TestUniqueRejectsHandles(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "handle")
	require.NoError(t, err)
	defer f.Close()

	for _, u := range []*Unique{strict(t), loose(t)} {
		_, err := u.Validate("items", []any{"a", f})
		var te *TypeError
		require.True(t, errors.As(err, &te))
		assert.Contains(t, te.Msg, "resource")

		_, err = u.Validate("items", []any{make(chan int)})
		require.True(t, errors.As(err, &te))
	}
}

func TestFingerprintHandlesCycles(t *testing.T) {
	type node struct {
		Next *node
		V    int
	}
	a := &node{V: 1}
	a.Next = a
	b := &node{V: 1}
	b.Next = b

	vs, err := strict(t).Validate("items", []*node{a, b})
	require.NoError(t, err)
	assert.Len(t, vs, 1)
}

func TestFingerprintHandlesSelfReferencingMapAndSlice(t *testing.T) {
	m := map[string]any{"k": 1}
	m["self"] = m
	vs, err := strict(t).Validate("items", []any{m, "x"})
	require.NoError(t, err)
	assert.Empty(t, vs)

	s := make([]any, 2)
	s[0] = s
	s[1] = "v"
	vs, err = strict(t).Validate("items", []any{s, "x"})
	require.NoError(t, err)
	assert.Empty(t, vs)

	// 两个结构相同的自引用 map 视为重复
	n := map[string]any{"k": 1}
	n["self"] = n
	vs, err = strict(t).Validate("items", []any{m, n})
	require.NoError(t, err)
	assert.Len(t, vs, 1)
}
