package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type userDoc struct{ id string }

func (u *userDoc) GetID() string { return u.id }

type stringer string

func (s stringer) String() string { return string(s) }

func TestNormalize(t *testing.T) {
	s := "u1"
	var nilStr *string
	var nilDoc *userDoc

	cases := []struct {
		name string
		in   any
		want string
	}{
		{"plain string", "u1", "u1"},
		{"padded string", "  u1 ", "u1"},
		{"string pointer", &s, "u1"},
		{"nil string pointer", nilStr, Unresolved},
		{"bytes", []byte("u1"), "u1"},
		{"int", 42, "42"},
		{"int64", int64(42), "42"},
		{"uint64", uint64(7), "7"},
		{"populated object", &userDoc{id: "u1"}, "u1"},
		{"typed nil object", nilDoc, Unresolved},
		{"map with _id", map[string]any{"_id": "u1", "name": "Ada"}, "u1"},
		{"map with id", map[string]any{"id": "u1"}, "u1"},
		{"nested oid", map[string]any{"_id": map[string]any{"$oid": "u1"}}, "u1"},
		{"member entry", map[string]any{"user": "u1", "role": "admin"}, "u1"},
		{"populated member entry", map[string]any{"user": map[string]any{"_id": "u1"}, "role": "member"}, "u1"},
		{"string map", map[string]string{"_id": "u1"}, "u1"},
		{"stringer", stringer("u1"), "u1"},
		{"nil", nil, Unresolved},
		{"empty", "", Unresolved},
		{"blank", "   ", Unresolved},
		{"object literal", "[object Object]", Unresolved},
		{"null literal", "null", Unresolved},
		{"empty map", map[string]any{}, Unresolved},
		{"unsupported", 3.14, Unresolved},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("u1", map[string]any{"_id": "u1"}))
	assert.True(t, Equal(&userDoc{id: "u1"}, " u1"))
	assert.False(t, Equal("u1", "u2"))
	assert.False(t, Equal(nil, nil), "unresolved never equals unresolved")
	assert.False(t, Equal("", ""))
}

func TestSet(t *testing.T) {
	set := NewSet("b", map[string]any{"_id": "a"}, nil, "b")
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"b", "a"}, set.Slice())
	assert.Equal(t, []string{"a", "b"}, set.Sorted())

	assert.False(t, set.Add("a"))
	assert.True(t, set.Add("c"))
	assert.True(t, set.Has(map[string]any{"user": "c"}))

	set.Remove("b")
	assert.False(t, set.Has("b"))
	assert.Equal(t, []string{"a", "c"}, set.Slice())
}
