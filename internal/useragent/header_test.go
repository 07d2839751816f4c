package useragent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeader(t *testing.T) {
	var h Header
	h.Add("Accept", "text/html")
	h.Add("X-Dup", "1")
	h.Add("x-dup", "2")
	h.Add("Host", "a")

	assert.Equal(t, "text/html", h.Get("ACCEPT"))
	assert.Equal(t, []string{"1", "2"}, h.Values("X-DUP"))
	assert.True(t, h.Has("host"))
	assert.False(t, h.Has("missing"))
	assert.Equal(t, "", h.Get("missing"))

	h.Set("X-DUP", "3")
	assert.Equal(t, []Field{
		{"Accept", "text/html"},
		{"X-DUP", "3"},
		{"Host", "a"},
	}, h.Fields(), "set keeps the position of the first occurrence")

	h.Set("New", "v")
	assert.Equal(t, "New", h.Fields()[3].Name)

	h.Del("accept")
	h.Del("absent")
	assert.Equal(t, 3, h.Len())
	assert.False(t, h.Has("Accept"))
}

func TestHeaderCloneIsIndependent(t *testing.T) {
	var h Header
	h.Add("A", "1")
	c := h.Clone()
	c.Set("A", "2")
	c.Add("B", "3")
	assert.Equal(t, "1", h.Get("a"))
	assert.Equal(t, 1, h.Len())
}

func TestHeaderCopiesDoNotShareFields(t *testing.T) {
	var h Header
	h.Add("A", "1")
	h.Add("B", "2")
	h.Add("C", "3")

	del := h
	del.Del("A")
	set := h
	set.Set("B", "x")
	added := h
	added.Add("D", "4")
	other := h
	other.Add("E", "5")

	assert.Equal(t, []Field{{"A", "1"}, {"B", "2"}, {"C", "3"}}, h.Fields())
	assert.Equal(t, []Field{{"B", "2"}, {"C", "3"}}, del.Fields())
	assert.Equal(t, "x", set.Get("b"))
	assert.Equal(t, "4", added.Get("D"))
	assert.False(t, added.Has("E"))
}

func TestHeaderFromMapAndMerge(t *testing.T) {
	h := HeaderFromMap(map[string]string{"b": "2", "a": "1", "c": "3"})
	assert.Equal(t, []Field{{"a", "1"}, {"b", "2"}, {"c", "3"}}, h.Fields())

	var call Header
	call.Add("B", "x")
	call.Add("b", "y")
	call.Add("D", "4")
	h.Merge(call)
	assert.Equal(t, []string{"x", "y"}, h.Values("b"))
	assert.Equal(t, "B", h.Fields()[1].Name)
	assert.Equal(t, "4", h.Get("d"))
}
