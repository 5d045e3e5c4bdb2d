package functional

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	got := Map([]string{"a", "b"}, strings.ToUpper)
	assert.Equal(t, []string{"A", "B"}, got)
	assert.Empty(t, Map(nil, strings.ToUpper))
}

func TestFilter(t *testing.T) {
	got := Filter([]int{1, 2, 3, 4}, func(n int) bool { return n%2 == 0 })
	assert.Equal(t, []int{2, 4}, got)
}

func TestFind(t *testing.T) {
	got, ok := Find([]int{1, 2, 3}, func(n int) bool { return n > 1 })
	assert.True(t, ok)
	assert.Equal(t, 2, got)

	_, ok = Find([]int{1}, func(n int) bool { return n > 1 })
	assert.False(t, ok)
}

func TestGroupBy(t *testing.T) {
	got := GroupBy([]string{"apple", "avocado", "banana"}, func(s string) byte { return s[0] })
	assert.Len(t, got, 2)
	assert.Equal(t, []string{"apple", "avocado"}, got['a'])
	assert.Equal(t, []string{"banana"}, got['b'])
}
