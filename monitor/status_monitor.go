package monitor

import (
	"sort"

	"github.com/joeycumines/go-rulesengine/ids"
)

// StatusMonitor records which expressions read a given status, so a
// write to that status can mark exactly those expressions dirty (spec
// §4.5). ExpressionKeys is kept sorted and unique.
type StatusMonitor struct {
	ExpressionKeys []ids.ExpressionKey
	LastExistence  bool
}

func (m *StatusMonitor) search(key ids.ExpressionKey) (int, bool) {
	i := sort.Search(len(m.ExpressionKeys), func(i int) bool { return m.ExpressionKeys[i] >= key })
	return i, i < len(m.ExpressionKeys) && m.ExpressionKeys[i] == key
}

// AddExpression records that key depends on this status, a no-op if
// already recorded.
func (m *StatusMonitor) AddExpression(key ids.ExpressionKey) {
	i, found := m.search(key)
	if found {
		return
	}
	m.ExpressionKeys = append(m.ExpressionKeys, 0)
	copy(m.ExpressionKeys[i+1:], m.ExpressionKeys[i:])
	m.ExpressionKeys[i] = key
}

// RemoveExpression drops key's dependency record, a no-op if absent.
func (m *StatusMonitor) RemoveExpression(key ids.ExpressionKey) {
	i, found := m.search(key)
	if !found {
		return
	}
	m.ExpressionKeys = append(m.ExpressionKeys[:i], m.ExpressionKeys[i+1:]...)
}

// Empty reports whether no expression depends on this status any more,
// the condition under which the owning Registry prunes it (spec §4.5).
func (m *StatusMonitor) Empty() bool {
	return len(m.ExpressionKeys) == 0
}
