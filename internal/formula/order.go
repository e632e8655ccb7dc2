package formula

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrCycle = errors.New("formula: reference cycle")

// Named — именованная формула шаблона.
type Named struct {
	Name string
	Expr *Expr
}

// Order упорядочивает формулы так, что каждая идёт после тех, на которые
// ссылается. Имена, не являющиеся формулами (параметры), считаются внешними.
// При равенстве сохраняется исходный порядок.
func Order(items []Named) ([]Named, error) {
	index := make(map[string]int, len(items))
	for i, it := range items {
		if _, dup := index[it.Name]; dup {
			return nil, fmt.Errorf("formula: duplicate name %q", it.Name)
		}
		index[it.Name] = i
	}

	indegree := make([]int, len(items))
	dependents := make([][]int, len(items))
	for i, it := range items {
		for _, v := range it.Expr.Variables() {
			j, ok := index[v]
			if !ok {
				continue
			}
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	var ready []int
	for i := range items {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	out := make([]Named, 0, len(items))
	for len(ready) > 0 {
		sort.Ints(ready)
		i := ready[0]
		ready = ready[1:]
		out = append(out, items[i])
		for _, d := range dependents[i] {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	if len(out) != len(items) {
		var stuck []string
		for i, n := range indegree {
			if n > 0 {
				stuck = append(stuck, items[i].Name)
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(stuck, ", "))
	}
	return out, nil
}
