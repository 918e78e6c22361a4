package observable

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// walk reads every slot reachable from root so the innermost frame
// subscribes to all of them. Cycles are cut by container id.
func (rt *Runtime) walk(root any) {
	visited := mapset.NewThreadUnsafeSet[uint64]()
	var visit func(v any)
	visit = func(v any) {
		c, ok := rt.Wrap(v).(Container)
		if !ok || !visited.Add(c.ID()) {
			return
		}
		switch c := c.(type) {
		case *Object:
			for _, name := range c.Keys() {
				visit(c.Get(name))
			}
		case *Array:
			for _, item := range c.All() {
				visit(item)
			}
		case *Map:
			for _, value := range c.All() {
				visit(value)
			}
		case *Set:
			for member := range c.Values() {
				visit(member)
			}
		}
	}
	visit(root)
}
