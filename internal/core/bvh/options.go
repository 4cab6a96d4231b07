package bvh

// Option configures a Tree.
type Option func(*Tree)

// WithDeepPointCut makes CutPoint keep descending into the child holding the
// point after subdividing a solid node, so a single call carves the point down
// to the deepest level. By default a call subdivides one level only.
func WithDeepPointCut() Option {
	return func(t *Tree) {
		t.deepPointCut = true
	}
}
