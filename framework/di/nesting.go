package di

// nesting is the chain of types being resolved by the current Create call,
// innermost first. Frames are shared between siblings, never mutated. Every
// chain ends in a root frame that carries the resolution owning it.
type nesting struct {
	id      string
	wrapper bool
	root    bool
	depth   int
	owner   *resolution
	next    *nesting
}

// resolution identifies one top-level Create call across goroutines.
type resolution struct{ _ byte }

// start returns the root frame of a new resolution.
func start() *nesting {
	return &nesting{root: true, owner: &resolution{}}
}

func (n *nesting) push(id string) *nesting {
	return &nesting{id: id, depth: n.len() + 1, owner: n.resolution(), next: n}
}

func (n *nesting) pushWrapper(id string) *nesting {
	return &nesting{id: id, wrapper: true, depth: n.len() + 1, owner: n.resolution(), next: n}
}

func (n *nesting) len() int {
	if n == nil {
		return 0
	}
	return n.depth
}

// resolution returns the owner of the chain, nil for a chain without a root.
func (n *nesting) resolution() *resolution {
	if n == nil {
		return nil
	}
	return n.owner
}

// frames iterates the type frames, skipping the root.
func (n *nesting) frames(yield func(*nesting) bool) {
	for f := n; f != nil && !f.root; f = f.next {
		if !yield(f) {
			return
		}
	}
}

// contains reports whether id appears anywhere on the path, wrapper or class.
func (n *nesting) contains(id string) bool {
	for f := range n.frames {
		if f.id == id {
			return true
		}
	}
	return false
}

// building reports whether id is a class currently under construction.
func (n *nesting) building(id string) bool {
	for f := range n.frames {
		if !f.wrapper && f.id == id {
			return true
		}
	}
	return false
}

func (n *nesting) ids() []string {
	if n.len() == 0 {
		return nil
	}
	out := make([]string, 0, n.len())
	for f := range n.frames {
		out = append(out, f.id)
	}
	return out
}
