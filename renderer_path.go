package cfdg

// processPath expands a path shape into one finished shape per FILL or
// STROKE. A path rule that draws no random numbers and does not read the
// frame time gives the same output for the same arguments, so the result
// is cached on the rule.
func (r *Renderer) processPath(child *Shape, span Span) {
	seed := child.World.Seed
	rule := r.g.FindRule(child.Type, seed.Double())
	if rule == nil {
		runtimeError(span, "no rule for path %q", r.g.shapes[child.Type].Name)
	}
	storage, cmds, ok := rule.cache.lookup(child.Params, r.gen)
	if !ok {
		storage, cmds = r.runPath(rule, child)
	}

	for _, c := range cmds {
		world := child.World
		world.Concat(&c.delta)
		fs := FinishedShape{
			Type:  child.Type,
			World: world,
			Path:  storage.Slice(c.from, c.to),
			Attr:  c.attr,
		}
		fs.Bounds = storage.Bounds(world.Transform, c.from, c.to)
		if !c.attr.IsFill() && fs.Bounds.Valid() {
			w := c.attr.StrokeWidth * world.Transform.Scaling()
			if c.attr.Join() == JoinMiter {
				w *= max(c.attr.MiterLimit, 1)
			}
			fs.Bounds = fs.Bounds.Dilate(w / 2)
		}
		r.commit(fs)
	}
}

// runPath traverses a path rule with a fresh local frame.
func (r *Renderer) runPath(rule *Rule, child *Shape) (*PathStorage, []pathCommand) {
	savedSeed, savedUsed, savedParams := r.seed, r.randUsed, r.curParams
	pb := newPathBuilder()
	r.path = pb
	r.seed = child.World.Seed
	r.seed.Bump()
	r.randUsed = false

	root := Shape{Type: child.Type, Params: child.Params, World: NewModification()}
	root.World.Seed = child.World.Seed

	base := r.st.Size()
	r.st.PushRule(child.Params)
	frame := r.st.SetFrame(base)
	r.curParams = child.Params
	rule.Body.Traverse(&root, true, r)
	r.st.SetFrame(frame)
	r.st.Truncate(base)
	pb.finish()

	if !r.randUsed && !r.g.frameDependent {
		rule.cache.store(child.Params, r.gen, pb.storage, pb.cmds)
	}
	r.path = nil
	r.seed, r.randUsed, r.curParams = savedSeed, savedUsed, savedParams
	return pb.storage, pb.cmds
}
