package ir

// IRTagged is a tagged-union node: {"tag": Tag, "contents": Contents}.
// A nil Contents is a tag-only node and serializes without the contents
// key. That policy is uniform: no node ever carries "contents": [].
type IRTagged struct {
	Tag      string
	Contents IRValue
}

func (IRTagged) irValue() {}

// Tag is the single constructor for engine variant nodes.
//
//	Tag("Sequential")                      -> {"tag":"Sequential"}
//	Tag("Fix", rate)                       -> {"tag":"Fix","contents":rate}
//	Tag("Floater", idx, spd, reset, dc...) -> {"tag":"Floater","contents":[idx,spd,...]}
//
// Any IRValue may appear as contents, including nested tagged nodes.
func Tag(name string, contents ...IRValue) IRTagged {
	switch len(contents) {
	case 0:
		return IRTagged{Tag: name}
	case 1:
		return IRTagged{Tag: name, Contents: contents[0]}
	default:
		return IRTagged{Tag: name, Contents: IRArray(contents)}
	}
}

// TagOnly reports whether the node has no contents.
func (t IRTagged) TagOnly() bool {
	return t.Contents == nil
}

// Object renders the node as its wire record.
func (t IRTagged) Object() IRObject {
	obj := IRObject{"tag": IRString(t.Tag)}
	if t.Contents != nil {
		obj["contents"] = t.Contents
	}
	return obj
}

// Args returns the contents as a list: the array itself for multi-field
// nodes, a one-element list for single-field nodes, nil for tag-only nodes.
func (t IRTagged) Args() IRArray {
	switch c := t.Contents.(type) {
	case nil:
		return nil
	case IRArray:
		return c
	default:
		return IRArray{c}
	}
}
