package pool

// Equal reports structural equality between two values: Null, Bool, Number and String compare by value; Array
// compares element-by-element in order; Object compares key-by-key
// regardless of insertion order. Undefined is never equal to anything,
// including another Undefined -- callers needing "either side is
// Undefined" short-circuiting (as binary "=" does in evalEquality) must
// check that before calling Equal.
func (p *Pool) Equal(a, b Handle) bool {
	ka, kb := p.Kind(a), p.Kind(b)
	if ka != kb {
		return false
	}
	switch ka {
	case KindUndefined:
		return false
	case KindNull:
		return true
	case KindBool:
		return p.BoolValue(a) == p.BoolValue(b)
	case KindNumber:
		return p.NumberValue(a) == p.NumberValue(b)
	case KindString:
		return p.StringValue(a) == p.StringValue(b)
	case KindArray:
		return p.arrayEqual(a, b)
	case KindObject:
		return p.objectEqual(a, b)
	default:
		// Lambdas and native functions are never structurally equal to
		// anything but themselves.
		return a == b
	}
}

func (p *Pool) arrayEqual(a, b Handle) bool {
	ma, mb := p.Members(a), p.Members(b)
	if len(ma) != len(mb) {
		return false
	}
	for i := range ma {
		if !p.Equal(ma[i], mb[i]) {
			return false
		}
	}
	return true
}

func (p *Pool) objectEqual(a, b Handle) bool {
	ka, kb := p.ObjectKeys(a), p.ObjectKeys(b)
	if len(ka) != len(kb) {
		return false
	}
	for _, k := range ka {
		va, ok := p.ObjectGet(a, k)
		if !ok {
			return false
		}
		vb, ok := p.ObjectGet(b, k)
		if !ok {
			return false
		}
		if !p.Equal(va, vb) {
			return false
		}
	}
	return true
}
