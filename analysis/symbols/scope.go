package symbols

// ScopeOf returns the function declaring a variable, or nil for symbols that
// are not owned by a function body (fields, types, labels).
func ScopeOf(s Symbol) Function {
	switch s := s.(type) {
	case *Local:
		return s.Scope
	case *Parameter:
		return s.Owner
	case *LocalFunction:
		return s.Container()
	}
	return nil
}

// Encloses reports whether outer is inner or one of its lexical containers.
func Encloses(outer, inner Function) bool {
	for f := inner; f != nil; f = f.Container() {
		if f == outer {
			return true
		}
	}
	return false
}

// IsCapturedBy reports whether the variable is declared outside fn, so that
// reading it inside fn refers to the enclosing function's storage.
func IsCapturedBy(variable Symbol, fn Function) bool {
	scope := ScopeOf(variable)
	if scope == nil || fn == nil {
		return false
	}
	return scope != fn && Encloses(scope, fn)
}

// NearestLocalFunction walks out of lambdas to the closest named local
// function, or returns nil when fn is nested only in lambdas and methods.
func NearestLocalFunction(fn Function) *LocalFunction {
	for f := fn; f != nil; f = f.Container() {
		if lf, ok := f.(*LocalFunction); ok && !lf.Lambda {
			return lf
		}
	}
	return nil
}

// TypeOf returns the declared type of a variable-like symbol.
func TypeOf(s Symbol) *Type {
	switch s := s.(type) {
	case *Local:
		return s.Type
	case *Parameter:
		return s.Type
	case *Field:
		return s.Type
	}
	return nil
}
