package bound

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cs-au-dk/flowpass/analysis/symbols"

	"gopkg.in/yaml.v3"
)

// ErrDecode is wrapped by every error reported while decoding a program.
var ErrDecode = errors.New("cannot decode bound tree")

type decodeError struct {
	line int
	msg  string
}

func (d *decodeError) Error() string {
	return fmt.Sprintf("line %d: %s", d.line, d.msg)
}

// LoadFile decodes the YAML program stored at path.
func LoadFile(path string) (*Method, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return Decode(b)
}

// Decode builds a bound method from its YAML description, resolving names to
// symbols, and lays out synthetic spans for the body.
func Decode(src []byte) (m *Method, err error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrDecode)
	}

	defer func() {
		if r := recover(); r != nil {
			derr, ok := r.(*decodeError)
			if !ok {
				panic(r)
			}
			m, err = nil, fmt.Errorf("%w: %v", ErrDecode, derr)
		}
	}()

	d := &decoder{
		types:  map[string]*symbols.Type{},
		nodes:  map[string]Node{},
		labels: map[symbols.Function]map[string]*symbols.Label{},
	}
	return d.method(doc.Content[0]), nil
}

type scope struct {
	fn   symbols.Function
	vars map[string]symbols.Symbol
}

type breakable struct {
	brk, cont *symbols.Label
}

type decoder struct {
	types   map[string]*symbols.Type
	nodes   map[string]Node
	labels  map[symbols.Function]map[string]*symbols.Label
	methods map[string]*symbols.Method
	scopes  []*scope
	loops   []breakable
	counter int
}

func fail(n *yaml.Node, format string, args ...any) {
	panic(&decodeError{line: n.Line, msg: fmt.Sprintf(format, args...)})
}

// fields returns the key/value pairs of a mapping node.
func fields(n *yaml.Node) map[string]*yaml.Node {
	if n.Kind != yaml.MappingNode {
		fail(n, "expected a mapping, found %q", n.Value)
	}
	res := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		res[n.Content[i].Value] = n.Content[i+1]
	}
	return res
}

// head returns the discriminating key of a node mapping, ignoring `id`.
func head(n *yaml.Node) (string, *yaml.Node) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if k := n.Content[i].Value; k != "id" {
			return k, n.Content[i+1]
		}
	}
	fail(n, "node without kind")
	return "", nil
}

func (d *decoder) record(n *yaml.Node, b Node) {
	if n.Kind != yaml.MappingNode {
		return
	}
	if id, ok := fields(n)["id"]; ok {
		if _, dup := d.nodes[id.Value]; dup {
			fail(id, "duplicate node id %q", id.Value)
		}
		Name(id.Value, b)
		d.nodes[id.Value] = b
	}
}

func (d *decoder) fresh(prefix string) *symbols.Label {
	d.counter++
	return symbols.NewLabel(prefix + "#" + strconv.Itoa(d.counter))
}

func (d *decoder) fn() symbols.Function {
	return d.scopes[len(d.scopes)-1].fn
}

func (d *decoder) push(fn symbols.Function) {
	d.scopes = append(d.scopes, &scope{fn: fn, vars: map[string]symbols.Symbol{}})
}

func (d *decoder) pop() {
	d.scopes = d.scopes[:len(d.scopes)-1]
}

func (d *decoder) declare(n *yaml.Node, s symbols.Symbol) {
	top := d.scopes[len(d.scopes)-1]
	if _, dup := top.vars[s.Name()]; dup {
		fail(n, "%s redeclared in this scope", s.Name())
	}
	top.vars[s.Name()] = s
}

func (d *decoder) lookup(n *yaml.Node, name string) symbols.Symbol {
	for i := len(d.scopes) - 1; i >= 0; i-- {
		if s, ok := d.scopes[i].vars[name]; ok {
			return s
		}
	}
	fail(n, "undefined: %s", name)
	return nil
}

func (d *decoder) label(name string) *symbols.Label {
	// Every function body, lambdas included, has its own label namespace.
	fn := d.fn()
	tbl, ok := d.labels[fn]
	if !ok {
		tbl = map[string]*symbols.Label{}
		d.labels[fn] = tbl
	}
	l, ok := tbl[name]
	if !ok {
		l = symbols.NewLabel(name)
		tbl[name] = l
	}
	return l
}

func (d *decoder) typ(n *yaml.Node) *symbols.Type {
	if n == nil {
		return symbols.Int
	}
	name := n.Value
	if strings.HasSuffix(name, "[]") {
		elem := d.typ(&yaml.Node{Kind: yaml.ScalarNode, Value: strings.TrimSuffix(name, "[]"), Line: n.Line})
		return symbols.NewArray(elem)
	}
	if t, ok := symbols.Builtin(name); ok {
		return t
	}
	if t, ok := d.types[name]; ok {
		return t
	}
	fail(n, "unknown type %s", name)
	return nil
}

func refKind(n *yaml.Node) symbols.RefKind {
	if n == nil {
		return symbols.RefNone
	}
	switch n.Value {
	case "", "none":
		return symbols.RefNone
	case "ref":
		return symbols.RefRef
	case "out":
		return symbols.RefOut
	case "in":
		return symbols.RefIn
	}
	fail(n, "unknown ref kind %s", n.Value)
	return symbols.RefNone
}

func flag(n *yaml.Node) bool {
	if n == nil {
		return false
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		fail(n, "expected a boolean: %v", err)
	}
	return b
}

func (d *decoder) method(n *yaml.Node) *Method {
	f := fields(n)
	if f["method"] == nil {
		fail(n, "missing method name")
	}

	if ts := f["types"]; ts != nil {
		d.declareTypes(ts)
	}

	returns := symbols.Void
	if r := f["returns"]; r != nil {
		returns = d.typ(r)
	}
	sym := symbols.NewMethod(f["method"].Value, returns)
	sym.Async = flag(f["async"])
	sym.Iterator = flag(f["iterator"])
	if this := f["this"]; this != nil {
		tf := fields(this)
		sym.WithThis(d.typ(tf["type"]), refKind(tf["ref"]))
	}

	d.push(sym)
	sym.SetParameters(d.params(f["params"])...)
	if sym.This != nil {
		d.declare(n, sym.This)
	}

	if f["body"] == nil {
		fail(n, "missing method body")
	}
	body := d.block(f["body"])
	d.pop()

	Layout(body)
	return &Method{Symbol: sym, Body: body, Types: d.types, Nodes: d.nodes}
}

func (d *decoder) declareTypes(n *yaml.Node) {
	// Create every type before resolving fields, so types may refer to each other.
	for _, t := range n.Content {
		tf := fields(t)
		kind := symbols.TypeStruct
		if k := tf["kind"]; k != nil {
			switch k.Value {
			case "struct":
			case "class":
				kind = symbols.TypeClass
			case "interface":
				kind = symbols.TypeInterface
			case "enum":
				kind = symbols.TypeEnum
			default:
				fail(k, "unknown type kind %s", k.Value)
			}
		}
		typ := symbols.NewType(tf["name"].Value, kind)
		typ.External = flag(tf["external"])
		d.types[typ.Name()] = typ
	}
	for _, t := range n.Content {
		tf := fields(t)
		typ := d.types[tf["name"].Value]
		if fs := tf["fields"]; fs != nil {
			for _, fn := range fs.Content {
				ff := fields(fn)
				field := symbols.NewField(ff["name"].Value, d.typ(ff["type"]))
				field.Static = flag(ff["static"])
				if a := ff["access"]; a != nil {
					switch a.Value {
					case "public":
					case "internal":
						field.Accessibility = symbols.Internal
					case "private":
						field.Accessibility = symbols.Private
					default:
						fail(a, "unknown accessibility %s", a.Value)
					}
				}
				typ.AddFields(field)
			}
		}
	}
}

func (d *decoder) params(n *yaml.Node) (ps []*symbols.Parameter) {
	if n == nil {
		return nil
	}
	for _, pn := range n.Content {
		var p *symbols.Parameter
		if pn.Kind == yaml.ScalarNode {
			p = symbols.NewParameter(pn.Value, symbols.Int, symbols.RefNone)
		} else {
			pf := fields(pn)
			p = symbols.NewParameter(pf["name"].Value, d.typ(pf["type"]), refKind(pf["ref"]))
		}
		d.declare(pn, p)
		ps = append(ps, p)
	}
	return
}

// block decodes a statement list into a scoped block.
func (d *decoder) block(n *yaml.Node) *Block {
	if n.Kind == yaml.MappingNode {
		if k, v := head(n); k == "block" {
			b := d.block(v)
			d.record(n, b)
			return b
		}
	}
	d.push(d.fn())
	defer d.pop()
	return NewBlock(d.stmts(n)...)
}

func (d *decoder) stmts(n *yaml.Node) []Statement {
	items := n.Content
	if n.Kind != yaml.SequenceNode {
		items = []*yaml.Node{n}
	}
	// Local functions are in scope for the whole statement list.
	for _, s := range items {
		if s.Kind != yaml.MappingNode {
			continue
		}
		if k, v := head(s); k == "func" {
			vf := fields(v)
			returns := symbols.Void
			if r := vf["returns"]; r != nil {
				returns = d.typ(r)
			}
			lf := symbols.NewLocalFunction(vf["name"].Value, d.fn(), returns)
			lf.Async = flag(vf["async"])
			lf.Iterator = flag(vf["iterator"])
			lf.Static = flag(vf["static"])
			d.declare(v, lf)
		}
	}
	res := make([]Statement, 0, len(items))
	for _, s := range items {
		res = append(res, d.stmt(s))
	}
	return res
}

// body decodes a nested statement: a list becomes a block.
func (d *decoder) body(n *yaml.Node) Statement {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.SequenceNode {
		return d.block(n)
	}
	d.push(d.fn())
	defer d.pop()
	return d.stmt(n)
}

func (d *decoder) stmt(n *yaml.Node) Statement {
	if n.Kind == yaml.SequenceNode {
		return d.block(n)
	}
	if n.Kind == yaml.ScalarNode {
		switch n.Value {
		case "break":
			if len(d.loops) == 0 {
				fail(n, "break outside of a loop or switch")
			}
			return &Break{Label: d.loops[len(d.loops)-1].brk}
		case "continue":
			for i := len(d.loops) - 1; i >= 0; i-- {
				if d.loops[i].cont != nil {
					return &Continue{Label: d.loops[i].cont}
				}
			}
			fail(n, "continue outside of a loop")
		case "return":
			return &Return{}
		case "yield break":
			return &YieldBreak{}
		case "throw":
			return &Throw{}
		case "noop":
			return &NoOp{}
		}
		fail(n, "unknown statement %q", n.Value)
	}

	k, v := head(n)
	var s Statement
	switch k {
	case "block":
		s = d.block(v)
	case "decl":
		s = d.decl(v)
	case "expr":
		s = Stmt(d.expr(v))
	case "if":
		f := fields(v)
		s = &If{Cond: d.expr(f["cond"]), Then: d.body(f["then"]), Else: d.body(f["else"])}
	case "while":
		f := fields(v)
		w := &While{}
		w.BreakLabel, w.ContinueLabel = d.fresh("break"), d.fresh("continue")
		w.Cond = d.expr(f["cond"])
		d.loops = append(d.loops, breakable{w.BreakLabel, w.ContinueLabel})
		w.Body = d.body(f["body"])
		d.loops = d.loops[:len(d.loops)-1]
		s = w
	case "do":
		f := fields(v)
		w := &Do{}
		w.BreakLabel, w.ContinueLabel = d.fresh("break"), d.fresh("continue")
		d.loops = append(d.loops, breakable{w.BreakLabel, w.ContinueLabel})
		w.Body = d.body(f["body"])
		d.loops = d.loops[:len(d.loops)-1]
		w.Cond = d.expr(f["cond"])
		s = w
	case "for":
		s = d.forStmt(v)
	case "foreach":
		s = d.forEach(v)
	case "goto":
		s = &Goto{Label: d.label(v.Value)}
	case "label":
		s = &Labeled{Label: d.label(v.Value), Body: &NoOp{}}
	case "labeled":
		f := fields(v)
		s = &Labeled{Label: d.label(f["label"].Value), Body: d.stmt(f["body"])}
	case "return":
		s = &Return{Expr: d.expr(v)}
	case "return ref":
		s = &Return{Expr: d.expr(v), RefKind: symbols.RefRef}
	case "throw":
		s = &Throw{Expr: d.expr(v)}
	case "try":
		s = d.try(v)
	case "switch":
		s = d.switchStmt(v)
	case "yield":
		s = &YieldReturn{Expr: d.expr(v)}
	case "func":
		s = d.localFunction(v)
	case "using":
		s = d.using(v)
	case "lock":
		f := fields(v)
		s = &Lock{Expr: d.expr(f["on"]), Body: d.body(f["body"])}
	default:
		fail(n, "unknown statement kind %q", k)
	}
	d.record(n, s)
	return s
}

func (d *decoder) decl(n *yaml.Node) *LocalDeclaration {
	if n.Kind == yaml.ScalarNode {
		l := symbols.NewLocal(n.Value, symbols.Int, d.fn())
		d.declare(n, l)
		return Declare(l, nil)
	}
	f := fields(n)
	l := symbols.NewLocal(f["name"].Value, d.typ(f["type"]), d.fn())
	l.Const = flag(f["const"])
	var init Expression
	if i := f["init"]; i != nil {
		init = d.expr(i)
	}
	d.declare(n, l)
	return Declare(l, init)
}

func (d *decoder) forStmt(n *yaml.Node) *For {
	f := fields(n)
	d.push(d.fn())
	defer d.pop()

	loop := &For{}
	loop.BreakLabel, loop.ContinueLabel = d.fresh("break"), d.fresh("continue")
	if i := f["init"]; i != nil {
		loop.Init = d.stmts(i)
	}
	if c := f["cond"]; c != nil {
		loop.Cond = d.expr(c)
	}
	loop.Locals = DeclaredLocals(loop.Init...)
	loop.Locals = append(loop.Locals, PatternLocals(loop.Cond)...)

	d.loops = append(d.loops, breakable{loop.BreakLabel, loop.ContinueLabel})
	loop.Body = d.body(f["body"])
	d.loops = d.loops[:len(d.loops)-1]
	if i := f["incr"]; i != nil {
		loop.Increment = d.stmts(i)
	}
	return loop
}

func (d *decoder) forEach(n *yaml.Node) *ForEach {
	f := fields(n)
	loop := &ForEach{Await: flag(f["await"])}
	loop.BreakLabel, loop.ContinueLabel = d.fresh("break"), d.fresh("continue")
	loop.Collection = d.expr(f["in"])

	d.push(d.fn())
	defer d.pop()
	loop.Iteration = symbols.NewLocal(f["var"].Value, d.typ(f["type"]), d.fn())
	d.declare(f["var"], loop.Iteration)

	d.loops = append(d.loops, breakable{loop.BreakLabel, loop.ContinueLabel})
	loop.Body = d.body(f["body"])
	d.loops = d.loops[:len(d.loops)-1]
	return loop
}

func (d *decoder) try(n *yaml.Node) *Try {
	f := fields(n)
	t := &Try{Try: d.block(f["body"])}
	if cs := f["catches"]; cs != nil {
		for _, cn := range cs.Content {
			cf := fields(cn)
			d.push(d.fn())
			c := &Catch{}
			if v := cf["var"]; v != nil {
				c.Local = symbols.NewLocal(v.Value, d.typ(cf["type"]), d.fn())
				d.declare(v, c.Local)
			}
			if flt := cf["filter"]; flt != nil {
				c.Filter = d.expr(flt)
			}
			c.Body = d.block(cf["body"])
			d.pop()
			d.record(cn, c)
			t.Catches = append(t.Catches, c)
		}
	}
	if fin := f["finally"]; fin != nil {
		t.Finally = d.block(fin)
	}
	return t
}

func (d *decoder) switchStmt(n *yaml.Node) *Switch {
	f := fields(n)
	sw := &Switch{BreakLabel: d.fresh("break"), Expr: d.expr(f["on"])}

	d.push(d.fn())
	defer d.pop()
	d.loops = append(d.loops, breakable{brk: sw.BreakLabel})
	defer func() { d.loops = d.loops[:len(d.loops)-1] }()

	sections := f["sections"]
	if sections == nil {
		fail(n, "switch without sections")
	}
	// Labels are created up front so `goto case` may refer to later sections.
	names := map[*yaml.Node]*symbols.Label{}
	for _, sn := range sections.Content {
		for _, ln := range fields(sn)["labels"].Content {
			if ln.Kind == yaml.MappingNode {
				if name := fields(ln)["name"]; name != nil {
					names[ln] = d.label(name.Value)
					continue
				}
			}
			if ln.Kind == yaml.ScalarNode && ln.Value == "default" {
				names[ln] = d.fresh("default")
				continue
			}
			names[ln] = d.fresh("case")
		}
	}

	for _, sn := range sections.Content {
		sf := fields(sn)
		var labels []*SwitchLabel
		for _, ln := range sf["labels"].Content {
			l := &SwitchLabel{Label: names[ln]}
			if !(ln.Kind == yaml.ScalarNode && ln.Value == "default") {
				lf := fields(ln)
				l.Pattern = d.pattern(lf["case"])
				if w := lf["when"]; w != nil {
					l.When = d.expr(w)
				}
			}
			d.record(ln, l)
			labels = append(labels, l)
		}
		var stmts []Statement
		if b := sf["body"]; b != nil {
			stmts = d.stmts(b)
		}
		sec := NewSwitchSection(labels, stmts...)
		d.record(sn, sec)
		sw.Sections = append(sw.Sections, sec)
	}
	sw.Dag = d.dag(f["dag"])
	return sw
}

func (d *decoder) dag(n *yaml.Node) *DecisionDag {
	if n == nil {
		return nil
	}
	f := fields(n)
	dag := &DecisionDag{Exhaustive: flag(f["exhaustive"])}
	if r := f["reachable"]; r != nil {
		for _, l := range r.Content {
			dag.ReachableLabels = append(dag.ReachableLabels, d.label(l.Value))
		}
	}
	return dag
}

func (d *decoder) localFunction(n *yaml.Node) *LocalFunctionStatement {
	f := fields(n)
	lf, ok := d.lookup(f["name"], f["name"].Value).(*symbols.LocalFunction)
	if !ok {
		fail(n, "%s is not a local function", f["name"].Value)
	}
	d.push(lf)
	defer d.pop()
	lf.SetParameters(d.params(f["params"])...)
	saved := d.loops
	d.loops = nil
	defer func() { d.loops = saved }()
	return &LocalFunctionStatement{Symbol: lf, Body: d.block(f["body"])}
}

func (d *decoder) using(n *yaml.Node) *Using {
	f := fields(n)
	d.push(d.fn())
	defer d.pop()
	u := &Using{Await: flag(f["await"])}
	if ds := f["decls"]; ds != nil {
		for _, dn := range ds.Content {
			decl := d.decl(dn)
			decl.Local.Using = true
			u.Declarations = append(u.Declarations, decl)
		}
	}
	if e := f["expr"]; e != nil {
		u.Expr = d.expr(e)
	}
	u.Body = d.body(f["body"])
	return u
}

func (d *decoder) pattern(n *yaml.Node) Pattern {
	if n.Kind == yaml.ScalarNode {
		if n.Value == "_" {
			return &DiscardPattern{}
		}
		return &ConstantPattern{Value: d.literal(n)}
	}
	k, v := head(n)
	var p Pattern
	switch k {
	case "const":
		p = &ConstantPattern{Value: d.expr(v)}
	case "var":
		f := fields(n)
		// Without a type, the pattern is `var x` and matches every input.
		dp := &DeclarationPattern{}
		if t := f["type"]; t != nil {
			dp.Type = d.typ(t)
		}
		if v.Value != "_" {
			dp.Local = symbols.NewLocal(v.Value, d.typ(f["type"]), d.fn())
			d.declare(v, dp.Local)
		}
		p = dp
	case "type":
		p = &TypePattern{Type: d.typ(v)}
	default:
		fail(n, "unknown pattern kind %q", k)
	}
	d.record(n, p)
	return p
}

func (d *decoder) literal(n *yaml.Node) *Literal {
	switch n.ShortTag() {
	case "!!int":
		i, err := strconv.Atoi(n.Value)
		if err != nil {
			fail(n, "bad integer %s", n.Value)
		}
		return Lit(i)
	case "!!bool":
		return Lit(flag(n))
	case "!!null":
		return Lit(nil)
	}
	return Lit(n.Value)
}

func (d *decoder) exprs(n *yaml.Node) []Expression {
	if n == nil {
		return nil
	}
	res := make([]Expression, 0, len(n.Content))
	for _, e := range n.Content {
		res = append(res, d.expr(e))
	}
	return res
}

func (d *decoder) pair(n *yaml.Node) (Expression, Expression) {
	if n.Kind != yaml.SequenceNode || len(n.Content) != 2 {
		fail(n, "expected two operands")
	}
	return d.expr(n.Content[0]), d.expr(n.Content[1])
}

func (d *decoder) refKinds(n *yaml.Node) []symbols.RefKind {
	if n == nil {
		return nil
	}
	res := make([]symbols.RefKind, 0, len(n.Content))
	for _, r := range n.Content {
		res = append(res, refKind(r))
	}
	return res
}

// callee returns the external method called by name, creating it on first use.
func (d *decoder) callee(name string, omitted bool) *symbols.Method {
	if d.methods == nil {
		d.methods = map[string]*symbols.Method{}
	}
	m, ok := d.methods[name]
	if !ok {
		m = symbols.NewMethod(name, symbols.Object)
		m.Omitted = omitted
		d.methods[name] = m
	}
	return m
}

func (d *decoder) expr(n *yaml.Node) Expression {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.ScalarNode {
		if n.ShortTag() != "!!str" {
			return d.literal(n)
		}
		return d.ref(n, n.Value)
	}

	k, v := head(n)
	f := fields(n)
	var e Expression
	switch k {
	case "ref":
		e = d.ref(v, v.Value)
	case "lit":
		e = d.literal(v)
	case "assign":
		l, r := d.pair(v)
		e = &Assignment{Left: l, Right: r}
	case "refassign":
		l, r := d.pair(v)
		e = &Assignment{Left: l, Right: r, IsRef: true}
	case "op":
		args := d.exprs(f["args"])
		switch {
		case len(args) == 1:
			e = &Unary{Op: v.Value, Operand: args[0]}
		case len(args) == 2 && isCompound(v.Value):
			e = &CompoundAssignment{Op: v.Value, Left: args[0], Right: args[1]}
		case len(args) == 2:
			e = &Binary{Op: v.Value, Left: args[0], Right: args[1]}
		default:
			fail(v, "operator %s with %d operands", v.Value, len(args))
		}
	case "and", "or":
		l, r := d.pair(v)
		op := "&&"
		if k == "or" {
			op = "||"
		}
		e = &Binary{Op: op, Left: l, Right: r}
	case "not":
		e = &Unary{Op: "!", Operand: d.expr(v)}
	case "cond":
		if len(v.Content) != 3 {
			fail(v, "conditional expects three operands")
		}
		e = &Conditional{Cond: d.expr(v.Content[0]), Consequence: d.expr(v.Content[1]), Alternative: d.expr(v.Content[2])}
	case "call":
		call := &Call{Args: d.exprs(f["args"]), RefKinds: d.refKinds(f["refs"])}
		if r := f["receiver"]; r != nil {
			call.Receiver = d.expr(r)
		}
		if s := d.tryLookup(v.Value); s != nil {
			lf, ok := s.(*symbols.LocalFunction)
			if !ok {
				fail(v, "%s is not callable", v.Value)
			}
			call.LocalFunction = lf
		} else {
			call.Method = d.callee(v.Value, flag(f["omitted"]))
		}
		e = call
	case "new":
		e = &ObjectCreation{Type: d.typ(v), Args: d.exprs(f["args"]), RefKinds: d.refKinds(f["refs"])}
	case "lambda":
		e = d.lambda(v)
	case "delegate":
		lf, ok := d.lookup(v, v.Value).(*symbols.LocalFunction)
		if !ok {
			fail(v, "%s is not a local function", v.Value)
		}
		e = &DelegateCreation{LocalFunction: lf}
	case "is":
		if v.Kind != yaml.SequenceNode || len(v.Content) != 2 {
			fail(v, "is expects an operand and a pattern")
		}
		e = &IsPattern{Expr: d.expr(v.Content[0]), Pattern: d.pattern(v.Content[1]), Negated: flag(f["negated"])}
	case "switch":
		e = d.switchExpr(v)
	case "await":
		e = &Await{Expr: d.expr(v)}
	case "coalesce":
		l, r := d.pair(v)
		e = &NullCoalescing{Left: l, Right: r}
	case "condaccess":
		l, r := d.pair(v)
		e = &ConditionalAccess{Receiver: l, Access: r}
	case "throw":
		e = &ThrowExpression{Expr: d.expr(v)}
	case "type":
		e = &TypeExpression{Type: d.typ(v)}
	case "field":
		e = d.field(n, f)
	default:
		fail(n, "unknown expression kind %q", k)
	}
	d.record(n, e)
	return e
}

func isCompound(op string) bool {
	switch op {
	case "==", "!=", "<=", ">=":
		return false
	}
	return strings.HasSuffix(op, "=") || op == "++" || op == "--"
}

func (d *decoder) tryLookup(name string) symbols.Symbol {
	for i := len(d.scopes) - 1; i >= 0; i-- {
		if s, ok := d.scopes[i].vars[name]; ok {
			return s
		}
	}
	return nil
}

func (d *decoder) ref(n *yaml.Node, name string) Expression {
	if name == "this" {
		m, ok := d.scopes[0].fn.(*symbols.Method)
		if !ok || m.This == nil {
			fail(n, "this is not available")
		}
		return &ThisRef{Parameter: m.This}
	}
	switch s := d.lookup(n, name).(type) {
	case *symbols.Local, *symbols.Parameter:
		return Ref(s)
	case *symbols.LocalFunction:
		return &DelegateCreation{LocalFunction: s}
	}
	fail(n, "%s is not a variable", name)
	return nil
}

func (d *decoder) field(n *yaml.Node, f map[string]*yaml.Node) *FieldAccess {
	name := f["field"].Value
	if t := f["type"]; t != nil {
		typ := d.typ(t)
		field, ok := typ.Field(name)
		if !ok || !field.Static {
			fail(n, "%s has no static field %s", typ, name)
		}
		return &FieldAccess{Field: field}
	}
	of := f["of"]
	if of == nil {
		fail(n, "field access without receiver")
	}
	recv := d.expr(of)
	typ := exprType(recv)
	if typ == nil {
		fail(n, "cannot access field %s of untyped expression", name)
	}
	field, ok := typ.Field(name)
	if !ok {
		fail(n, "%s has no field %s", typ, name)
	}
	return &FieldAccess{Receiver: recv, Field: field}
}

// exprType returns the static type of variable-like expressions.
func exprType(e Expression) *symbols.Type {
	switch e := e.(type) {
	case *LocalRef:
		return e.Local.Type
	case *ParameterRef:
		return e.Parameter.Type
	case *ThisRef:
		return e.Parameter.Type
	case *FieldAccess:
		return e.Field.Type
	case *ObjectCreation:
		return e.Type
	}
	return nil
}

func (d *decoder) lambda(n *yaml.Node) *Lambda {
	f := fields(n)
	sym := symbols.NewLambda(d.fn())
	sym.Async = flag(f["async"])
	d.push(sym)
	defer d.pop()
	sym.SetParameters(d.params(f["params"])...)
	saved := d.loops
	d.loops = nil
	defer func() { d.loops = saved }()
	return &Lambda{Symbol: sym, Body: d.block(f["body"])}
}

func (d *decoder) switchExpr(n *yaml.Node) *SwitchExpression {
	f := fields(n)
	sw := &SwitchExpression{Expr: d.expr(f["on"])}
	arms := f["arms"]
	if arms == nil {
		fail(n, "switch expression without arms")
	}
	for _, an := range arms.Content {
		af := fields(an)
		d.push(d.fn())
		arm := &SwitchArm{Pattern: d.pattern(af["case"])}
		if name := af["name"]; name != nil {
			arm.Label = d.label(name.Value)
		} else {
			arm.Label = d.fresh("arm")
		}
		if w := af["when"]; w != nil {
			arm.When = d.expr(w)
		}
		arm.Value = d.expr(af["value"])
		d.pop()
		d.record(an, arm)
		sw.Arms = append(sw.Arms, arm)
	}
	sw.Dag = d.dag(f["dag"])
	return sw
}
