package syntax

// This file defines the syntax tree produced by Parse. The tree mirrors the
// source closely; name resolution and typing happen in the builder.

// Node is implemented by every syntax tree node.
type Node interface {
	Span() Span
}

// File is a parsed CFDG source file.
type File struct {
	Name  string
	Decls []Decl
}

// Decl is a top-level declaration.
type Decl interface {
	Node
	declNode()
}

// Stmt is a statement inside a rule, path or loop body.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression.
type Expr interface {
	Node
	exprNode()
}

type node struct {
	Sp Span
}

func (n *node) Span() Span { return n.Sp }

// StartShape is "startshape name(args) [mods]".
type StartShape struct {
	node
	Name    string
	Args    []Expr
	HasArgs bool
	Mod     *Modification // nil if absent
}

// Import is `import@ns "file"`.
type Import struct {
	node
	Namespace string
	Path      string
}

// Param is a declared parameter, e.g. "natural n" or "vector3 v".
type Param struct {
	node
	Type string // number, natural, adjustment, shape, vector
	Size int    // element count for vectors, else 0
	Name string
}

// ShapeDecl is "shape name(params)" followed by its rules.
type ShapeDecl struct {
	node
	Name   string
	Params []*Param
	Rules  []*RuleDecl
}

// RuleDecl is "rule [weight[%]] { ... }". Name is set only for the
// standalone form "rule name [weight] { ... }".
type RuleDecl struct {
	node
	Name      string
	Weight    float64
	HasWeight bool
	Percent   bool
	Body      *Block
}

// PathDecl is "path name(params) { ... }".
type PathDecl struct {
	node
	Name   string
	Params []*Param
	Body   *Block
}

// Definition is "[type] name[(params)] = value". It is both a declaration
// and a statement. Params is non-nil for functions.
type Definition struct {
	node
	Type     string
	Size     int
	Name     string
	Params   []*Param
	Function bool
	Value    Expr
}

// Block is a braced statement list or a single statement.
type Block struct {
	node
	Stmts []Stmt
}

// ShapeStmt is a shape replacement "name(args) [mods]".
type ShapeStmt struct {
	node
	Name    string
	NameSp  Span
	Args    []Expr
	HasArgs bool
	Reuse   bool // name(=)
	Mod     *Modification
}

// PathOpStmt is a path operation such as "LINETO(1, 0)".
type PathOpStmt struct {
	node
	Op   string
	Args []Expr
}

// PathCmdStmt is "FILL(args) [mods]" or "STROKE(args) [mods]".
type PathCmdStmt struct {
	node
	Cmd  string
	Args []Expr
	Mod  *Modification // nil if absent
}

// LoopStmt is "loop [var =] args [mods] body [finally body]" or the
// shorthand "count * [mods] body".
type LoopStmt struct {
	node
	Var     string
	Args    []Expr
	Mod     *Modification
	Body    *Block
	Finally *Block // nil if absent
}

// IfStmt is "if (cond) body [else body]".
type IfStmt struct {
	node
	Cond Expr
	Then *Block
	Else *Block // nil if absent
}

// SwitchStmt is "switch (selector) { case ...: body ... else: body }".
type SwitchStmt struct {
	node
	Selector Expr
	Cases    []*Case
	Else     *Block // nil if absent
}

// Case is one "case values: body" arm. A value may be a range "a..b".
type Case struct {
	node
	Values []Expr
	Body   *Block
}

// TransformStmt is "transform [mods]... body" or "clone [mods]... body".
type TransformStmt struct {
	node
	Clone bool
	Mods  []*Modification
	Body  *Block
}

// Modification is "[terms]" (canonical order) or "[[terms]]" (in order).
type Modification struct {
	node
	Ordered bool
	Terms   []*Term
}

// Term is one adjustment. Target is set for "|hue 30" (adjust the target
// color); UseTarget for "hue 0.5|" (move toward the target). A term whose
// Name is empty holds a single adjustment-valued expression.
type Term struct {
	node
	Name      string
	Args      []Expr
	Target    bool
	UseTarget bool
}

// NumberLit is a numeric literal.
type NumberLit struct {
	node
	Value float64
	Text  string
}

// Ident is a name reference.
type Ident struct {
	node
	Name string
}

// CallExpr is "name(args)" or "name(=)".
type CallExpr struct {
	node
	Name   string
	NameSp Span
	Args   []Expr
	Reuse  bool
}

// UnaryExpr is a prefix operation.
type UnaryExpr struct {
	node
	Op Kind
	X  Expr
}

// BinaryExpr is an infix operation, including "a..b" ranges.
type BinaryExpr struct {
	node
	Op   Kind
	X, Y Expr
}

// TupleExpr is a parenthesized list "(a, b, c)".
type TupleExpr struct {
	node
	Elems []Expr
}

// IndexExpr is "x[index]" or "x[index, length, stride]".
type IndexExpr struct {
	node
	X    Expr
	Args []Expr
}

// LetExpr is "let(a = 1; b = a + 1; body)".
type LetExpr struct {
	node
	Defs []*Definition
	Body Expr
}

// ModExpr is an adjustment literal used as a value.
type ModExpr struct {
	node
	Mod *Modification
}

func (*StartShape) declNode() {}
func (*Import) declNode()     {}
func (*ShapeDecl) declNode()  {}
func (*RuleDecl) declNode()   {}
func (*PathDecl) declNode()   {}
func (*Definition) declNode() {}

func (*Definition) stmtNode()    {}
func (*ShapeStmt) stmtNode()     {}
func (*PathOpStmt) stmtNode()    {}
func (*PathCmdStmt) stmtNode()   {}
func (*LoopStmt) stmtNode()      {}
func (*IfStmt) stmtNode()        {}
func (*SwitchStmt) stmtNode()    {}
func (*TransformStmt) stmtNode() {}

func (*NumberLit) exprNode()  {}
func (*Ident) exprNode()      {}
func (*CallExpr) exprNode()   {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}
func (*TupleExpr) exprNode()  {}
func (*IndexExpr) exprNode()  {}
func (*LetExpr) exprNode()    {}
func (*ModExpr) exprNode()    {}
