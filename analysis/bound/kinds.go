package bound

import "fmt"

type Kind int

const (
	KindBlock Kind = iota
	KindLocalDeclaration
	KindExpressionStatement
	KindIf
	KindWhile
	KindDo
	KindFor
	KindForEach
	KindGoto
	KindLabeled
	KindBreak
	KindContinue
	KindReturn
	KindThrow
	KindTry
	KindCatch
	KindSwitch
	KindSwitchSection
	KindSwitchLabel
	KindYieldReturn
	KindYieldBreak
	KindLocalFunctionStatement
	KindUsing
	KindLock
	KindNoOp

	KindLiteral
	KindLocalRef
	KindParameterRef
	KindThisRef
	KindFieldAccess
	KindAssignment
	KindCompoundAssignment
	KindBinary
	KindUnary
	KindConditional
	KindCall
	KindObjectCreation
	KindLambda
	KindDelegateCreation
	KindIsPattern
	KindSwitchExpression
	KindSwitchArm
	KindAwait
	KindNullCoalescing
	KindConditionalAccess
	KindThrowExpression
	KindTypeExpression

	KindConstantPattern
	KindDeclarationPattern
	KindDiscardPattern
	KindTypePattern

	// KindCount is the number of node kinds.
	KindCount
)

var kindNames = [KindCount]string{
	KindBlock:                  "Block",
	KindLocalDeclaration:       "LocalDeclaration",
	KindExpressionStatement:    "ExpressionStatement",
	KindIf:                     "If",
	KindWhile:                  "While",
	KindDo:                     "Do",
	KindFor:                    "For",
	KindForEach:                "ForEach",
	KindGoto:                   "Goto",
	KindLabeled:                "Labeled",
	KindBreak:                  "Break",
	KindContinue:               "Continue",
	KindReturn:                 "Return",
	KindThrow:                  "Throw",
	KindTry:                    "Try",
	KindCatch:                  "Catch",
	KindSwitch:                 "Switch",
	KindSwitchSection:          "SwitchSection",
	KindSwitchLabel:            "SwitchLabel",
	KindYieldReturn:            "YieldReturn",
	KindYieldBreak:             "YieldBreak",
	KindLocalFunctionStatement: "LocalFunctionStatement",
	KindUsing:                  "Using",
	KindLock:                   "Lock",
	KindNoOp:                   "NoOp",
	KindLiteral:                "Literal",
	KindLocalRef:               "LocalRef",
	KindParameterRef:           "ParameterRef",
	KindThisRef:                "ThisRef",
	KindFieldAccess:            "FieldAccess",
	KindAssignment:             "Assignment",
	KindCompoundAssignment:     "CompoundAssignment",
	KindBinary:                 "Binary",
	KindUnary:                  "Unary",
	KindConditional:            "Conditional",
	KindCall:                   "Call",
	KindObjectCreation:         "ObjectCreation",
	KindLambda:                 "Lambda",
	KindDelegateCreation:       "DelegateCreation",
	KindIsPattern:              "IsPattern",
	KindSwitchExpression:       "SwitchExpression",
	KindSwitchArm:              "SwitchArm",
	KindAwait:                  "Await",
	KindNullCoalescing:         "NullCoalescing",
	KindConditionalAccess:      "ConditionalAccess",
	KindThrowExpression:        "ThrowExpression",
	KindTypeExpression:         "TypeExpression",
	KindConstantPattern:        "ConstantPattern",
	KindDeclarationPattern:     "DeclarationPattern",
	KindDiscardPattern:         "DiscardPattern",
	KindTypePattern:            "TypePattern",
}

func (k Kind) String() string {
	if k >= 0 && k < KindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (*Block) Kind() Kind                  { return KindBlock }
func (*LocalDeclaration) Kind() Kind       { return KindLocalDeclaration }
func (*ExpressionStatement) Kind() Kind    { return KindExpressionStatement }
func (*If) Kind() Kind                     { return KindIf }
func (*While) Kind() Kind                  { return KindWhile }
func (*Do) Kind() Kind                     { return KindDo }
func (*For) Kind() Kind                    { return KindFor }
func (*ForEach) Kind() Kind                { return KindForEach }
func (*Goto) Kind() Kind                   { return KindGoto }
func (*Labeled) Kind() Kind                { return KindLabeled }
func (*Break) Kind() Kind                  { return KindBreak }
func (*Continue) Kind() Kind               { return KindContinue }
func (*Return) Kind() Kind                 { return KindReturn }
func (*Throw) Kind() Kind                  { return KindThrow }
func (*Try) Kind() Kind                    { return KindTry }
func (*Catch) Kind() Kind                  { return KindCatch }
func (*Switch) Kind() Kind                 { return KindSwitch }
func (*SwitchSection) Kind() Kind          { return KindSwitchSection }
func (*SwitchLabel) Kind() Kind            { return KindSwitchLabel }
func (*YieldReturn) Kind() Kind            { return KindYieldReturn }
func (*YieldBreak) Kind() Kind             { return KindYieldBreak }
func (*LocalFunctionStatement) Kind() Kind { return KindLocalFunctionStatement }
func (*Using) Kind() Kind                  { return KindUsing }
func (*Lock) Kind() Kind                   { return KindLock }
func (*NoOp) Kind() Kind                   { return KindNoOp }
func (*Literal) Kind() Kind                { return KindLiteral }
func (*LocalRef) Kind() Kind               { return KindLocalRef }
func (*ParameterRef) Kind() Kind           { return KindParameterRef }
func (*ThisRef) Kind() Kind                { return KindThisRef }
func (*FieldAccess) Kind() Kind            { return KindFieldAccess }
func (*Assignment) Kind() Kind             { return KindAssignment }
func (*CompoundAssignment) Kind() Kind     { return KindCompoundAssignment }
func (*Binary) Kind() Kind                 { return KindBinary }
func (*Unary) Kind() Kind                  { return KindUnary }
func (*Conditional) Kind() Kind            { return KindConditional }
func (*Call) Kind() Kind                   { return KindCall }
func (*ObjectCreation) Kind() Kind         { return KindObjectCreation }
func (*Lambda) Kind() Kind                 { return KindLambda }
func (*DelegateCreation) Kind() Kind       { return KindDelegateCreation }
func (*IsPattern) Kind() Kind              { return KindIsPattern }
func (*SwitchExpression) Kind() Kind       { return KindSwitchExpression }
func (*SwitchArm) Kind() Kind              { return KindSwitchArm }
func (*Await) Kind() Kind                  { return KindAwait }
func (*NullCoalescing) Kind() Kind         { return KindNullCoalescing }
func (*ConditionalAccess) Kind() Kind      { return KindConditionalAccess }
func (*ThrowExpression) Kind() Kind        { return KindThrowExpression }
func (*TypeExpression) Kind() Kind         { return KindTypeExpression }
func (*ConstantPattern) Kind() Kind        { return KindConstantPattern }
func (*DeclarationPattern) Kind() Kind     { return KindDeclarationPattern }
func (*DiscardPattern) Kind() Kind         { return KindDiscardPattern }
func (*TypePattern) Kind() Kind            { return KindTypePattern }
