package pyast

// Kind identifies the syntactic category of a node. The engine models a
// closed set of Python constructs; anything the grammar produces outside
// this vocabulary maps to KindOpaque.
type Kind uint8

const (
	KindOpaque Kind = iota

	// Structure
	KindModule
	KindBlock
	KindFunctionDef
	KindClassDef
	KindDecoratedDef

	// Compound statements
	KindIf
	KindElif
	KindElse
	KindWhile
	KindFor
	KindTry
	KindExcept
	KindFinally
	KindWith
	KindMatch

	// Simple statements
	KindReturn
	KindRaise
	KindBreak
	KindContinue
	KindPass
	KindExprStmt
	KindAssign
	KindAugAssign
	KindImport
	KindImportFrom
	KindGlobal
	KindNonlocal
	KindAssert
	KindDelete

	// Expressions
	KindIdentifier
	KindAttribute
	KindCall
	KindLambda
	KindCondExpr
	KindBoolOp
	KindNotOp
	KindCompare
	KindBinOp
	KindUnaryOp
	KindNamedExpr
	KindSubscript
	KindAsPattern
	KindParen

	// Literals
	KindTrue
	KindFalse
	KindNone
	KindInteger
	KindFloat
	KindString
	KindList
	KindTuple
	KindDict
	KindSet

	// Comprehensions
	KindListComp
	KindSetComp
	KindDictComp
	KindGeneratorExp
	KindForInClause
	KindIfClause

	// Misc
	KindParameters
	KindArgumentList
	KindKeywordArg
	KindComment
)

// kindNames maps tree-sitter Python node types to engine kinds.
var kindNames = map[string]Kind{
	"module":                   KindModule,
	"block":                    KindBlock,
	"function_definition":      KindFunctionDef,
	"class_definition":         KindClassDef,
	"decorated_definition":     KindDecoratedDef,
	"if_statement":             KindIf,
	"elif_clause":              KindElif,
	"else_clause":              KindElse,
	"while_statement":          KindWhile,
	"for_statement":            KindFor,
	"try_statement":            KindTry,
	"except_clause":            KindExcept,
	"finally_clause":           KindFinally,
	"with_statement":           KindWith,
	"match_statement":          KindMatch,
	"return_statement":         KindReturn,
	"raise_statement":          KindRaise,
	"break_statement":          KindBreak,
	"continue_statement":       KindContinue,
	"pass_statement":           KindPass,
	"expression_statement":     KindExprStmt,
	"assignment":               KindAssign,
	"augmented_assignment":     KindAugAssign,
	"import_statement":         KindImport,
	"import_from_statement":    KindImportFrom,
	"global_statement":         KindGlobal,
	"nonlocal_statement":       KindNonlocal,
	"assert_statement":         KindAssert,
	"delete_statement":         KindDelete,
	"identifier":               KindIdentifier,
	"attribute":                KindAttribute,
	"call":                     KindCall,
	"lambda":                   KindLambda,
	"conditional_expression":   KindCondExpr,
	"boolean_operator":         KindBoolOp,
	"not_operator":             KindNotOp,
	"comparison_operator":      KindCompare,
	"binary_operator":          KindBinOp,
	"unary_operator":           KindUnaryOp,
	"named_expression":         KindNamedExpr,
	"subscript":                KindSubscript,
	"as_pattern":               KindAsPattern,
	"parenthesized_expression": KindParen,
	"true":                     KindTrue,
	"false":                    KindFalse,
	"none":                     KindNone,
	"integer":                  KindInteger,
	"float":                    KindFloat,
	"string":                   KindString,
	"list":                     KindList,
	"tuple":                    KindTuple,
	"dictionary":               KindDict,
	"set":                      KindSet,
	"list_comprehension":       KindListComp,
	"set_comprehension":        KindSetComp,
	"dictionary_comprehension": KindDictComp,
	"generator_expression":     KindGeneratorExp,
	"for_in_clause":            KindForInClause,
	"if_clause":                KindIfClause,
	"parameters":               KindParameters,
	"argument_list":            KindArgumentList,
	"keyword_argument":         KindKeywordArg,
	"comment":                  KindComment,
}

var kindStrings = map[Kind]string{
	KindOpaque:       "opaque",
	KindModule:       "module",
	KindBlock:        "block",
	KindFunctionDef:  "function_definition",
	KindClassDef:     "class_definition",
	KindDecoratedDef: "decorated_definition",
	KindIf:           "if_statement",
	KindElif:         "elif_clause",
	KindElse:         "else_clause",
	KindWhile:        "while_statement",
	KindFor:          "for_statement",
	KindTry:          "try_statement",
	KindExcept:       "except_clause",
	KindFinally:      "finally_clause",
	KindWith:         "with_statement",
	KindMatch:        "match_statement",
	KindReturn:       "return_statement",
	KindRaise:        "raise_statement",
	KindBreak:        "break_statement",
	KindContinue:     "continue_statement",
	KindPass:         "pass_statement",
	KindExprStmt:     "expression_statement",
	KindAssign:       "assignment",
	KindAugAssign:    "augmented_assignment",
	KindImport:       "import_statement",
	KindImportFrom:   "import_from_statement",
	KindGlobal:       "global_statement",
	KindNonlocal:     "nonlocal_statement",
	KindAssert:       "assert_statement",
	KindDelete:       "delete_statement",
	KindIdentifier:   "identifier",
	KindAttribute:    "attribute",
	KindCall:         "call",
	KindLambda:       "lambda",
	KindCondExpr:     "conditional_expression",
	KindBoolOp:       "boolean_operator",
	KindNotOp:        "not_operator",
	KindCompare:      "comparison_operator",
	KindBinOp:        "binary_operator",
	KindUnaryOp:      "unary_operator",
	KindNamedExpr:    "named_expression",
	KindSubscript:    "subscript",
	KindAsPattern:    "as_pattern",
	KindParen:        "parenthesized_expression",
	KindTrue:         "true",
	KindFalse:        "false",
	KindNone:         "none",
	KindInteger:      "integer",
	KindFloat:        "float",
	KindString:       "string",
	KindList:         "list",
	KindTuple:        "tuple",
	KindDict:         "dictionary",
	KindSet:          "set",
	KindListComp:     "list_comprehension",
	KindSetComp:      "set_comprehension",
	KindDictComp:     "dictionary_comprehension",
	KindGeneratorExp: "generator_expression",
	KindForInClause:  "for_in_clause",
	KindIfClause:     "if_clause",
	KindParameters:   "parameters",
	KindArgumentList: "argument_list",
	KindKeywordArg:   "keyword_argument",
	KindComment:      "comment",
}

// String returns the tree-sitter node type name for the kind.
func (k Kind) String() string {
	if s, ok := kindStrings[k]; ok {
		return s
	}
	return "opaque"
}

// IsStatement reports whether the kind is a statement-level construct.
func (k Kind) IsStatement() bool {
	switch k {
	case KindIf, KindWhile, KindFor, KindTry, KindWith, KindMatch,
		KindReturn, KindRaise, KindBreak, KindContinue, KindPass,
		KindExprStmt, KindImport, KindImportFrom, KindGlobal, KindNonlocal,
		KindAssert, KindDelete, KindFunctionDef, KindClassDef, KindDecoratedDef:
		return true
	}
	return false
}

// IsComprehension reports whether the kind introduces a comprehension scope.
func (k Kind) IsComprehension() bool {
	switch k {
	case KindListComp, KindSetComp, KindDictComp, KindGeneratorExp:
		return true
	}
	return false
}

// Role identifies the grammatical slot a node occupies within its parent,
// resolved from tree-sitter field names at parse time. Only the slots the
// CFG builder and checkers consume are tracked.
type Role uint8

const (
	RoleNone Role = iota
	RoleCondition
	RoleBody
	RoleLeft
	RoleRight
	RoleName
	RoleParameters
	RoleReturnType
	RoleCallee
	RoleSubject
)

// roleFields lists, per parent node type, the tree-sitter field names that
// map to roles. Resolved against ChildByFieldName during arena construction.
var roleFields = map[string][]struct {
	field string
	role  Role
}{
	"if_statement":            {{"condition", RoleCondition}, {"consequence", RoleBody}},
	"elif_clause":             {{"condition", RoleCondition}, {"consequence", RoleBody}},
	"else_clause":             {{"body", RoleBody}},
	"while_statement":         {{"condition", RoleCondition}, {"body", RoleBody}},
	"for_statement":           {{"left", RoleLeft}, {"right", RoleRight}, {"body", RoleBody}},
	"try_statement":           {{"body", RoleBody}},
	"with_statement":          {{"body", RoleBody}},
	"function_definition":     {{"name", RoleName}, {"parameters", RoleParameters}, {"return_type", RoleReturnType}, {"body", RoleBody}},
	"class_definition":        {{"name", RoleName}, {"body", RoleBody}},
	"assignment":              {{"left", RoleLeft}, {"right", RoleRight}},
	"augmented_assignment":    {{"left", RoleLeft}, {"right", RoleRight}},
	"named_expression":        {{"name", RoleLeft}, {"value", RoleRight}},
	"call":                    {{"function", RoleCallee}},
	"lambda":                  {{"parameters", RoleParameters}, {"body", RoleBody}},
	"for_in_clause":           {{"left", RoleLeft}, {"right", RoleRight}},
	"match_statement":         {{"subject", RoleSubject}},
	"default_parameter":       {{"name", RoleName}},
	"typed_default_parameter": {{"name", RoleName}},
	"keyword_argument":        {{"name", RoleName}, {"value", RoleRight}},
	"as_pattern":              {{"alias", RoleName}},
}
