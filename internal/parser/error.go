package parser

import (
	"github.com/querytools/go-dynq/internal/errors"
)

// Error message formats. The parser aborts on the first failure; every
// message is paired with the 0-based offset where it was detected.
const (
	// Lexical (integer/real validation happens at parse time)
	errInvalidIntegerLiteral = "Invalid integer literal '%s'"
	errInvalidRealLiteral    = "Invalid real literal '%s'"
	errInvalidCharacterLiteral = "Character literal must contain exactly one character"

	// Syntactic
	errSyntaxError                  = "Syntax error"
	errExpressionExpected           = "Expression expected"
	errIdentifierExpected           = "Identifier expected"
	errColonExpected                = "':' expected"
	errOpenParenExpected            = "'(' expected"
	errCloseParenOrOperatorExpected = "')' or operator expected"
	errCloseParenOrCommaExpected    = "')' or ',' expected"
	errCloseBracketOrCommaExpected  = "']' or ',' expected"
	errDotOrOpenParenExpected       = "'.' or '(' expected"
	errMissingAsClause              = "Expression is missing an 'alias' clause"

	// Name resolution
	errUnknownIdentifier      = "Unknown identifier '%s'"
	errUnknownPropertyOrField = "No property or field '%s' exists in type '%s'"
	errDuplicateIdentifier    = "The identifier '%s' was defined more than once"
	errNoItInScope            = "No 'it' is in scope"

	// Typing
	errExpressionTypeMismatch   = "Expression of type '%s' expected"
	errTypeHasNoNullableForm    = "Type '%s' has no nullable form"
	errCannotConvertValue       = "A value of type '%s' cannot be converted to type '%s'"
	errFirstExprMustBeBool      = "The first expression must be of type 'Boolean'"
	errBothTypesConvertToOther  = "Both of the types '%s' and '%s' convert to the other"
	errNeitherTypeConverts      = "Neither of the types '%s' and '%s' converts to the other"
	errIncompatibleOperand      = "Operator '%s' incompatible with operand type '%s'"
	errIncompatibleOperands     = "Operator '%s' incompatible with operand types '%s' and '%s'"
	errInvalidIndex             = "Array index must be an integer expression"
	errCannotIndexMultiDimArray = "Indexing of multi-dimensional arrays is not supported"

	// Overload resolution
	errNoApplicableMethod             = "No applicable method '%s' exists in type '%s'"
	errAmbiguousMethodInvocation      = "Ambiguous invocation of method '%s' in type '%s'"
	errNoApplicableIndexer            = "No applicable indexer exists in type '%s'"
	errAmbiguousIndexerInvocation     = "Ambiguous invocation of indexer in type '%s'"
	errNoMatchingConstructor          = "No matching constructor in type '%s'"
	errAmbiguousConstructorInvocation = "Ambiguous invocation of '%s' constructor"
	errNoApplicableAggregate          = "No applicable aggregate method '%s' exists"
	errMethodsAreInaccessible         = "Methods on type '%s' are not accessible"
	errMethodIsVoid                   = "Method '%s' in type '%s' does not return a value"
	errArgsIncompatibleWithLambda     = "Argument list incompatible with lambda expression"
	errIifRequiresThreeArgs           = "The 'iif' function requires three arguments"
)

// parseError creates a positioned ParseError.
func parseError(pos int, format string, args ...any) error {
	return errors.New(pos, format, args...)
}
