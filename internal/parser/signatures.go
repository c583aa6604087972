package parser

import (
	"reflect"

	"github.com/querytools/go-dynq/internal/types"
)

// opSig is one candidate signature of an operator. The signature sets are
// intentionally over-generous; the overload resolver's better-conversion
// rule does all disambiguation.
type opSig struct {
	params []reflect.Type
	result reflect.Type
}

func lift(t reflect.Type) reflect.Type {
	n, _ := types.Nullable(t)
	return n
}

// binaryPair yields the (T, T) signature and its nullable lifting.
func binaryPair(t, result reflect.Type) []opSig {
	sigs := []opSig{{params: []reflect.Type{t, t}, result: result}}
	lifted := opSig{params: []reflect.Type{lift(t), lift(t)}, result: result}
	if result == t {
		lifted.result = lift(t)
	}
	return append(sigs, lifted)
}

// binaryMixed yields the (L, R) → result signature and its nullable lifting.
func binaryMixed(l, r, result reflect.Type) []opSig {
	return []opSig{
		{params: []reflect.Type{l, r}, result: result},
		{params: []reflect.Type{lift(l), lift(r)}, result: lift(result)},
	}
}

func unaryOf(ts ...reflect.Type) []opSig {
	var sigs []opSig
	for _, t := range ts {
		sigs = append(sigs,
			opSig{params: []reflect.Type{t}, result: t},
			opSig{params: []reflect.Type{lift(t)}, result: lift(t)})
	}
	return sigs
}

var arithmeticTypes = []reflect.Type{
	types.Int32Type, types.UInt32Type, types.Int64Type, types.UInt64Type,
	types.SingleType, types.DoubleType, types.DecimalType,
}

func arithmeticSet() []opSig {
	var sigs []opSig
	for _, t := range arithmeticTypes {
		sigs = append(sigs, binaryPair(t, t)...)
	}
	return sigs
}

func comparisonSet(result reflect.Type) []opSig {
	var sigs []opSig
	for _, t := range arithmeticTypes {
		sigs = append(sigs, binaryPair(t, result)...)
	}
	sigs = append(sigs, opSig{params: []reflect.Type{types.StringType, types.StringType}, result: result})
	for _, t := range []reflect.Type{types.CharType, types.DateTimeType, types.TimeSpanType} {
		sigs = append(sigs, binaryPair(t, result)...)
	}
	return sigs
}

// Operator signature sets.
var (
	logicalSignatures = func() []opSig {
		return binaryPair(types.BoolType, types.BoolType)
	}()

	// = == != <> < <= > >= : relational excludes bool, equality adds
	// bool and Guid.
	relationalSignatures = comparisonSet(types.BoolType)

	equalitySignatures = func() []opSig {
		sigs := comparisonSet(types.BoolType)
		sigs = append(sigs, binaryPair(types.BoolType, types.BoolType)...)
		sigs = append(sigs, binaryPair(types.GuidType, types.BoolType)...)
		return sigs
	}()

	// + : arithmetic plus the calendar forms.
	addSignatures = func() []opSig {
		sigs := arithmeticSet()
		sigs = append(sigs, binaryMixed(types.DateTimeType, types.TimeSpanType, types.DateTimeType)...)
		sigs = append(sigs, binaryPair(types.TimeSpanType, types.TimeSpanType)...)
		return sigs
	}()

	// - : arithmetic plus the calendar forms.
	subtractSignatures = func() []opSig {
		sigs := arithmeticSet()
		sigs = append(sigs, binaryMixed(types.DateTimeType, types.DateTimeType, types.TimeSpanType)...)
		sigs = append(sigs, binaryMixed(types.DateTimeType, types.TimeSpanType, types.DateTimeType)...)
		return sigs
	}()

	// * / % mod
	multiplySignatures = arithmeticSet()

	// unary -
	negationSignatures = unaryOf(
		types.Int32Type, types.Int64Type,
		types.SingleType, types.DoubleType, types.DecimalType)

	// ! not
	notSignatures = unaryOf(types.BoolType)
)
