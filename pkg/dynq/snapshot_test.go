package dynq

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/querytools/go-dynq/internal/types"
	"github.com/querytools/go-dynq/pkg/expr"
)

// Snapshot the dumped trees for a set of representative expressions; any
// change to node shapes, promotion, or operator selection shows up here.
func TestExpressionTreeSnapshots(t *testing.T) {
	stringIt := reflect.SliceOf(types.StringType)

	tests := []struct {
		name   string
		itType reflect.Type
		input  string
	}{
		{"length_predicate", types.StringType, `it.Length == 4`},
		{"numeric_promotion", types.Int32Type, `it + 2.5 * 3`},
		{"string_compare", types.StringType, `it < "m" || it == "zz"`},
		{"ternary", types.Int32Type, `it > 0 ? "pos" : "neg"`},
		{"aggregate_where", stringIt, `Where(it.Length > 2).Count()`},
		{"aggregate_nested", stringIt, `Any(it.Contains("a"))`},
		{"record_init", types.StringType, `new(it.Length alias Len, it alias Value)`},
		{"conversion", types.Int32Type, `Int64(it) + 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lambda, err := ParseIt(tt.itType, nil, tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.input, err)
			}
			listing := fmt.Sprintf("%s\n---\n%s", lambda.Body, expr.Dump(lambda.Body))
			snaps.MatchSnapshot(t, listing)
		})
	}
}
