package dynq

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querytools/go-dynq/internal/types"
	"github.com/querytools/go-dynq/pkg/expr"
)

type queryUser struct {
	Name string
	Age  int32
}

var usersType = reflect.SliceOf(reflect.TypeOf(queryUser{}))

func TestQueryChaining(t *testing.T) {
	q := NewQueryOver("users", usersType).
		Where("Age > 21").
		OrderBy("Name").
		Take(10)

	e, err := q.Expression()
	require.NoError(t, err)

	// Take(OrderBy(Where(users, ...), ...), 10)
	take, ok := e.(*expr.Call)
	require.True(t, ok)
	assert.Equal(t, "Take", take.Method)
	orderBy := take.Args[0].(*expr.Call)
	assert.Equal(t, "OrderBy", orderBy.Method)
	where := orderBy.Args[0].(*expr.Call)
	assert.Equal(t, "Where", where.Method)
	if _, ok := where.Args[0].(*expr.Parameter); !ok {
		t.Errorf("query root = %T, want source parameter", where.Args[0])
	}
}

func TestQuerySelectChangesElementType(t *testing.T) {
	q := NewQueryOver("users", usersType).Select("Name")
	e, err := q.Expression()
	require.NoError(t, err)
	assert.Equal(t, reflect.SliceOf(types.StringType), e.Type())

	// Subsequent clauses parse against the projected element type.
	count, err := q.Count("it.Length > 3")
	require.NoError(t, err)
	assert.Equal(t, types.Int32Type, count.Type())
}

func TestQueryOrderByDirections(t *testing.T) {
	q := NewQueryOver("users", usersType).OrderBy("Age desc, Name")
	e, err := q.Expression()
	require.NoError(t, err)

	thenBy := e.(*expr.Call)
	assert.Equal(t, "ThenBy", thenBy.Method)
	orderBy := thenBy.Args[0].(*expr.Call)
	assert.Equal(t, "OrderByDescending", orderBy.Method)
}

func TestQueryTerminals(t *testing.T) {
	q := NewQueryOver("users", usersType)

	any, err := q.Any("Age > 30")
	require.NoError(t, err)
	assert.Equal(t, types.BoolType, any.Type())

	first, err := q.FirstOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(queryUser{}), first.Type())

	_, err = q.All("")
	assert.Error(t, err, "All without a predicate is meaningless")
}

func TestQueryParseValues(t *testing.T) {
	e, err := NewQueryOver("users", usersType).Where("Age >= @0", int32(18)).Expression()
	require.NoError(t, err)
	assert.True(t, strings.Contains(e.String(), "Where"), e.String())
}

func TestQueryErrorSticks(t *testing.T) {
	q := NewQueryOver("users", usersType).Where("bogus == 1").Take(5)
	_, err := q.Expression()
	require.Error(t, err)
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestQueryRejectsNonEnumerableSource(t *testing.T) {
	q := NewQuery(expr.NewParameter("x", types.StringType))
	_, err := q.Expression()
	assert.Error(t, err)
}

type fakeProvider struct {
	seen expr.Expression
}

func (f *fakeProvider) Execute(e expr.Expression) (any, error) {
	f.seen = e
	return int32(3), nil
}

func TestQueryExecuteHandsTreeToProvider(t *testing.T) {
	provider := &fakeProvider{}
	result, err := NewQueryOver("users", usersType).Where("Age > 21").Execute(provider)
	require.NoError(t, err)
	assert.Equal(t, int32(3), result)
	require.NotNil(t, provider.seen)
	assert.Equal(t, "Where", provider.seen.(*expr.Call).Method)
}
