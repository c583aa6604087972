package cmd

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/querytools/go-dynq/internal/errors"
	"github.com/querytools/go-dynq/internal/types"
	"github.com/querytools/go-dynq/pkg/dynq"
	"github.com/querytools/go-dynq/pkg/expr"
)

var (
	parseItType     string
	parseResultType string
)

var parseCmd = &cobra.Command{
	Use:   "parse <expression>",
	Short: "Parse an expression and display the expression tree",
	Long: `Parse an expression and display the typed expression tree.

Use --it to parse against an implicit iteration parameter of a
predefined type, and --result to promote the parsed expression to a
result type.

Examples:
  # Parse a standalone expression
  dynq parse '1 + 2 * 3'

  # Parse a predicate over a string parameter
  dynq parse --it String 'it.Length == 4'

  # Promote the result to Double
  dynq parse --result Double '2 + 3'`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parseItType, "it", "", "type name of the implicit 'it' parameter")
	parseCmd.Flags().StringVar(&parseResultType, "result", "", "type name to promote the result to")
}

func runParse(cmd *cobra.Command, args []string) error {
	source := args[0]
	reg := types.NewRegistry()

	var resultType, itType reflect.Type
	if parseResultType != "" {
		t, ok := reg.Lookup(parseResultType)
		if !ok {
			return fmt.Errorf("unknown result type %q", parseResultType)
		}
		resultType = t
	}
	if parseItType != "" {
		t, ok := reg.Lookup(parseItType)
		if !ok {
			return fmt.Errorf("unknown parameter type %q", parseItType)
		}
		itType = t
	}

	start := time.Now()
	var (
		tree expr.Expression
		err  error
	)
	if itType != nil {
		var lambda *expr.Lambda
		lambda, err = dynq.ParseIt(itType, resultType, source)
		if err == nil {
			tree = lambda
		}
	} else {
		tree, err = dynq.Parse(resultType, source)
	}
	logger.Debug("parse finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("ok", err == nil))

	if err != nil {
		if pe, ok := err.(*errors.ParseError); ok {
			fmt.Fprintln(os.Stderr, pe.Format(source))
			return fmt.Errorf("parsing failed")
		}
		return err
	}

	fmt.Println(tree)
	fmt.Print(expr.Dump(tree))
	return nil
}
