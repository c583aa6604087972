package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/querytools/go-dynq/internal/errors"
	"github.com/querytools/go-dynq/internal/lexer"
)

var lexCmd = &cobra.Command{
	Use:   "lex <expression>",
	Short: "Tokenize an expression and print the resulting tokens",
	Long: `Tokenize (lex) an expression and print the resulting tokens with
their positions.

Examples:
  # Tokenize an expression
  dynq lex 'it.Length == 4 && Price > 12.5'`,
	Args: cobra.ExactArgs(1),
	RunE: runLex,
}

func init() {
	rootCmd.AddCommand(lexCmd)
}

func runLex(cmd *cobra.Command, args []string) error {
	source := args[0]
	l := lexer.New(source)
	for {
		tok, err := l.Next()
		if err != nil {
			if pe, ok := err.(*errors.ParseError); ok {
				fmt.Fprintln(os.Stderr, pe.Format(source))
				return fmt.Errorf("lexing failed")
			}
			return err
		}
		fmt.Printf("%4d  %-8s %q\n", tok.Pos, tok.Type, tok.Text)
		if tok.Type == lexer.END {
			return nil
		}
	}
}
