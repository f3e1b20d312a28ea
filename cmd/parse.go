package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/antchfx/xmlquery"
	"github.com/spf13/cobra"

	"github.com/jmxpilot/jmxpilot/internal/log"
	"github.com/jmxpilot/jmxpilot/internal/testplan"
)

var parseOutput string

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Validate a JMeter test plan from a file or stdin",
	Long: `Parse validates a .jmx test plan, or extracts and validates one embedded
in arbitrary text (for example a saved chat transcript). With no argument
the input is read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parseOutput, "output", "o", "",
		"write the extracted test plan XML to a file")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	logger := log.New(log.Config{})
	parser := testplan.NewParser(nil, logger)

	var result testplan.Result
	if len(args) == 1 {
		result = parser.ParseFile(args[0])
	} else {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		result = parser.Parse(string(content))
	}

	if !result.IsSuccess() {
		return fmt.Errorf("invalid test plan: %s", result.ErrMessage())
	}

	fmt.Printf("Valid JMeter test plan (%d elements)\n", countElements(result.Tree()))

	if parseOutput != "" {
		if err := os.WriteFile(parseOutput, []byte(result.ExtractedXML()), 0o640); err != nil {
			return fmt.Errorf("writing %s: %w", parseOutput, err)
		}
		fmt.Printf("Wrote extracted plan to %s\n", parseOutput)
	}

	return nil
}

// countElements counts XML element nodes in the parsed tree.
func countElements(node *xmlquery.Node) int {
	if node == nil {
		return 0
	}
	count := 0
	if node.Type == xmlquery.ElementNode {
		count = 1
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		count += countElements(child)
	}
	return count
}
