package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"acgs-hq/sentinel/pkg/constitution"
	"acgs-hq/sentinel/pkg/scoring"
)

var validateFlags struct {
	principles string
	category   string
	context    []string
	threshold  float64
}

var validateCmd = &cobra.Command{
	Use:   "validate [content]",
	Short: "Evaluate content offline against the constitutional principles",
	Long: `Evaluate content offline against the constitutional principles.

This runs the deterministic compliance screening locally, without model
backends or a running server: each principle scores the content based on its
violation keywords, and the result is compared against the compliance
threshold.

Examples:
  # Screen an action description
  sentinel validate --principles principles.yaml "deploy the billing service"

  # With category and context attributes
  sentinel validate -p principles.yaml --category safety \
    --context user=alice --context env=prod "rotate the signing keys"`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.principles, "principles", "p", "principles.yaml", "principle file or directory")
	validateCmd.Flags().StringVar(&validateFlags.category, "category", "", "governance category")
	validateCmd.Flags().StringArrayVar(&validateFlags.context, "context", nil, "context attribute (key=value, repeatable)")
	validateCmd.Flags().Float64Var(&validateFlags.threshold, "threshold", 0.95, "compliance threshold")
}

func runValidate(cmd *cobra.Command, args []string) error {
	src := constitution.NewFileSource(validateFlags.principles, false, nil)
	set, err := src.Load(cmd.Context())
	if err != nil {
		return err
	}

	attrs := make(map[string]string, len(validateFlags.context))
	for _, kv := range validateFlags.context {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid context attribute %q: want key=value", kv)
		}
		attrs[key] = value
	}

	scorer := scoring.NewScorer(scoring.Config{})
	breakdown := scorer.Score(scoring.DecisionContext{
		Content:    args[0],
		Attributes: attrs,
		Category:   validateFlags.category,
	}, set, scoring.ModelOutput{Score: 1.0})

	fmt.Printf("constitutional_hash: %s\n", set.Hash())
	fmt.Printf("principles:          %d\n", set.Len())
	fmt.Printf("overall_score:       %.4f\n", breakdown.Overall)

	ids := make([]string, 0, len(breakdown.PerPrinciple))
	for id := range breakdown.PerPrinciple {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Printf("  %-40s %.4f\n", id, breakdown.PerPrinciple[id])
	}

	if len(breakdown.Violations) > 0 {
		fmt.Println("violations:")
		for _, v := range breakdown.Violations {
			fmt.Printf("  %s: %s\n", v.PrincipleID, v.Reason)
		}
	}

	if breakdown.Overall < validateFlags.threshold {
		return fmt.Errorf("non-compliant: score %.4f below threshold %.2f", breakdown.Overall, validateFlags.threshold)
	}
	fmt.Println("compliant")
	return nil
}
