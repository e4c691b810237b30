package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"acgs-hq/sentinel/pkg/constitution"
)

var hashFlags struct {
	principles string
	expect     string
}

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Compute the constitutional hash of a principle file",
	Long: `Compute the constitutional hash of a principle file or directory.

The hash is derived from the canonical serialization of the active principle
set and is the fingerprint every decision path validates against.

Examples:
  # Print the hash
  sentinel hash --principles principles.yaml

  # Verify against an expected pin (exit code 1 on mismatch)
  sentinel hash --principles principles.yaml --expect cdd01ef066bc6cf2`,
	RunE: runHash,
}

func init() {
	rootCmd.AddCommand(hashCmd)

	hashCmd.Flags().StringVarP(&hashFlags.principles, "principles", "p", "principles.yaml", "principle file or directory")
	hashCmd.Flags().StringVar(&hashFlags.expect, "expect", "", "expected hash to verify against")
}

func runHash(cmd *cobra.Command, args []string) error {
	src := constitution.NewFileSource(hashFlags.principles, false, nil)
	set, err := src.Load(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(set.Hash())

	if hashFlags.expect != "" && set.Hash() != hashFlags.expect {
		fmt.Fprintf(os.Stderr, "hash mismatch: expected %s\n", hashFlags.expect)
		os.Exit(1)
	}
	return nil
}
