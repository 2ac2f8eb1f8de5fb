package main

import (
	"errors"
	"fmt"

	"github.com/ichi0g0y/luckydraw/internal/deeplink"
	"github.com/ichi0g0y/luckydraw/internal/shareid"
	"github.com/spf13/cobra"
)

var idCount int

// idCmd prints freshly generated share identifiers
var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Generate share identifiers",
	Args:  cobra.NoArgs,
	RunE:  runID,
}

// extractCmd prints the share id referenced by a link
var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Extract the share id from a link",
	Long: `Extract the share id from a link. Accepted shapes:
  https://<host>/s/<id>
  https://<host>/?share=<id>
  luckydraw://s/<id>`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

var errNoShareReference = errors.New("no share reference in link")

func init() {
	idCmd.Flags().IntVarP(&idCount, "count", "n", 1, "Number of identifiers to generate")
}

func runID(cmd *cobra.Command, args []string) error {
	if idCount < 1 {
		return fmt.Errorf("count must be positive: %d", idCount)
	}
	for i := 0; i < idCount; i++ {
		id, err := shareid.New()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	id, ok := deeplink.Extract(args[0])
	if !ok {
		return errNoShareReference
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
