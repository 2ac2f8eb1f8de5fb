package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ichi0g0y/luckydraw/internal/backend"
	"github.com/ichi0g0y/luckydraw/internal/env"
	"github.com/ichi0g0y/luckydraw/internal/localdb"
	"github.com/ichi0g0y/luckydraw/internal/share"
	"github.com/ichi0g0y/luckydraw/internal/shared/paths"
	"github.com/ichi0g0y/luckydraw/internal/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	shareFile  string
	shareType  string
	shareLimit int
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Create and inspect shares",
}

var shareCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a share from a YAML options file",
	Long: `Create a share from a YAML options file:

  name: 尾牙抽獎
  themeId: pink
  options:
    - content: 紅包
    - type: image
      content: ./photos/prize.jpg
      label: 頭獎

Local images are uploaded to the blob store before the record is written.`,
	Args: cobra.NoArgs,
	RunE: runShareCreate,
}

var shareGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print a share as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runShareGet,
}

var shareListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent shares, newest first",
	Args:  cobra.NoArgs,
	RunE:  runShareList,
}

var errShareNotFound = errors.New("share not found")

func init() {
	shareCreateCmd.Flags().StringVarP(&shareFile, "file", "f", "", "YAML options file")
	shareCreateCmd.Flags().StringVar(&shareType, "type", string(types.GameWheel), "Game type (wheel or poke)")
	_ = shareCreateCmd.MarkFlagRequired("file")
	shareListCmd.Flags().IntVarP(&shareLimit, "limit", "n", 20, "Maximum number of shares (0 for all)")
	shareCmd.AddCommand(shareCreateCmd, shareGetCmd, shareListCmd)
}

// openBackend prepares the local database and the configured share store.
func openBackend(ctx context.Context) (*backend.Backend, func(), error) {
	if err := paths.EnsureDataDirs(); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure data directories: %w", err)
	}
	if _, err := localdb.SetupDB(paths.GetDBPath()); err != nil {
		return nil, nil, err
	}
	b, err := backend.Open(ctx, env.Value)
	if err != nil {
		_ = localdb.CloseDB()
		return nil, nil, err
	}
	return b, func() {
		_ = b.Close()
		_ = localdb.CloseDB()
	}, nil
}

func runShareCreate(cmd *cobra.Command, args []string) error {
	gameType, err := types.ParseGameType(shareType)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	b, closeFn, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	cfg, err := readOptionsFile(shareFile, b.Client.RefFor)
	if err != nil {
		return err
	}

	record, err := share.NewSerializer(b.Client, env.Value.UploadConcurrency).CreateShare(ctx, cfg, gameType)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, share.URL(env.Value.ShareLinkBase(), record.ID))
	if link := share.AppLink(env.Value.AppScheme, record.ID); link != "" {
		fmt.Fprintln(out, link)
	}
	fmt.Fprintln(out, share.LinkMessage(record.Name))
	return nil
}

func runShareGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, closeFn, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := share.NewResolver(b.Client).Resolve(ctx, args[0])
	if err != nil {
		return err
	}
	if res.Status == share.StatusNotFound {
		return fmt.Errorf("%w: %s", errShareNotFound, args[0])
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(toOptionsFile(res.Config))
}

func runShareList(cmd *cobra.Command, args []string) error {
	if shareLimit < 0 {
		return fmt.Errorf("limit must not be negative: %d", shareLimit)
	}

	ctx := cmd.Context()
	b, closeFn, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	records, err := b.Client.ListShares(ctx, shareLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, record := range records {
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n",
			record.ID, record.Type, record.CreatedAt.Local().Format("2006-01-02 15:04"), record.Name)
	}
	return nil
}
