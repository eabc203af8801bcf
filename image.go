package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/zvmconnector-go/internal/connector"
)

func newImageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Transfer image files to and from the connector",
	}

	cmd.AddCommand(newImageUploadCmd())
	cmd.AddCommand(newImageDownloadCmd())

	return cmd
}

func newImageUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <image-name> <file>",
		Short: "Upload a local image file",
		Long: `Stream a local file to the connector as the content of the named image.
Metadata given with --meta is sent as request headers.

Examples:
  zvmconnector image upload rhel9.img /var/lib/images/rhel9.img
  zvmconnector image upload rhel9.img ./rhel9.img --meta os_version=rhel9.2`,
		Args: cobra.ExactArgs(2),
		RunE: runImageUpload,
	}

	cmd.Flags().StringArray("meta", nil, "image metadata header as key=value (repeatable)")

	return cmd
}

func runImageUpload(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()
	name, source := args[0], args[1]

	pairs, err := cmd.Flags().GetStringArray("meta")
	if err != nil {
		return err
	}

	meta, err := parseMeta(pairs)
	if err != nil {
		return err
	}

	client, err := newConnectorClient(cc)
	if err != nil {
		return err
	}

	res := client.UploadImage(ctx, name, source, meta)

	rec := newRecorder(ctx, cc)
	defer rec.close()
	rec.record(ctx, connector.OpImageUpload, []any{name, source, meta}, nil, res)

	return reportTransfer(cc, res, "Uploaded %s from %s\n", name, source)
}

func newImageDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <image-name> <file>",
		Short: "Download an image to a local file",
		Long: `Stream the named image into a local file. The file appears only after
the whole image arrived and its checksum matched; a failed download leaves
any existing file untouched.`,
		Args: cobra.ExactArgs(2),
		RunE: runImageDownload,
	}
}

func runImageDownload(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	name, dest := args[0], args[1]

	client, err := newConnectorClient(cc)
	if err != nil {
		return err
	}

	res := client.DownloadImage(cmd.Context(), name, dest)

	return reportTransfer(cc, res, "Downloaded %s to %s\n", name, dest)
}

// reportTransfer prints the envelope for failures or --json, and a status
// line otherwise.
func reportTransfer(cc *CLIContext, res connector.Result, format string, args ...any) error {
	if cc.Flags.JSON || !res.OK() {
		if err := printJSON(os.Stdout, res); err != nil {
			return err
		}
	}

	if !res.OK() {
		return errCallFailed
	}

	cc.Statusf(format, args...)

	return nil
}

// parseMeta splits key=value metadata pairs into header values.
func parseMeta(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	meta := make(map[string]string, len(pairs))

	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --meta %q: expected key=value", p)
		}

		meta[key] = value
	}

	return meta, nil
}
