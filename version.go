package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/zvmconnector-go/internal/connector"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print client and service versions",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}

	cmd.Flags().Bool("client", false, "print only the client version")

	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	clientOnly, err := cmd.Flags().GetBool("client")
	if err != nil {
		return err
	}

	if clientOnly {
		fmt.Fprintf(os.Stdout, "zvmconnector %s\n", version)

		return nil
	}

	client, err := newConnectorClient(cc)
	if err != nil {
		return err
	}

	res := client.Do(cmd.Context(), connector.Version{})

	if cc.Flags.JSON {
		if err := printJSON(os.Stdout, map[string]any{"client": version, "service": res}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(os.Stdout, "zvmconnector %s\n", version)

		if res.OK() {
			fmt.Fprintf(os.Stdout, "service     %s\n", renderValue(res.Output))
		}
	}

	if !res.OK() {
		if !cc.Flags.JSON {
			if err := printJSON(os.Stdout, res); err != nil {
				return err
			}
		}

		return errCallFailed
	}

	return nil
}
