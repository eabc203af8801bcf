package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/zvmconnector-go/internal/connector"
	"github.com/tonimelisma/zvmconnector-go/internal/tokenfile"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the admin credential file",
	}

	cmd.AddCommand(newTokenSetCmd())
	cmd.AddCommand(newTokenPathCmd())
	cmd.AddCommand(newTokenCheckCmd())

	return cmd
}

func newTokenSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Store the admin credential read from stdin",
		Long: `Read the admin credential from the first line of stdin and store it in the
configured token_path with owner-only permissions. The file is replaced
atomically, so concurrent calls see either the old or the new credential.

Example:
  zvmconnector token set < /etc/zvmsdk/token.dat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			credential, err := readCredential(cmd.InOrStdin())
			if err != nil {
				return err
			}

			if err := tokenfile.Save(cc.Cfg.TokenPath, credential); err != nil {
				return err
			}

			cc.Logger.Info("admin credential stored", "path", cc.Cfg.TokenPath)
			cc.Statusf("Credential stored in %s\n", cc.Cfg.TokenPath)

			return nil
		},
	}
}

// readCredential returns the first non-empty line of r, trimmed.
func readCredential(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading credential: %w", err)
	}

	return "", errors.New("no credential on stdin")
}

func newTokenPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the credential file path in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())
			fmt.Fprintln(os.Stdout, cc.Cfg.TokenPath)

			return nil
		},
	}
}

func newTokenCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Exchange the credential for a token to verify it",
		Long: `Post the stored admin credential to the token endpoint and report whether
the service issued a token. The issued token is not printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			client, err := newConnectorClient(cc)
			if err != nil {
				return err
			}

			res := client.Do(cmd.Context(), connector.TokenCreate{})
			if !res.OK() {
				if err := printJSON(os.Stdout, res); err != nil {
					return err
				}

				return errCallFailed
			}

			cc.Statusf("Credential accepted by %s\n", cc.Cfg.Host)

			return nil
		},
	}
}
