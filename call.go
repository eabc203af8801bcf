package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/zvmconnector-go/internal/connector"
)

// errCallFailed signals that an operation returned a failure envelope which
// has already been written to stdout.
var errCallFailed = errors.New("operation failed")

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <operation> [arg...]",
		Short: "Run one connector operation and print its result envelope",
		Long: `Run a connector operation by name and print the result envelope as JSON.

Each positional argument is decoded as JSON when it is valid JSON and used as
a plain string otherwise, so numbers, booleans, objects and lists can be
passed directly. Quote a value to force a string: '"1000"'.

Keyword arguments are given with --kw key=value using the same rule.
Use 'zvmconnector ops' to list operations and their argument counts.

Examples:
  zvmconnector call version
  zvmconnector call guest_create GUEST01 2 2048 --kw user_profile=osdflt
  zvmconnector call guest_create_disks GUEST01 '[{"size":"1g","is_boot_disk":true}]'
  zvmconnector call image_download rhel9.img --output rhel9.img`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCall,
	}

	cmd.Flags().StringArray("kw", nil, "keyword argument as key=value (repeatable)")
	cmd.Flags().String("output", "", "write binary response bodies to this file")

	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	name := args[0]
	callArgs := parseArgs(args[1:])

	kwPairs, err := cmd.Flags().GetStringArray("kw")
	if err != nil {
		return err
	}

	kw, err := parseKwargs(kwPairs)
	if err != nil {
		return err
	}

	var opts []connector.CallOption

	outPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()

		opts = append(opts, connector.WithSink(f))
	}

	client, err := newConnectorClient(cc)
	if err != nil {
		return err
	}

	res := client.Call(ctx, name, callArgs, kw, opts...)

	rec := newRecorder(ctx, cc)
	defer rec.close()
	rec.record(ctx, name, callArgs, kw, res)

	if err := printJSON(os.Stdout, res); err != nil {
		return err
	}

	if !res.OK() {
		return errCallFailed
	}

	return nil
}

// parseArgs decodes each argument as JSON, falling back to the raw string.
func parseArgs(raw []string) []any {
	out := make([]any, 0, len(raw))
	for _, s := range raw {
		out = append(out, parseValue(s))
	}

	return out
}

func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}

	return s
}

// parseKwargs splits key=value pairs. A later duplicate key wins.
func parseKwargs(pairs []string) (connector.Kwargs, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	kw := make(connector.Kwargs, len(pairs))

	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --kw %q: expected key=value", p)
		}

		kw[key] = parseValue(value)
	}

	return kw, nil
}
