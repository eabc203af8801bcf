package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/zvmconnector-go/internal/connector"
)

func newOpsCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "ops",
		Short:       "List the operations 'call' accepts",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		Args:        cobra.NoArgs,
		RunE:        runOps,
	}
}

func runOps(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	descriptors := make([]connector.Descriptor, 0, len(connector.Names()))

	for _, name := range connector.Names() {
		d, err := connector.Lookup(name)
		if err != nil {
			return err
		}

		descriptors = append(descriptors, d)
	}

	if cc.Flags.JSON {
		return printJSON(os.Stdout, descriptors)
	}

	rows := make([][]string, 0, len(descriptors))
	for _, d := range descriptors {
		transfer := ""
		if d.Binary {
			transfer = "binary"
		}

		rows = append(rows, []string{d.Name, d.Method, strconv.Itoa(d.ArgsRequired), transfer})
	}

	printTable(os.Stdout, []string{"OPERATION", "METHOD", "ARGS", "BODY"}, rows)

	return nil
}
