package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/zvmconnector-go/internal/store"
)

func newRecordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List what this client has recorded about managed resources",
		Long: `Show the local records kept for guests, images, NICs and volumes. Records
are written after successful calls and reflect what the service reported at
the time; they are not refreshed from the service.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "guests",
		Short: "List recorded guests",
		Args:  cobra.NoArgs,
		RunE:  runRecordsGuests,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "images",
		Short: "List recorded images",
		Args:  cobra.NoArgs,
		RunE:  runRecordsImages,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "nics [userid]",
		Short: "List recorded NICs, optionally for one guest",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRecordsNICs,
	})

	volumes := &cobra.Command{
		Use:   "volumes",
		Short: "List recorded volumes",
		Args:  cobra.NoArgs,
		RunE:  runRecordsVolumes,
	}
	volumes.Flags().Bool("all", false, "include deleted volumes")
	cmd.AddCommand(volumes)

	return cmd
}

// withRecords opens the records database for the duration of fn.
func withRecords(cmd *cobra.Command, fn func(cc *CLIContext, st *store.Store) error) error {
	cc := mustCLIContext(cmd.Context())

	st, err := openRecords(cmd.Context(), cc)
	if err != nil {
		return err
	}
	defer st.Close()

	return fn(cc, st)
}

func runRecordsGuests(cmd *cobra.Command, _ []string) error {
	return withRecords(cmd, func(cc *CLIContext, st *store.Store) error {
		guests, err := st.ListGuests(cmd.Context())
		if err != nil {
			return err
		}

		if cc.Flags.JSON {
			return printJSON(os.Stdout, guests)
		}

		rows := make([][]string, 0, len(guests))
		for _, g := range guests {
			rows = append(rows, []string{g.UserID, g.ID, orDash(g.Metadata), orDash(g.Comments)})
		}

		printTable(os.Stdout, []string{"USERID", "ID", "METADATA", "COMMENTS"}, rows)

		return nil
	})
}

func runRecordsImages(cmd *cobra.Command, _ []string) error {
	return withRecords(cmd, func(cc *CLIContext, st *store.Store) error {
		images, err := st.ListImages(cmd.Context())
		if err != nil {
			return err
		}

		if cc.Flags.JSON {
			return printJSON(os.Stdout, images)
		}

		rows := make([][]string, 0, len(images))
		for _, img := range images {
			size := "-"
			if img.SizeBytes > 0 {
				size = formatSize(img.SizeBytes)
			}

			rows = append(rows, []string{
				img.Name, orDash(img.OSDistro), size, orDash(img.DiskSizeUnits), orDash(img.MD5Sum),
			})
		}

		printTable(os.Stdout, []string{"NAME", "OS", "SIZE", "DISK", "MD5"}, rows)

		return nil
	})
}

func runRecordsNICs(cmd *cobra.Command, args []string) error {
	return withRecords(cmd, func(cc *CLIContext, st *store.Store) error {
		var (
			nics []store.NIC
			err  error
		)

		if len(args) == 1 {
			nics, err = st.NICsForUser(cmd.Context(), args[0])
		} else {
			nics, err = st.ListNICs(cmd.Context())
		}

		if err != nil {
			return err
		}

		if cc.Flags.JSON {
			return printJSON(os.Stdout, nics)
		}

		rows := make([][]string, 0, len(nics))
		for _, n := range nics {
			rows = append(rows, []string{n.UserID, n.Interface, orDash(n.Switch), orDash(n.Port)})
		}

		printTable(os.Stdout, []string{"USERID", "VDEV", "VSWITCH", "PORT"}, rows)

		return nil
	})
}

func runRecordsVolumes(cmd *cobra.Command, _ []string) error {
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}

	return withRecords(cmd, func(cc *CLIContext, st *store.Store) error {
		volumes, err := st.ListVolumes(cmd.Context(), all)
		if err != nil {
			return err
		}

		if cc.Flags.JSON {
			return printJSON(os.Stdout, volumes)
		}

		rows := make([][]string, 0, len(volumes))
		for _, v := range volumes {
			rows = append(rows, []string{v.ID, v.ProtocolType, v.Size, v.Status, formatTime(v.DeletedAt)})
		}

		printTable(os.Stdout, []string{"ID", "PROTOCOL", "SIZE", "STATUS", "DELETED"}, rows)

		return nil
	})
}
