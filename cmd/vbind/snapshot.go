package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vbind/pkg/snapshot"
)

func snapshotCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage stored scope snapshots",
		Long: `Manage scope snapshots in the configured store.

The store is chosen by store.kind in vbind.yaml: "disk" keeps snapshots
under store.dir, "s3" keeps them in store.bucket under store.prefix.

Examples:
  vbind snapshot save home scope.yaml
  vbind snapshot list
  vbind snapshot show 6f1c2d9e-...
  vbind snapshot show --latest home`,
	}

	cmd.PersistentFlags().String("store", "", "Snapshot store kind (disk or s3)")
	cmd.PersistentFlags().String("store-dir", "", "Disk snapshot directory")
	cmd.PersistentFlags().String("bucket", "", "S3 snapshot bucket")

	cmd.AddCommand(
		snapshotListCmd(e),
		snapshotSaveCmd(e),
		snapshotShowCmd(e),
		snapshotDeleteCmd(e),
	)
	return cmd
}

func snapshotListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List snapshots, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			snaps, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(snaps) == 0 {
				warn(out, "no snapshots")
				return nil
			}

			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"ID", "Name", "Size", "Created"})
			table.SetBorder(false)
			table.SetCenterSeparator("")
			table.SetColumnAlignment([]int{
				tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
				tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
			})
			for _, s := range snaps {
				table.Append([]string{s.ID, s.Name, strconv.FormatInt(s.Size, 10), s.CreatedAt.Format(time.RFC3339)})
			}
			table.SetFooter([]string{fmt.Sprintf("%d snapshots", len(snaps)), "", "", ""})
			table.Render()
			return nil
		},
	}
}

func snapshotSaveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "save <name> [scope.yaml]",
		Short: "Store a scope document",
		Long: `Store a YAML or JSON scope document under name. The document is read
from the file, or from stdin when the file is omitted or "-". It is
validated and stored in normalized YAML form.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 2 {
				path = args[1]
			}
			data, err := readInput(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}
			obj, err := snapshot.Decode(data)
			if err != nil {
				return err
			}
			store, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := snapshot.SaveObject(cmd.Context(), store, args[0], obj)
			if err != nil {
				return err
			}
			e.logger.Debug("snapshot saved", "id", snap.ID, "name", snap.Name, "size", snap.Size)
			success(cmd.OutOrStdout(), "saved %s (%s, %d bytes)", snap.ID, snap.Name, snap.Size)
			return nil
		},
	}
}

func snapshotShowCmd(e *env) *cobra.Command {
	var latest bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored scope document",
		Long: `Print a stored scope document as YAML. With --latest the argument is a
snapshot name and the newest snapshot with that name is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			id := args[0]
			if latest {
				snap, err := snapshot.Latest(cmd.Context(), store, id)
				if err != nil {
					return err
				}
				id = snap.ID
			}
			doc, err := store.Load(cmd.Context(), id)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(doc)
			return err
		},
	}

	cmd.Flags().BoolVarP(&latest, "latest", "l", false, "Treat the argument as a name and show its newest snapshot")
	return cmd
}

func snapshotDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete snapshots",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range args {
				if err := store.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
				success(cmd.OutOrStdout(), "deleted %s", id)
			}
			return nil
		},
	}
}
