package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/earworm-scheduler/internal/catalog"
)

func newSongCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "song",
		Short: "Manage the earworm catalog",
	}
	cmd.AddCommand(newSongAddCmd())
	cmd.AddCommand(newSongListCmd())
	cmd.AddCommand(newSongRemoveCmd())
	return cmd
}

func newSongAddCmd() *cobra.Command {
	var artist, title, snippet string

	c := &cobra.Command{
		Use:   "add",
		Short: "Add a song to the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := openDeps(ctx)
			if err != nil {
				return err
			}
			defer d.close()

			id, err := catalog.NewRepo(d.db).Add(ctx, artist, title, snippet)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "added song %d: %s - %q\n", id, artist, title)
			return nil
		},
	}

	c.Flags().StringVar(&artist, "artist", "", "artist name")
	c.Flags().StringVar(&title, "title", "", "song title")
	c.Flags().StringVar(&snippet, "snippet", "", "the earworm lyrics snippet")
	_ = c.MarkFlagRequired("artist")
	_ = c.MarkFlagRequired("title")
	_ = c.MarkFlagRequired("snippet")
	return c
}

func newSongListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := openDeps(ctx)
			if err != nil {
				return err
			}
			defer d.close()

			entries, err := catalog.NewRepo(d.db).List(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tARTIST\tTITLE\tSNIPPET")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.ID, e.Artist, e.Title, e.Snippet)
			}
			return w.Flush()
		},
	}
}

func newSongRemoveCmd() *cobra.Command {
	var id int64

	c := &cobra.Command{
		Use:   "remove",
		Short: "Remove a song by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := openDeps(ctx)
			if err != nil {
				return err
			}
			defer d.close()

			if err := catalog.NewRepo(d.db).Remove(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "removed song %d\n", id)
			return nil
		},
	}

	c.Flags().Int64Var(&id, "id", 0, "song id")
	_ = c.MarkFlagRequired("id")
	return c
}
