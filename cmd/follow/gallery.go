package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-follow/pkg/app"
	"github.com/teslashibe/go-follow/pkg/gallery"
	"github.com/teslashibe/go-follow/pkg/tracking/recognition"
)

var galleryFlags struct {
	faces string
	db    string
}

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Inspect and publish enrolled identities",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if cmd.Flags().Changed("faces") {
			cfg.Gallery.Dir = galleryFlags.faces
		}
		if cmd.Flags().Changed("db") {
			cfg.Gallery.DatabaseURL = galleryFlags.db
		}
		return nil
	},
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "Load the faces directory and list the identities it yields",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, stats, err := loadFacesDir(cmd.Context())
		if err != nil {
			return err
		}

		if g.Len() == 0 {
			fmt.Println("No identities found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "#\tNAME\tDIMENSIONS")
		fmt.Fprintln(w, "-\t----\t----------")
		for i, e := range g.Entries() {
			fmt.Fprintf(w, "%d\t%s\t%d\n", i+1, e.Name, len(e.Descriptor))
		}
		w.Flush()

		fmt.Printf("\n%d identities from %d files (%d skipped, %d cached)\n",
			g.Len(), stats.Files, stats.Skipped, stats.Cached)
		return nil
	},
}

var galleryPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Encode the faces directory and save it to PostgreSQL",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Gallery.DatabaseURL == "" {
			return fmt.Errorf("no database: set --db, DATABASE_URL or POSTGRES_HOST")
		}

		g, _, err := loadFacesDir(cmd.Context())
		if err != nil {
			return err
		}

		store, err := gallery.NewPostgresStore(cmd.Context(), cfg.Gallery.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer store.Close(context.Background())

		if err := store.Save(cmd.Context(), g); err != nil {
			return err
		}
		fmt.Printf("Saved %d identities.\n", g.Len())
		return nil
	},
}

var galleryRemoveCmd = &cobra.Command{
	Use:   "rm NAME",
	Short: "Remove an identity from PostgreSQL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Gallery.DatabaseURL == "" {
			return fmt.Errorf("no database: set --db, DATABASE_URL or POSTGRES_HOST")
		}

		store, err := gallery.NewPostgresStore(cmd.Context(), cfg.Gallery.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer store.Close(context.Background())

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s.\n", args[0])
		return nil
	},
}

// loadFacesDir encodes the faces directory with the configured backend.
func loadFacesDir(ctx context.Context) (*gallery.Gallery, gallery.LoadStats, error) {
	cfg.Recognizer.Downscale = cfg.Tracking.Downscale
	rec, err := recognition.New(cfg.Recognizer)
	if err != nil {
		return nil, gallery.LoadStats{}, err
	}
	defer rec.Close()

	bar := newLoadBar("Encoding faces")
	g, stats, err := app.LoadGalleryDir(ctx, cfg.Gallery, rec, bar.update)
	bar.finish()
	return g, stats, err
}

func init() {
	galleryCmd.PersistentFlags().StringVar(&galleryFlags.faces, "faces", "", "directory of reference images")
	galleryCmd.PersistentFlags().StringVar(&galleryFlags.db, "db", "", "PostgreSQL connection string")

	galleryCmd.AddCommand(galleryListCmd, galleryPushCmd, galleryRemoveCmd)
	rootCmd.AddCommand(galleryCmd)
}
