package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listingiq/internal/listing"
)

func newImportCmd() *cobra.Command {
	var source string
	var save bool

	cmd := &cobra.Command{
		Use:   "import <page.html>",
		Short: "Extract listings from a saved search results page",
		Long: "Read a search results page saved from a listing site and pull out the listings " +
			"embedded in it. With --save the listings are stored for later analysis.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], source, save)
		},
	}

	cmd.Flags().StringVar(&source, "source", "import", "source name recorded on each listing")
	cmd.Flags().BoolVar(&save, "save", false, "store the extracted listings")

	return cmd
}

func runImport(cmd *cobra.Command, path, source string, save bool) error {
	if err := requireFormat(cmd, "text", "json"); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening page: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "warning: closing %s: %v\n", path, cerr)
		}
	}()

	listings, err := listing.ExtractPage(source, f)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}

	if save {
		database, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer closeDB(database)

		repo := listing.NewRepository(database)
		for _, l := range listings {
			if _, err := repo.Upsert(l); err != nil {
				return err
			}
		}
	}

	w := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(w, listings)
	}
	if err := printListingTable(w, listings); err != nil {
		return err
	}
	if save {
		fmt.Fprintf(w, "Saved %d listings.\n", len(listings))
	}
	return nil
}
