package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"design-gallery-backend/internal/app"
	"design-gallery-backend/internal/seed"
	"design-gallery-backend/internal/storage"
)

var (
	seedManifest    string
	seedScreenshots string
	seedWorkers     int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create approved demo submissions from a manifest",
	Long: `Create approved demo submissions from a YAML manifest.

Screenshots are read from --screenshots as <slug>.jpg, .jpeg or .png. Without
--screenshots they are looked up in the SUPABASE_SEED_BUCKET storage bucket.
Demos whose URL already exists for the manifest's submitter are skipped.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedManifest, "manifest", "demos.yaml", "Path to the demo manifest")
	seedCmd.Flags().StringVar(&seedScreenshots, "screenshots", "", "Directory containing screenshots")
	seedCmd.Flags().IntVar(&seedWorkers, "workers", seed.DefaultWorkers, "Demos processed concurrently")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !cfg.SanityConfigured() {
		return fmt.Errorf("SANITY_PROJECT_ID and SANITY_API_TOKEN are required")
	}

	manifest, err := seed.LoadManifest(seedManifest)
	if err != nil {
		return err
	}

	var source storage.Source
	switch {
	case seedScreenshots != "":
		source = storage.NewDirSource(seedScreenshots)
	case cfg.SupabaseConfigured():
		source = storage.NewSupabaseSource(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseSeedBucket)
	default:
		return fmt.Errorf("either --screenshots or SUPABASE_URL and SUPABASE_SERVICE_KEY are required")
	}

	pipeline := seed.NewPipeline(app.NewSanityClient(cfg), source, logger, seed.WithWorkers(seedWorkers))
	results, runErr := pipeline.Run(cmd.Context(), manifest)

	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.Outcome == "" {
			continue
		}
		fmt.Fprintf(out, "%-20s %-18s %s\n", r.Style, r.Outcome, r.DocumentID)
	}
	return runErr
}
