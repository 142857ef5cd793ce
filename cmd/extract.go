package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rackline/labelscan/internal/imaging"
	"github.com/rackline/labelscan/internal/vision"
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [image files]",
		Short: "Extract product fields from label photos",
		Long: `Runs the extraction pipeline against one or more label photos of the
SAME product and prints the merged fields as JSON.

Images run through the same downscale and re-encode step the capture
interface uses before being sent to the model.`,
		Example: `  # Extract from a single label photo
  labelscan extract front.jpg

  # Merge fields across several photos of the same product
  labelscan extract front.jpg care-tag.jpg price-tag.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := vision.NewClient()
			if err != nil {
				return err
			}

			images := make([]vision.Image, 0, len(args))
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", path, err)
				}
				encoded, err := imaging.Encode(f)
				f.Close()
				if err != nil {
					return fmt.Errorf("failed to process %s: %w", path, err)
				}
				images = append(images, vision.Image{Data: encoded.Data, MIME: encoded.MIME})
			}

			fields, err := client.Extract(cmd.Context(), images)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(fields, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	return cmd
}
