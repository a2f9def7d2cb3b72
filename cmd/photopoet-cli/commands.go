package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vbonduro/photopoet/internal/media"
	"github.com/vbonduro/photopoet/internal/service"
)

// cliEnv holds the services a command runs against.
type cliEnv struct {
	poems   *service.PoemService
	gallery *service.GalleryService
	close   func()
}

type envOpener func(ctx context.Context, withWriter, verbose bool) (*cliEnv, error)

func newRootCmd(open envOpener) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "photopoet-cli",
		Short: "Turn photos into poems from the command line",
		Long: `photopoet-cli sends a photo to the configured vision model and prints the
poem it writes. Poems can be saved to the same gallery the web app uses.

Configuration comes from the same environment variables as the server
(VISION_BACKEND, GEMINI_API_KEY, GALLERY_BACKEND, ...) or a YAML file named
by PHOTOPOET_CONFIG.

Examples:
  photopoet-cli generate sunset.jpg
  photopoet-cli generate sunset.jpg -o poem.txt --save
  photopoet-cli gallery list
  photopoet-cli gallery export 3f1c... -o poem.txt`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(newGenerateCmd(open, &verbose), newGalleryCmd(open, &verbose))
	return root
}

func newGenerateCmd(open envOpener, verbose *bool) *cobra.Command {
	var (
		outFile string
		save    bool
	)

	cmd := &cobra.Command{
		Use:   "generate <image>",
		Short: "Write a poem inspired by an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			mimeType, _ := media.DetectImageMIME(data)

			env, err := open(cmd.Context(), true, *verbose)
			if err != nil {
				return err
			}
			defer env.close()

			photo, poem, err := env.poems.GenerateFromUpload(cmd.Context(), data, mimeType)
			if err != nil {
				var genErr *service.GenerationError
				if errors.As(err, &genErr) {
					fmt.Fprintln(cmd.ErrOrStderr(), service.FallbackMessage)
				}
				return err
			}

			if outFile != "" {
				if err := os.WriteFile(outFile, []byte(poem), 0644); err != nil {
					return fmt.Errorf("failed to write poem: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Poem written to %s\n", outFile)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), poem)
			}

			if save {
				entry, err := env.gallery.Save(cmd.Context(), photo, poem)
				if err != nil {
					return fmt.Errorf("failed to save poem: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved to gallery as %s\n", entry.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Write the poem to this file instead of stdout")
	cmd.Flags().BoolVar(&save, "save", false, "Save the photo and poem to the gallery")
	return cmd
}

func newGalleryCmd(open envOpener, verbose *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Manage saved poems",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved poems, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := open(cmd.Context(), false, *verbose)
			if err != nil {
				return err
			}
			defer env.close()

			entries, err := env.gallery.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved poems.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSAVED\tFIRST LINE")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.ID, e.Date.Local().Format("2006-01-02 15:04"), firstLine(string(e.Poem)))
			}
			return tw.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved poem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := open(cmd.Context(), false, *verbose)
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.gallery.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	var outFile string
	export := &cobra.Command{
		Use:   "export <id>",
		Short: "Print or save the text of a saved poem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := open(cmd.Context(), false, *verbose)
			if err != nil {
				return err
			}
			defer env.close()

			text, err := env.gallery.Export(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if outFile == "" {
				_, err := io.WriteString(cmd.OutOrStdout(), text+"\n")
				return err
			}
			if err := os.WriteFile(outFile, []byte(text), 0644); err != nil {
				return fmt.Errorf("failed to write poem: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Poem written to %s\n", outFile)
			return nil
		},
	}
	export.Flags().StringVarP(&outFile, "output", "o", "", "Write the poem to this file instead of stdout")

	cmd.AddCommand(list, del, export)
	return cmd
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, " \t\r\n")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	const maxLen = 60
	if r := []rune(s); len(r) > maxLen {
		s = string(r[:maxLen-3]) + "..."
	}
	return s
}
