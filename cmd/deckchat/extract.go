package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Desarso/deckchat/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	extractFilename string
	extractJSON     bool
	extractPreview  bool
)

var (
	deckTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	descriptionStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	actionLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243"))

	topicStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	previewStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Extract title, summary and suggested questions from a PDF deck",
	Long: `Run the same pipeline as POST /api/presentation_meta against a PDF
on disk, using the configured provider.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		g, err := newGateway(cfg)
		if err != nil {
			return err
		}

		meta, err := g.PresentationMetaFile(cmd.Context(), args[0], extractFilename)
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", args[0], err)
		}

		if extractJSON {
			return writeMetadataJSON(cmd.OutOrStdout(), meta)
		}
		renderMetadata(cmd.OutOrStdout(), meta, extractPreview)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractFilename, "filename", "", "Filename hint used when the deck has no title (defaults to the file's name)")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "Print the metadata as JSON")
	extractCmd.Flags().BoolVar(&extractPreview, "preview", false, "Include the raw text preview")

	rootCmd.AddCommand(extractCmd)
}

func writeMetadataJSON(w io.Writer, meta models.DeckMetadata) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func renderMetadata(w io.Writer, meta models.DeckMetadata, withPreview bool) {
	var b strings.Builder

	b.WriteString(deckTitleStyle.Render(meta.Title))
	b.WriteString("\n")
	b.WriteString(descriptionStyle.Render(meta.Description))
	b.WriteString("\n")

	if len(meta.SuggestedActions) > 0 {
		b.WriteString(sectionStyle.Render("Suggested questions"))
		b.WriteString("\n")
		for _, a := range meta.SuggestedActions {
			fmt.Fprintf(&b, "  • %s %s\n", a.Title, actionLabelStyle.Render(a.Label))
		}
		b.WriteString("\n")
	}

	if len(meta.Topics) > 0 {
		b.WriteString(sectionStyle.Render("Topics"))
		b.WriteString("\n")
		for _, t := range meta.Topics {
			fmt.Fprintf(&b, "  %s\n", topicStyle.Render(t))
		}
		b.WriteString("\n")
	}

	if withPreview && meta.RawPreview != "" {
		b.WriteString(sectionStyle.Render("Preview"))
		b.WriteString("\n")
		b.WriteString(previewStyle.Render(meta.RawPreview))
		b.WriteString("\n")
	}

	fmt.Fprint(w, b.String())
}
