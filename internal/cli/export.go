package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mrz1836/marksafe/internal/backup"
	"github.com/mrz1836/marksafe/internal/output"
	mserr "github.com/mrz1836/marksafe/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var exportCmd = &cobra.Command{
	Use:   "export [history-id]",
	Short: "Write a backup into the downloads folder",
	Long: `Write the content of a history entry, or of any file, into the downloads
folder. Existing files are never overwritten; a numbered name is used instead.

Only backups taken in extension storage mode keep their content in history.

Example:
  marksafe export 1704186000000
  marksafe export --input ./bookmarks.html --name shared.html`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	exportInput string
	exportName  string
	exportMIME  string
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	exportCmd.GroupID = groupFiles
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportInput, "input", "", "file whose content to export")
	exportCmd.Flags().StringVar(&exportName, "name", "", "file name to export as (default: input file name)")
	exportCmd.Flags().StringVar(&exportMIME, "mime", "", "MIME type (default: from the file extension)")
}

func runExport(cmd *cobra.Command, args []string) error {
	var req backup.ExportRequest
	switch {
	case len(args) == 1 && exportInput != "":
		return mserr.WithSuggestion(mserr.ErrInvalidInput, "pass either a history id or --input, not both")
	case len(args) == 1:
		req.HistoryID = args[0]
	case exportInput != "":
		content, err := os.ReadFile(exportInput) //nolint:gosec // G304: user-chosen input file
		if err != nil {
			return mserr.WithCause(mserr.ErrNotFound, err)
		}
		req.Content = content
		req.Filename = exportName
		if req.Filename == "" {
			req.Filename = filepath.Base(exportInput)
		}
		req.MIMEType = exportMIME
	default:
		return mserr.WithSuggestion(mserr.ErrInvalidInput, "pass a history id or --input <file>")
	}

	a, err := app()
	if err != nil {
		return err
	}
	location, err := a.Service.Export(cmd.Context(), req)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if formatter.IsJSON() {
		return writeJSON(w, map[string]string{"location": location})
	}
	output.Successf(w, "Exported to %s", location)
	return nil
}
