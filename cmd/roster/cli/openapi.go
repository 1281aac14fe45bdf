package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rosterhq/roster/internal/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var (
		baseURL    string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI specification",
		Long:  "Generate the OpenAPI 3.1 document describing the /api/auth HTTP API.",
		Example: `  roster openapi
  roster openapi --base-url https://roster.example.com -o openapi.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpenAPI(cmd.OutOrStdout(), baseURL, outputFile)
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8081", "Server URL advertised in the document")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write spec to file instead of stdout")

	return cmd
}

func runOpenAPI(w io.Writer, baseURL, outputFile string) error {
	doc := openapi.Generate(baseURL, versionString())

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal openapi: %w", err)
	}

	if outputFile == "" {
		_, err := fmt.Fprintln(w, string(data))
		return err
	}
	if err := os.WriteFile(outputFile, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", outputFile, err)
	}
	fmt.Fprintf(w, "Wrote %s\n", outputFile)
	return nil
}
