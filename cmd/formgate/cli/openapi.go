package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/formgate/formgate/internal/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var (
		outputFile string
		baseURL    string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI specification",
		Long:  "Print the OpenAPI 3.1 document served at /openapi.json.",
		Example: `  formgate openapi
  formgate openapi --base-url https://forms.example.com -o openapi.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpenAPI(outputFile, baseURL)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write spec to file instead of stdout")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Server URL to list in the document")

	return cmd
}

func runOpenAPI(outputFile, baseURL string) error {
	doc := openapi.Generate(openapi.Options{Version: versionString(), BaseURL: baseURL})
	data, err := openapi.MarshalJSON(doc)
	if err != nil {
		return fmt.Errorf("render openapi: %w", err)
	}

	if outputFile == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(outputFile, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", outputFile, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", outputFile)
	return nil
}
