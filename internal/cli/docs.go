package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// docsCmd represents the docs command
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Print the annotator documentation",
	Long: `Print the documentation document served on /v1/documentation for the
current configuration.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		c, err := newComponent(cfg)
		if err != nil {
			return err
		}
		defer c.close()

		data, err := json.MarshalIndent(c.docs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal documentation: %w", err)
		}
		_, err = fmt.Fprintln(os.Stdout, string(data))
		return err
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
}
