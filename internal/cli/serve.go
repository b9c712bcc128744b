package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/m-stoeckel/duui-uima/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the DUUI HTTP service",
	Long: `Serve exposes the annotator over the DUUI v1 interface:

  POST /v1/process              annotate one document
  GET  /v1/documentation        annotator identity and capabilities
  GET  /v1/typesystem           UIMA type system XML
  GET  /v1/communication_layer  Lua communication script
  GET  /healthz                 heartbeat

Example:
  duui-ner serve
  duui-ner serve --port 9714 --backend remote
  DUUI_NER_MODEL_BACKEND=llm DUUI_NER_MODEL_LLM_PROVIDER=openai duui-ner serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "listen host")
	serveCmd.Flags().Int("port", 0, "listen port")
	serveCmd.Flags().Int("workers", 0, "parallel annotator calls per request")
	serveCmd.Flags().Float64("rate-limit", 0, "requests per second per client (0 disables)")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("concurrency.sentence_workers", serveCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("server.rate_limit", serveCmd.Flags().Lookup("rate-limit"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := newComponent(cfg)
	if err != nil {
		return err
	}
	defer c.close()

	srv, err := server.New(cfg.Server, c.pipeline, c.docs)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx)
}
