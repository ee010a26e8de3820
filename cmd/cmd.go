package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chaos-io/rembg/config"
	"github.com/chaos-io/rembg/inference"
	"github.com/chaos-io/rembg/logging"
	"github.com/chaos-io/rembg/rembg"
)

// app carries what every subcommand needs. It is filled by the root command's
// PersistentPreRunE.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	handle *inference.Handle
}

func NewCLI() *cobra.Command {
	a := &app{}
	var (
		modelPath string
		engine    string
		logLevel  string
	)

	rootCmd := &cobra.Command{
		Use:           "rembg",
		Short:         "Remove image backgrounds with a segmentation model",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("model") {
				cfg.ModelPath = modelPath
			}
			if cmd.Flags().Changed("engine") {
				cfg.Engine = engine
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg

			if cmd.Name() == "serve" {
				a.logger, err = logging.NewLogger(cfg.LogLevel)
			} else {
				a.logger, err = logging.NewDevelopment(cfg.LogLevel)
			}
			if err != nil {
				return err
			}
			a.handle = inference.NewHandle()
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "", "path to the ONNX model (overrides RMBG_MODEL_PATH)")
	rootCmd.PersistentFlags().StringVar(&engine, "engine", "", "inference engine: onnx or remote (overrides RMBG_ENGINE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides RMBG_LOG_LEVEL)")

	rootCmd.AddCommand(
		newRemoveCmd(a),
		newServeCmd(a),
	)
	return rootCmd
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := NewCLI().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// initModel attaches the configured engine to the handle. Failures are logged
// and the command keeps running; removals then report that the model is not
// initialized.
func (a *app) initModel() {
	var err error
	switch a.cfg.Engine {
	case config.EngineRemote:
		err = a.handle.Init(func() (inference.Engine, error) {
			e, err := inference.NewRemoteEngine(a.cfg.RemoteURL, a.cfg.RemoteTimeout, nil)
			if err != nil {
				return nil, err
			}
			return e, nil
		})
	default:
		err = rembg.InitModel(a.handle, a.cfg.ModelPath, a.cfg.SharedLibraryPath)
	}

	if err != nil {
		a.logger.Error("model initialization failed", zap.String("engine", a.cfg.Engine), zap.Error(err))
		return
	}
	a.logger.Info("model initialized", zap.String("engine", a.cfg.Engine), zap.String("model", a.cfg.ModelPath))
}

func (a *app) close() {
	if err := a.handle.Close(); err != nil {
		a.logger.Warn("close model", zap.Error(err))
	}
	_ = a.logger.Sync()
}
