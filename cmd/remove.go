package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chaos-io/rembg/logging"
	"github.com/chaos-io/rembg/rembg"
	"github.com/chaos-io/rembg/store"
	"github.com/chaos-io/rembg/util"
)

func newRemoveCmd(a *app) *cobra.Command {
	var (
		outDir string
		jobs   int
		crop   bool
		square bool
	)

	cmd := &cobra.Command{
		Use:   "remove [flags] <file-or-url>...",
		Short: "Remove the background from images and write <name>_nobg.png",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = a.cfg.StorageDir
			}
			defer a.close()
			a.initModel()
			var opts []rembg.Option
			if crop || square {
				opts = append(opts, rembg.WithCrop(square))
			}
			return a.removeAll(cmd.Context(), args, outDir, jobs, opts...)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default RMBG_STORAGE_DIR)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "number of images processed concurrently")
	cmd.Flags().BoolVar(&crop, "crop", false, "trim transparent margins around the subject")
	cmd.Flags().BoolVar(&square, "square", false, "crop to a square around the subject (implies --crop)")
	return cmd
}

// removeAll processes every source and keeps going after individual
// failures; the returned error counts them.
func (a *app) removeAll(ctx context.Context, sources []string, outDir string, jobs int, opts ...rembg.Option) error {
	defer util.Trace(a.logger, "remove")()

	st := store.New(outDir)
	p := rembg.NewPipeline(a.handle, a.logger)

	var failed atomic.Int32
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for i, src := range sources {
		g.Go(func() error {
			out, err := a.removeOne(ctx, p, st, src, i, opts)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failed.Add(1)
				a.logger.Error("remove background", zap.String("source", src), zap.Error(err))
				return nil
			}
			a.logger.Info("background removed", zap.String("source", src), zap.String("output", out))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d images failed", n, len(sources))
	}
	return nil
}

func (a *app) removeOne(ctx context.Context, p *rembg.Pipeline, st *store.Store, src string, index int, opts []rembg.Option) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	requestID := fmt.Sprintf("cli-%d", index)
	ctx = logging.ContextWithRequestID(ctx, requestID)

	data, err := util.ReadSource(ctx, src)
	if err != nil {
		return "", logging.NewOperationError("rembg.read", requestID, err)
	}
	out, err := p.RemoveBackground(ctx, data, opts...)
	if err != nil {
		return "", err
	}

	name := util.SourceName(src) + "_nobg.png"
	path, err := st.Save(name, out)
	if errors.Is(err, store.ErrInvalidName) {
		path, err = st.Save(store.NewName(".png"), out)
	}
	if err != nil {
		return "", err
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, nil
}

// ensureDir creates dir if needed so failures surface before any work starts.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
