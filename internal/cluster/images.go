package cluster

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dataspace-k8s/dsctl/internal/execx"
	"github.com/dataspace-k8s/dsctl/internal/pipeline"
)

// ImageLoader imports prebuilt images into the kind cluster. A partial
// local build is common, so an absent image is skipped rather than fatal.
type ImageLoader struct {
	runner      execx.Runner
	logger      *slog.Logger
	clusterName string
}

// NewImageLoader constructs an ImageLoader targeting the named cluster.
func NewImageLoader(runner execx.Runner, logger *slog.Logger, clusterName string) *ImageLoader {
	return &ImageLoader{runner: runner, logger: logger, clusterName: clusterName}
}

// Present reports whether the image exists in the local runtime.
func (l *ImageLoader) Present(ctx context.Context, image string) bool {
	res, err := l.runner.Run(ctx, execx.Command{
		Program: "docker",
		Args:    []string{"image", "inspect", image},
		Quiet:   true,
	})
	return err == nil && res.ExitCode == 0
}

// Load imports one image into the cluster.
func (l *ImageLoader) Load(ctx context.Context, image string) error {
	res, err := l.runner.Run(ctx, execx.Command{
		Program: "kind",
		Args:    []string{"load", "docker-image", image, "--name", l.clusterName},
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("kind load docker-image %s exited with status %d", image, res.ExitCode)
	}
	return nil
}

// LoadAll imports every image in turn, recording a summary entry per image.
// Absent images are skipped and failed imports are recorded as warnings;
// the remaining images are always attempted. The returned error only tells
// the caller how many imports went wrong.
func (l *ImageLoader) LoadAll(ctx context.Context, images []string, sum *pipeline.Summary) error {
	failed := 0
	for _, image := range images {
		entry := "load-image " + image
		if !l.Present(ctx, image) {
			l.logger.Warn("image not found locally; skipping", "image", image)
			sum.Add(entry, pipeline.OutcomeSkipped, "not found locally")
			continue
		}
		l.logger.Info("loading image into cluster", "image", image, "cluster", l.clusterName)
		if err := l.Load(ctx, image); err != nil {
			l.logger.Warn("image import failed", "image", image, "error", err)
			sum.Add(entry, pipeline.OutcomeWarned, err.Error())
			failed++
			continue
		}
		sum.Add(entry, pipeline.OutcomeOk, "")
	}
	if failed > 0 {
		return fmt.Errorf("%d image import(s) failed", failed)
	}
	return nil
}
