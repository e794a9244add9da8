package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/tykeal/sidefx-web-cli/internal/webapi"
)

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "Download a SideFX product",
		ArgsUsage: "<product> <version> <build> <platform>",
		Description: `Resolves the download URL for a build and retrieves it into the
current directory. <build> is either a specific build number, e.g. 382, or
the string "production" for the latest production build.`,
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 4 {
		return fmt.Errorf("expected exactly four arguments: <product> <version> <build> <platform>")
	}
	product := cmd.Args().Get(0)
	version := cmd.Args().Get(1)
	build := cmd.Args().Get(2)
	platform := cmd.Args().Get(3)

	if err := validateProduct(product); err != nil {
		return err
	}
	if err := validatePlatform(platform); err != nil {
		return err
	}

	sess, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}

	client, err := webapi.New(sess.cfg.EndpointURL, sess.tokens, webapi.WithLogger(sess.logger))
	if err != nil {
		return err
	}

	info, err := client.GetDownloadInfo(ctx, product, version, build, platform)
	if err != nil {
		return err
	}

	// Base strips any path components a hostile response could smuggle in.
	dest := filepath.Base(info.Filename)
	sess.logger.Info("downloading", "filename", dest)

	if err := client.Retrieve(ctx, info.DownloadURL, dest); err != nil {
		return err
	}

	sess.logger.Info("download complete", "filename", dest)
	return nil
}
