package commands

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/tykeal/sidefx-web-cli/internal/webapi"
)

func listBuildsCommand() *cli.Command {
	return &cli.Command{
		Name:      "list-builds",
		Usage:     "List SideFX products available for download",
		ArgsUsage: "<product>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "version",
				Usage: "major version of Houdini, e.g. 16.5, 17.0",
			},
			&cli.StringFlag{
				Name:  "platform",
				Usage: "operating system to install Houdini on: win64, macos, linux",
			},
			&cli.BoolFlag{
				Name:  "only-production",
				Usage: "only return the production builds",
			},
		},
		Action: listBuildsAction,
	}
}

func listBuildsAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one argument: <product>")
	}
	product := cmd.Args().First()
	if err := validateProduct(product); err != nil {
		return err
	}

	var version, platform *string
	if cmd.IsSet("version") {
		v := cmd.String("version")
		version = &v
	}
	if cmd.IsSet("platform") {
		p := cmd.String("platform")
		if err := validatePlatform(p); err != nil {
			return err
		}
		platform = &p
	}

	sess, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}

	client, err := webapi.New(sess.cfg.EndpointURL, sess.tokens, webapi.WithLogger(sess.logger))
	if err != nil {
		return err
	}

	builds, err := client.ListBuilds(ctx, product, version, platform, cmd.Bool("only-production"))
	if err != nil {
		return err
	}

	for _, build := range builds {
		fmt.Fprintln(os.Stdout, string(build))
	}
	return nil
}

func validateProduct(product string) error {
	if !slices.Contains(webapi.Products, product) {
		return fmt.Errorf("unknown product %q (choose from %s)", product, strings.Join(webapi.Products, ", "))
	}
	return nil
}

func validatePlatform(platform string) error {
	if !slices.Contains(webapi.Platforms, platform) {
		return fmt.Errorf("unknown platform %q (choose from win64, macos, linux, or an empty string)", platform)
	}
	return nil
}
