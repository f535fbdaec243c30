package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	platforms "github.com/enclaveops/testbed/interfaces"
	"github.com/enclaveops/testbed/models"
	"github.com/enclaveops/testbed/services/docker"
	tbfile "github.com/enclaveops/testbed/services/testbed"
)

func main() {
	app := &cli.App{
		Name:  "testbed",
		Usage: "deploy and tear down multi-service confidential-computing test environments",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Value:   "testbed.yml",
				Usage:   "path to the testbed file",
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "deployment name (default: testbed file name)",
			},
			&cli.StringFlag{
				Name:  "platform",
				Value: "docker",
				Usage: "container backend",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			// Optional; the testbed file may forward host variables set here.
			_ = godotenv.Load()
			return nil
		},
		Commands: []*cli.Command{
			upCommand,
			downCommand,
			validateCommand,
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var upCommand = &cli.Command{
	Name:  "up",
	Usage: "validate the testbed file and deploy it",
	Action: func(c *cli.Context) error {
		log, err := newLogger(c.Bool("debug"))
		if err != nil {
			return err
		}
		defer log.Sync()

		tb, err := loadAndCheck(c.String("file"))
		if err != nil {
			return err
		}

		platform, err := newPlatform(c.String("platform"), log)
		if err != nil {
			return err
		}

		return platform.Up(c.Context, deploymentName(c), tb)
	},
}

var downCommand = &cli.Command{
	Name:  "down",
	Usage: "remove a deployed testbed",
	Action: func(c *cli.Context) error {
		log, err := newLogger(c.Bool("debug"))
		if err != nil {
			return err
		}
		defer log.Sync()

		platform, err := newPlatform(c.String("platform"), log)
		if err != nil {
			return err
		}

		return platform.Down(c.Context, deploymentName(c))
	},
}

var validateCommand = &cli.Command{
	Name:  "validate",
	Usage: "check the testbed file without deploying",
	Action: func(c *cli.Context) error {
		log, err := newLogger(c.Bool("debug"))
		if err != nil {
			return err
		}
		defer log.Sync()

		tb, err := loadAndCheck(c.String("file"))
		if err != nil {
			return err
		}

		log.Info("testbed file is valid",
			zap.String("file", c.String("file")),
			zap.Int("services", len(tb.Services)),
			zap.Int("volumes", len(tb.Volumes)),
		)
		return nil
	},
}

func newPlatform(name string, log *zap.Logger) (platforms.Platform, error) {
	switch name {
	case "docker":
		return docker.NewDockerPlatform(log)
	default:
		return nil, fmt.Errorf("%q is not a valid platform", name)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadAndCheck(path string) (*models.Testbed, error) {
	tb, err := tbfile.Load(path)
	if err != nil {
		return nil, err
	}
	if err := tbfile.Check(tb); err != nil {
		return nil, err
	}
	return tb, nil
}

// deploymentName derives the object-scoping name from the --name flag or,
// failing that, from the testbed file name.
func deploymentName(c *cli.Context) string {
	if name := c.String("name"); name != "" {
		return name
	}

	base := filepath.Base(c.String("file"))
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	if name == "" || name == "." {
		name = "testbed"
	}
	return name
}
