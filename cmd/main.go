package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v3"

	_ "github.com/KimMachineGun/automemlimit"
	_ "go.uber.org/automaxprocs"
)

const appName = "airplaces"

func main() {
	app := &cli.App{
		Name:        appName,
		Description: "Nearest airports and city lookup service",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve the airplaces api",
				Flags: append(dataFlags(),
					&cli.StringFlag{
						Name:      "config",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:  "airports-remote",
						Usage: "base url of an instance serving airports, used for place lookups",
					},
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
					},
					&cli.StringFlag{
						Name:  "telemetry-endpoint",
						Usage: "otlp http endpoint",
					},
					&cli.StringFlag{
						Name:  "log-level",
						Value: "info",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "remote airports request timeout",
					},
				),
				Action: serve,
			},
			{
				Name:      "query",
				Aliases:   []string{"q"},
				Usage:     "query a running server",
				ArgsUsage: "<city> [state] | -p <latitude> <longitude>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "host",
						Value: "http://localhost:8080",
					},
					&cli.BoolFlag{
						Name:    "position",
						Aliases: []string{"p"},
						Usage:   "search by latitude and longitude",
					},
				},
				Action: query,
			},
			{
				Name:  "bench",
				Usage: "measure query throughput over local data files",
				Flags: append(dataFlags(),
					&cli.IntFlag{
						Name:  "queries",
						Value: 100_000,
					},
					&cli.IntFlag{
						Name:        "workers",
						Aliases:     []string{"t"},
						DefaultText: "max",
					},
					&cli.StringFlag{
						Name:      "stats-file",
						TakesFile: true,
					},
					&cli.DurationFlag{
						Name:  "stats-interval",
						Value: defaultStatsInterval,
					},
				),
				Action: bench,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dataFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      "airports",
			Aliases:   []string{"a"},
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      "cities",
			Aliases:   []string{"c"},
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "show a progress bar while loading data files",
		},
	}
}
