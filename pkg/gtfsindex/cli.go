package gtfsindex

import (
	"fmt"

	"github.com/kr/pretty"
	"github.com/travigo/transittracker/pkg/config"
	"github.com/travigo/transittracker/pkg/gtfs"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "gtfs",
		Usage: "Static GTFS schedule tools",
		Subcommands: []*cli.Command{
			{
				Name:  "inspect",
				Usage: "load the GTFS archive and print what was indexed",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to a YAML config file",
					},
					&cli.StringFlag{
						Name:  "zip",
						Usage: "GTFS archive to read instead of gtfs.zip_path",
					},
					&cli.StringFlag{
						Name:  "route",
						Usage: "route short name to print the directions and stops of",
					},
				},
				Action: func(c *cli.Context) error {
					conf, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}

					zipPath := conf.GTFS.ZipPath
					if c.String("zip") != "" {
						zipPath = c.String("zip")
					}

					dataset, err := gtfs.NewLoader(conf.Agency.Bounds).LoadZip(zipPath)
					if err != nil {
						return err
					}

					index := New()
					index.LoadDataset(dataset)

					pretty.Println(index.Stats())
					if len(dataset.Skipped) > 0 {
						fmt.Println("Skipped rows:")
						pretty.Println(dataset.Skipped)
					}

					if shortName := c.String("route"); shortName != "" {
						printRoute(index, shortName)
					}

					return nil
				},
			},
		},
	}
}

func printRoute(index *Index, shortName string) {
	routes := index.RoutesByShortName(shortName)
	if len(routes) == 0 {
		fmt.Printf("No route with short name %q\n", shortName)
		return
	}

	for _, route := range routes {
		pretty.Println(route)

		for _, directionID := range []int{0, 1} {
			trip, exists := index.RepresentativeTrip(route.ID, directionID)
			if !exists {
				continue
			}

			fmt.Printf("Direction %d via trip %s (%s)\n", directionID, trip.ID, trip.Headsign)
			for i, stop := range index.StopsForDirection(route.ID, directionID) {
				fmt.Printf("  %3d %-10s %s\n", i+1, stop.ID, stop.Name)
			}
		}
	}
}
