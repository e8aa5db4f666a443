// Command cryptoauth-sim drives an emulated secure element through the
// SecureBoot and Verify command flows.
package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "cryptoauth-sim",
		Usage: "Run authenticated commands against an emulated secure element",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "profile",
				Usage: "Path to a .toml or .yaml device profile",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log every command step",
			},
		},
		Commands: []*cli.Command{
			infoCommand(),
			secureBootCommand(),
			verifyCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
