package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"maintcal/internal/normalize"
)

func normalizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "normalize",
		Usage:     "show how free text is read as frequency, duration and priority",
		ArgsUsage: "<text>",
		Action: func(c *cli.Context) error {
			text := strings.Join(c.Args().Slice(), " ")
			if text == "" {
				return cli.ShowSubcommandHelp(c)
			}
			freq := normalize.Frequency(text)
			dur := normalize.Duration(text)
			w := c.App.Writer
			fmt.Fprintf(w, "frequency: %d days (%s", freq.Days, freq.Source)
			if freq.Matched != "" {
				fmt.Fprintf(w, ", %q", freq.Matched)
			}
			fmt.Fprintln(w, ")")
			fmt.Fprintf(w, "duration:  %gh (%s)\n", dur.Hours, dur.Source)
			fmt.Fprintf(w, "priority:  %s\n", normalize.Priority(text))
			return nil
		},
	}
}
