// Command mcver converts Minecraft version numbers between the classic and drop
// naming schemes.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pgaskin/mcver"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("mcver", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	scheme := fs.StringP("scheme", "s", mcver.Historical.Name(), "Version scheme (historical, custom)")
	to := fs.StringP("to", "t", "both", "Target naming scheme (classic, drop, both)")
	format := fs.StringP("format", "f", "text", "Output format (text, json, yaml)")
	verbose := fs.BoolP("verbose", "v", false, "Verbose logging")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: mcver [options] [version...]\n\nConverts versions given as arguments, or one per line on stdin.\n\nOptions:\n%s", fs.FlagUsages())
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true}).Level(zerolog.WarnLevel)
	if *verbose {
		log = log.Level(zerolog.DebugLevel)
	}

	s, err := mcver.LookupScheme(*scheme)
	if err != nil {
		log.Error().Err(err).Msg("invalid scheme")
		return 2
	}

	switch *to {
	case "classic", "drop", "both":
	default:
		log.Error().Str("to", *to).Msg("invalid target, expected classic, drop, or both")
		return 2
	}

	var w func([]mcver.Result) error
	switch *format {
	case "text":
		w = func(rs []mcver.Result) error {
			return writeText(stdout, *to, rs)
		}
	case "json":
		w = func(rs []mcver.Result) error {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rs)
		}
	case "yaml":
		w = func(rs []mcver.Result) error {
			enc := yaml.NewEncoder(stdout)
			enc.SetIndent(2)
			if err := enc.Encode(rs); err != nil {
				return err
			}
			return enc.Close()
		}
	default:
		log.Error().Str("format", *format).Msg("invalid format, expected text, json, or yaml")
		return 2
	}

	in := fs.Args()
	if len(in) == 0 {
		sc := bufio.NewScanner(stdin)
		for sc.Scan() {
			if l := strings.TrimSpace(sc.Text()); l != "" {
				in = append(in, l)
			}
		}
		if err := sc.Err(); err != nil {
			log.Error().Err(err).Msg("failed to read stdin")
			return 1
		}
	}

	var failed bool
	rs := make([]mcver.Result, len(in))
	for i, x := range in {
		rs[i] = mcver.Convert(s, x)
		if err := rs[i].Err; err != nil && (*to != "classic" || rs[i].Family == "") {
			log.Error().Str("input", x).Err(err).Msg("failed to convert version")
			failed = true
		} else {
			log.Debug().Str("input", x).Str("classic", rs[i].Classic).Str("drop", rs[i].Drop).Msg("converted version")
		}
	}

	if err := w(rs); err != nil {
		log.Error().Err(err).Msg("failed to write output")
		return 1
	}
	if failed {
		return 1
	}
	return 0
}

// writeText writes one line per result. Failed conversions are written as an
// empty line so the output lines up with the input.
func writeText(w io.Writer, to string, rs []mcver.Result) error {
	bw := bufio.NewWriter(w)
	for _, r := range rs {
		switch to {
		case "classic":
			fmt.Fprintln(bw, r.Classic)
		case "drop":
			fmt.Fprintln(bw, r.Drop)
		default:
			if r.Family == "" {
				fmt.Fprintln(bw)
			} else if r.Drop == "" {
				fmt.Fprintf(bw, "%s\t%s\n", r.Classic, "-")
			} else {
				fmt.Fprintf(bw, "%s\t%s\n", r.Classic, r.Drop)
			}
		}
	}
	return bw.Flush()
}
