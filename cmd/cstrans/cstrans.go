// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"corpy/cnf"
	"corpy/phonetics"
)

var (
	version   string
	buildDate string
	gitCommit string
)

type commonArgs struct {
	confPath   string
	tablesDir  string
	alphabet   string
	hiatus     bool
	boundaries string
	verbose    bool
}

func (args *commonArgs) register(fs *flag.FlagSet) {
	fs.StringVar(&args.confPath, "conf", "", "a path to a CorPy JSON config (logging, phonetics, tagger and lexicon setup)")
	fs.StringVar(&args.tablesDir, "tables", "", "a directory with custom phone tables")
	fs.StringVar(&args.alphabet, "alphabet", "", "output alphabet (sampa, ipa, cs, cnc)")
	fs.BoolVar(&args.hiatus, "hiatus", false, "insert /j/ between a high front vowel and a subsequent vowel")
	fs.StringVar(&args.boundaries, "boundaries", "", "comma separated list of prosodic boundary symbols")
	fs.BoolVar(&args.verbose, "verbose", false, "log debug information")
}

// prosodicBoundaries returns boundary symbols from the command line
// or, if not specified, from the config.
func (args *commonArgs) prosodicBoundaries(conf *cnf.Conf) []string {
	if args.boundaries == "" {
		return conf.Phonetics.ProsodicBoundarySymbols
	}
	return strings.Split(args.boundaries, ",")
}

// loadConf loads an optional config and applies command line
// overrides to it. Logging is set up too.
func (args *commonArgs) loadConf() *cnf.Conf {
	var conf *cnf.Conf
	if args.confPath != "" {
		conf = cnf.LoadConfig(args.confPath)
		logging.SetupLogging(conf.Logging)

	} else {
		conf = &cnf.Conf{}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
	if args.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if args.tablesDir != "" {
		conf.Phonetics.TablesDir = args.tablesDir
	}
	if args.alphabet != "" {
		alphabet, err := phonetics.ParseAlphabet(args.alphabet)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid alphabet")
		}
		conf.Phonetics.DefaultAlphabet = alphabet
	}
	if args.hiatus {
		conf.Phonetics.Hiatus = true
	}
	cnf.ApplyDefaults(conf)
	if err := conf.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	return conf
}

func main() {
	var trArgs transcribeArgs
	var vtArgs vertArgs

	transcribeCmd := flag.NewFlagSet("transcribe phrases", flag.ExitOnError)
	trArgs.register(transcribeCmd)
	vertCmd := flag.NewFlagSet("annotate corpus verticals", flag.ExitOnError)
	vtArgs.register(vertCmd)
	versionCmd := flag.NewFlagSet("show version", flag.ExitOnError)

	transcribeCmd.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"\n\t%s [options] transcribe [phrase...]\n\nWith no phrase specified, phrases are read from stdin (one per line).\n\n",
			filepath.Base(os.Args[0]),
		)
		transcribeCmd.PrintDefaults()
	}
	vertCmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "\n\t%s [options] vert [vertical file...]\n\n", filepath.Base(os.Args[0]))
		vertCmd.PrintDefaults()
	}
	versionCmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "\n\t%s version\n", filepath.Base(os.Args[0]))
		versionCmd.PrintDefaults()
	}

	generalUsage := func() {
		fmt.Fprintf(os.Stderr, "cstrans - rule-based phonetic transcription of Czech\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\t%s [options] transcribe [phrase...]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "\t%s [options] vert [vertical file...]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "\t%s help [command]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "\t%s version\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}

	var action string
	if len(os.Args) > 1 {
		action = os.Args[1]
	}

	switch action {
	case "transcribe":
		transcribeCmd.Parse(os.Args[2:])
		if err := runTranscribe(&trArgs, transcribeCmd.Args()); err != nil {
			log.Fatal().Err(err).Msg("failed to transcribe")
		}
	case "vert":
		vertCmd.Parse(os.Args[2:])
		if vertCmd.NArg() == 0 {
			vertCmd.Usage()
			os.Exit(1)
		}
		if err := runVert(&vtArgs, vertCmd.Args()); err != nil {
			log.Fatal().Err(err).Msg("failed to annotate verticals")
		}
	case "version":
		fmt.Printf("cstrans %s\nbuild date: %s\nlast commit: %s\n", version, buildDate, gitCommit)
	case "help":
		if len(os.Args) > 2 {
			helpCmd := os.Args[2]
			switch helpCmd {
			case "transcribe":
				transcribeCmd.Usage()
			case "vert":
				vertCmd.Usage()
			case "version":
				versionCmd.Usage()
			default:
				fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", helpCmd)
				generalUsage()
			}
		} else {
			generalUsage()
		}
	default:
		generalUsage()
	}
}
