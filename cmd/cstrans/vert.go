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
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	vtedb "github.com/czcorpus/vert-tagextract/v3/db"
	"github.com/rs/zerolog/log"

	"corpy/cnf"
	"corpy/lexicon"
	"corpy/tagger"
	"corpy/vertical"
)

type vertArgs struct {
	commonArgs
	registryPath    string
	wordCol         int
	lemmaCol        int
	sentenceStruct  string
	wordModders     string
	derivationsPath string
	outputPath      string
	toLexicon       bool
	sqlitePath      string
	replaceTables   bool
	maxNumErrors    int
}

func (args *vertArgs) register(fs *flag.FlagSet) {
	args.commonArgs.register(fs)
	fs.StringVar(&args.registryPath, "registry", "", "a corpus registry file used to infer word and lemma columns")
	fs.IntVar(&args.wordCol, "word-col", 0, "index of the word column")
	fs.IntVar(&args.lemmaCol, "lemma-col", -1, "index of the lemma column (-1 = no lemmas)")
	fs.StringVar(&args.sentenceStruct, "struct", vertical.DfltSentenceStruct, "a structure transcribed as a single prosodic unit")
	fs.StringVar(&args.wordModders, "word-modders", "", "transformations applied to words before transcription (e.g. toLower)")
	fs.StringVar(&args.derivationsPath, "derivations", "", "a derivation lexicon (TSV) for the smart vowel sequence treatment")
	fs.StringVar(&args.outputPath, "output", "", "a TSV output file (default: stdout unless -lexicon is set)")
	fs.BoolVar(&args.toLexicon, "lexicon", false, "store transcriptions into the pronunciation lexicon")
	fs.StringVar(&args.sqlitePath, "sqlite", "", "use an SQLite pronunciation lexicon stored in the file")
	fs.BoolVar(&args.replaceTables, "replace", false, "drop existing lexicon tables first")
	fs.IntVar(&args.maxNumErrors, "max-errors", vertical.DfltMaxNumErrors, "max. number of errors before processing is aborted")
}

func lexiconDBConf(args *vertArgs, conf *cnf.Conf) (vtedb.Conf, lexicon.TablePrefix, error) {
	if args.sqlitePath != "" {
		return vtedb.Conf{Type: lexicon.DBTypeSQLite, Name: args.sqlitePath}, lexicon.DfltTablePrefix, nil
	}
	if !conf.Lexicon.IsConfigured() {
		return vtedb.Conf{}, "", fmt.Errorf("lexicon database not configured (use -conf or -sqlite)")
	}
	return *conf.Lexicon.DB, conf.Lexicon.TablePrefix, nil
}

func runVert(args *vertArgs, paths []string) error {
	conf := args.loadConf()
	tr, err := newTranscriber(conf)
	if err != nil {
		return fmt.Errorf("failed to initialize transcriber: %w", err)
	}
	vconf := vertical.Conf{
		WordColIdx:              args.wordCol,
		LemmaColIdx:             args.lemmaCol,
		SentenceStruct:          args.sentenceStruct,
		WordModders:             args.wordModders,
		Alphabet:                conf.Phonetics.DefaultAlphabet,
		Hiatus:                  conf.Phonetics.Hiatus,
		ProsodicBoundarySymbols: args.prosodicBoundaries(conf),
		MaxNumErrors:            args.maxNumErrors,
	}
	if args.registryPath != "" {
		cols, err := vertical.InferColumns(args.registryPath)
		if err != nil {
			return err
		}
		vconf.WordColIdx = cols.Word
		vconf.LemmaColIdx = cols.Lemma
		log.Info().
			Int("word", cols.Word).
			Int("lemma", cols.Lemma).
			Msg("inferred vertical columns from registry")
	}
	derivationsPath := args.derivationsPath
	if derivationsPath == "" && conf.Tagger != nil {
		derivationsPath = conf.Tagger.DerivationsPath
	}
	derivations, err := tagger.LoadDerivationsFile(derivationsPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sinks vertical.MultiSink
	var tsvSink *vertical.TSVSink
	if args.outputPath != "" {
		f, err := os.Create(args.outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		tsvSink = vertical.NewTSVSink(f)

	} else if !args.toLexicon {
		tsvSink = vertical.NewTSVSink(os.Stdout)
	}
	if tsvSink != nil {
		sinks = append(sinks, tsvSink)
	}

	var lexWriter *lexicon.Writer
	if args.toLexicon {
		dbConf, prefix, err := lexiconDBConf(args, conf)
		if err != nil {
			return err
		}
		storage, err := lexicon.OpenForImport(dbConf, prefix)
		if err != nil {
			return err
		}
		defer storage.Close()
		if err := storage.CreateTables(ctx, args.replaceTables); err != nil {
			return err
		}
		lexWriter, err = lexicon.NewWriter(ctx, storage, conf.Phonetics.DefaultAlphabet, lexicon.DfltChunkSize)
		if err != nil {
			return err
		}
		sinks = append(sinks, lexWriter)
		log.Info().
			Str("db", storage.Info()).
			Str("runId", lexWriter.RunID()).
			Msg("writing transcriptions to pronunciation lexicon")
	}

	ann := vertical.NewAnnotator(ctx, tr, vconf, derivations, sinks)
	stats, err := vertical.AnnotateFiles(ctx, ann, paths...)
	if err != nil {
		return err
	}
	if tsvSink != nil {
		if err := tsvSink.Flush(); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if lexWriter != nil {
		if err := lexWriter.Flush(); err != nil {
			return err
		}
		log.Info().Int("numEntries", lexWriter.NumWritten()).Msg("lexicon entries written")
	}
	log.Info().
		Int("numLines", stats.NumLines).
		Int("numSentences", stats.NumSentences).
		Int("numTokens", stats.NumTokens).
		Int("numTranscribed", stats.NumTranscribed).
		Int("numErrors", stats.NumErrors).
		Msg("vertical annotation finished")
	return nil
}
