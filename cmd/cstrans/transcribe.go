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
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"corpy/cnf"
	"corpy/phonetics"
	"corpy/tagger"
)

const (
	formatPlain = "plain"
	formatJSON  = "json"
	formatTSV   = "tsv"
)

var ErrUnknownFormat = errors.New("unknown output format")

type transcribeArgs struct {
	commonArgs
	format string
}

func (args *transcribeArgs) register(fs *flag.FlagSet) {
	args.commonArgs.register(fs)
	fs.StringVar(&args.format, "format", formatPlain, "output format (plain, json, tsv)")
}

type jsonOutput struct {
	Tokens []string         `json:"tokens"`
	Items  phonetics.Result `json:"items"`
}

func newTranscriber(conf *cnf.Conf) (*phonetics.Transcriber, error) {
	var inv *phonetics.Inventory
	var err error
	if conf.Phonetics.TablesDir != "" {
		inv, err = phonetics.LoadInventoryFromDir(conf.Phonetics.TablesDir)

	} else {
		inv, err = phonetics.DefaultInventory()
	}
	if err != nil {
		return nil, err
	}
	return phonetics.NewTranscriber(inv)
}

func writeResult(w io.Writer, format string, tokens []string, result phonetics.Result) error {
	switch format {
	case formatPlain:
		_, err := fmt.Fprintln(w, result.String())
		return err
	case formatJSON:
		data, err := sonic.Marshal(jsonOutput{Tokens: tokens, Items: result})
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatTSV:
		for i, item := range result {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", tokens[i], strings.Join(item.Phones, " ")); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintln(w)
		return err
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

func runTranscribe(args *transcribeArgs, phrases []string) error {
	if args.format != formatPlain && args.format != formatJSON && args.format != formatTSV {
		return fmt.Errorf("%w: %s", ErrUnknownFormat, args.format)
	}
	conf := args.loadConf()
	tr, err := newTranscriber(conf)
	if err != nil {
		return fmt.Errorf("failed to initialize transcriber: %w", err)
	}
	opts := []phonetics.Option{
		phonetics.WithAlphabet(conf.Phonetics.DefaultAlphabet),
		phonetics.WithHiatus(conf.Phonetics.Hiatus),
		phonetics.WithProsodicBoundaries(args.prosodicBoundaries(conf)...),
	}
	if conf.Tagger.IsConfigured() {
		tg, err := tagger.LoadLexiconTagger(conf.Tagger.LexiconPath, conf.Tagger.DerivationsPath)
		if err != nil {
			return err
		}
		opts = append(opts, phonetics.WithTagger(tg))
	}

	ctx := context.Background()
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	transcribeLine := func(phrase string) error {
		tokens := strings.Fields(phrase)
		ans, err := tr.TranscribeTokens(ctx, tokens, opts...)
		if err != nil {
			return err
		}
		return writeResult(out, args.format, tokens, ans)
	}

	if len(phrases) > 0 {
		return transcribeLine(strings.Join(phrases, " "))
	}
	scanner := bufio.NewScanner(os.Stdin)
	var lineNum int
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := transcribeLine(line); err != nil {
			if errors.Is(err, phonetics.ErrInvalidInput) || errors.Is(err, phonetics.ErrUnexpectedSubstring) {
				log.Error().Err(err).Int("line", lineNum).Msg("failed to transcribe phrase, skipping")
				continue
			}
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
