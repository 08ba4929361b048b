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

package cnf

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"corpy/lexicon"
	"corpy/phonetics"
	"corpy/vertical"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/czcorpus/cnc-gokit/logging"
	vtedb "github.com/czcorpus/vert-tagextract/v3/db"
	"github.com/rs/zerolog/log"
)

const (
	dfltServerReadTimeoutSecs  = 10
	dfltServerWriteTimeoutSecs = 10
	dfltListenAddress          = "127.0.0.1"
	dfltListenPort             = 8080
	dfltMaxNumConcurrentJobs   = 4
)

var ErrInvalidConfig = errors.New("invalid configuration")

// PhoneticsConf configures the transcription engine
type PhoneticsConf struct {

	// TablesDir is an optional directory with custom phone tables
	// (phones.tsv, substr2phones.tsv, voicing_pairs.tsv, exceptions.tsv).
	// If empty, the embedded tables are used.
	TablesDir               string             `json:"tablesDir"`
	DefaultAlphabet         phonetics.Alphabet `json:"defaultAlphabet"`
	Hiatus                  bool               `json:"hiatus"`
	ProsodicBoundarySymbols []string           `json:"prosodicBoundarySymbols"`
}

// TaggerConf specifies files of the lexicon tagger used by
// the smart vowel sequence heuristic.
type TaggerConf struct {
	LexiconPath     string `json:"lexiconPath"`
	DerivationsPath string `json:"derivationsPath"`
}

// IsConfigured tests whether the tagger should be loaded
func (tc *TaggerConf) IsConfigured() bool {
	return tc != nil && tc.LexiconPath != ""
}

type LexiconConf struct {
	DB          *vtedb.Conf         `json:"db"`
	TablePrefix lexicon.TablePrefix `json:"tablePrefix"`
}

// IsConfigured tests whether the pronunciation lexicon is available
func (lc *LexiconConf) IsConfigured() bool {
	return lc != nil && lc.DB != nil
}

// AnnotationConf enables annotation jobs turning corpus verticals
// into pronunciation lexicon entries. Verticals and registry files
// can be referenced only relative to the configured directories.
type AnnotationConf struct {
	VerticalsDir         string `json:"verticalsDir"`
	RegistryDir          string `json:"registryDir"`
	MaxNumConcurrentJobs int    `json:"maxNumConcurrentJobs"`
	MaxNumErrors         int    `json:"maxNumErrors"`
}

// IsConfigured tests whether annotation jobs are available
func (ac *AnnotationConf) IsConfigured() bool {
	return ac != nil && ac.VerticalsDir != ""
}

// Conf is a global configuration of the app
type Conf struct {
	ListenAddress          string              `json:"listenAddress"`
	ListenPort             int                 `json:"listenPort"`
	ServerReadTimeoutSecs  int                 `json:"serverReadTimeoutSecs"`
	ServerWriteTimeoutSecs int                 `json:"serverWriteTimeoutSecs"`
	Logging                logging.LoggingConf `json:"logging"`
	Phonetics              PhoneticsConf       `json:"phonetics"`
	Tagger                 *TaggerConf         `json:"tagger"`
	Lexicon                *LexiconConf        `json:"lexicon"`
	Annotation             *AnnotationConf     `json:"annotation"`
	srcPath                string
}

// GetSourcePath returns an absolute path of a file
// the config was loaded from.
func (conf *Conf) GetSourcePath() string {
	if filepath.IsAbs(conf.srcPath) {
		return conf.srcPath
	}
	var cwd string
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "[failed to get working dir]"
	}
	return filepath.Join(cwd, conf.srcPath)
}

// Validate checks values and referenced files of the configuration.
// It expects defaults to be already applied.
func (conf *Conf) Validate() error {
	if conf.ListenPort <= 0 || conf.ListenPort > 65535 {
		return fmt.Errorf("%w: invalid listenPort %d", ErrInvalidConfig, conf.ListenPort)
	}
	if err := conf.Phonetics.DefaultAlphabet.Validate(); err != nil {
		return fmt.Errorf("%w: phonetics.defaultAlphabet: %w", ErrInvalidConfig, err)
	}
	if conf.Phonetics.TablesDir != "" {
		isDir, err := fs.IsDir(conf.Phonetics.TablesDir)
		if err != nil {
			return fmt.Errorf("%w: phonetics.tablesDir: %w", ErrInvalidConfig, err)
		}
		if !isDir {
			return fmt.Errorf(
				"%w: phonetics.tablesDir %s is not a directory",
				ErrInvalidConfig, conf.Phonetics.TablesDir)
		}
	}
	if conf.Tagger.IsConfigured() {
		for _, path := range []string{conf.Tagger.LexiconPath, conf.Tagger.DerivationsPath} {
			if path == "" {
				continue
			}
			isFile, err := fs.IsFile(path)
			if err != nil {
				return fmt.Errorf("%w: tagger: %w", ErrInvalidConfig, err)
			}
			if !isFile {
				return fmt.Errorf("%w: tagger: file %s not found", ErrInvalidConfig, path)
			}
		}
	}
	if conf.Lexicon.IsConfigured() {
		if err := conf.Lexicon.TablePrefix.Validate(); err != nil {
			return fmt.Errorf("%w: lexicon: %w", ErrInvalidConfig, err)
		}
	}
	if conf.Annotation.IsConfigured() {
		if !conf.Lexicon.IsConfigured() {
			return fmt.Errorf("%w: annotation requires lexicon to be configured", ErrInvalidConfig)
		}
		for _, dir := range []string{conf.Annotation.VerticalsDir, conf.Annotation.RegistryDir} {
			if dir == "" {
				continue
			}
			isDir, err := fs.IsDir(dir)
			if err != nil {
				return fmt.Errorf("%w: annotation: %w", ErrInvalidConfig, err)
			}
			if !isDir {
				return fmt.Errorf("%w: annotation: %s is not a directory", ErrInvalidConfig, dir)
			}
		}
	}
	return nil
}

func LoadConfig(path string) *Conf {
	if path == "" {
		log.Fatal().Msg("Cannot load config - path not specified")
	}
	rawData, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	var conf Conf
	conf.srcPath = path
	err = json.Unmarshal(rawData, &conf)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	return &conf
}

func ApplyDefaults(conf *Conf) {
	if conf.ListenAddress == "" {
		conf.ListenAddress = dfltListenAddress
		log.Warn().Msgf("listenAddress not specified, using default: %s", dfltListenAddress)
	}
	if conf.ListenPort == 0 {
		conf.ListenPort = dfltListenPort
		log.Warn().Msgf("listenPort not specified, using default: %d", dfltListenPort)
	}
	if conf.ServerReadTimeoutSecs == 0 {
		conf.ServerReadTimeoutSecs = dfltServerReadTimeoutSecs
		log.Warn().Msgf(
			"serverReadTimeoutSecs not specified, using default: %d",
			dfltServerReadTimeoutSecs,
		)
	}
	if conf.ServerWriteTimeoutSecs == 0 {
		conf.ServerWriteTimeoutSecs = dfltServerWriteTimeoutSecs
		log.Warn().Msgf(
			"serverWriteTimeoutSecs not specified, using default: %d",
			dfltServerWriteTimeoutSecs,
		)
	}
	if conf.Phonetics.DefaultAlphabet == "" {
		conf.Phonetics.DefaultAlphabet = phonetics.DefaultAlphabet
		log.Warn().Msgf(
			"phonetics.defaultAlphabet not specified, using default: %s",
			phonetics.DefaultAlphabet,
		)
	}
	if conf.Lexicon != nil && conf.Lexicon.TablePrefix == "" {
		conf.Lexicon.TablePrefix = lexicon.DfltTablePrefix
		log.Warn().Msgf(
			"lexicon.tablePrefix not specified, using default: %s",
			lexicon.DfltTablePrefix,
		)
	}
	if conf.Annotation != nil && conf.Annotation.MaxNumConcurrentJobs == 0 {
		v := dfltMaxNumConcurrentJobs
		if v >= runtime.NumCPU() {
			v = runtime.NumCPU()
		}
		conf.Annotation.MaxNumConcurrentJobs = v
		log.Warn().Msgf("annotation.maxNumConcurrentJobs not specified, using default %d", v)
	}
	if conf.Annotation != nil && conf.Annotation.MaxNumErrors == 0 {
		conf.Annotation.MaxNumErrors = vertical.DfltMaxNumErrors
		log.Warn().Msgf(
			"annotation.maxNumErrors not specified, using default: %d",
			vertical.DfltMaxNumErrors,
		)
	}
}
