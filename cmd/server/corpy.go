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
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"corpy/api"
	"corpy/cnf"
	"corpy/debug"
	"corpy/general"
	"corpy/jobs"
	"corpy/lexicon"
	"corpy/phonetics"
	"corpy/tagger"
)

var (
	version   string
	buildDate string
	gitCommit string
)

func loadInventory(conf *cnf.Conf) (*phonetics.Inventory, error) {
	if conf.Phonetics.TablesDir != "" {
		log.Info().Str("dir", conf.Phonetics.TablesDir).Msg("loading custom phone tables")
		return phonetics.LoadInventoryFromDir(conf.Phonetics.TablesDir)
	}
	return phonetics.DefaultInventory()
}

func main() {
	version := general.VersionInfo{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "CorPy - phonetic transcription of Czech\n\nUsage:\n\t%s [options] start [config.json]\n\t%s [options] version\n",
			filepath.Base(os.Args[0]), filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	action := flag.Arg(0)
	if action == "version" {
		fmt.Printf("corpy %s\nbuild date: %s\nlast commit: %s\n", version.Version, version.BuildDate, version.GitCommit)
		return

	} else if action != "start" {
		log.Fatal().Msgf("Unknown action %s", action)
	}
	conf := cnf.LoadConfig(flag.Arg(1))
	logging.SetupLogging(conf.Logging)
	log.Info().Msg("Starting CorPy")
	cnf.ApplyDefaults(conf)
	if err := conf.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()

	inventory, err := loadInventory(conf)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load phone tables")
	}
	transcriber, err := phonetics.NewTranscriber(inventory)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize transcriber")
	}

	var lexTagger phonetics.Tagger
	if conf.Tagger.IsConfigured() {
		tg, err := tagger.LoadLexiconTagger(conf.Tagger.LexiconPath, conf.Tagger.DerivationsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load tagger")
		}
		lexTagger = tg

	} else {
		log.Warn().Msg("tagger not configured, smart vowel sequence treatment disabled")
	}

	var lexSearch api.LexiconSearcher
	if conf.Lexicon.IsConfigured() {
		storage, err := lexicon.Open(*conf.Lexicon.DB, conf.Lexicon.TablePrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open pronunciation lexicon")
		}
		defer storage.Close()
		log.Info().Msgf("pronunciation lexicon SQL database: %s", storage.Info())
		lexSearch = storage

	} else {
		log.Warn().Msg("pronunciation lexicon not configured")
	}

	if !conf.Logging.Level.IsDebugMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logging.GinMiddleware())
	engine.Use(uniresp.AlwaysJSONContentType())
	engine.NoMethod(uniresp.NoMethodHandler)
	engine.NoRoute(uniresp.NotFoundHandler)

	actions := api.NewActions(conf, version, transcriber, lexTagger, lexSearch)

	engine.GET(
		"/", actions.RootAction)
	engine.GET(
		"/transcribe", actions.Transcribe)
	engine.POST(
		"/transcribe", actions.TranscribeJSON)
	engine.GET(
		"/phones", actions.Phones)
	engine.GET(
		"/lexicon/:word", actions.LexiconSearch)

	maxNumJobs := jobs.DfltMaxNumConcurrentJobs
	if conf.Annotation != nil {
		maxNumJobs = conf.Annotation.MaxNumConcurrentJobs
	}
	jobManager := jobs.NewManager(ctx, maxNumJobs)
	jobActions := jobs.NewActions(jobManager)

	engine.GET(
		"/jobs", jobActions.JobList)
	engine.GET(
		"/jobs/utilization", jobActions.Utilization)
	engine.GET(
		"/jobs/:jobId", jobActions.JobInfo)
	engine.GET(
		"/jobs/:jobId/clearIfFinished", jobActions.ClearIfFinished)

	if conf.Annotation.IsConfigured() {
		var derivations tagger.Derivations
		if conf.Tagger != nil {
			derivations, err = tagger.LoadDerivationsFile(conf.Tagger.DerivationsPath)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to load derivations")
			}
		}
		annotateActions := api.NewAnnotateActions(conf, transcriber, derivations, jobManager)
		engine.POST(
			"/annotate", annotateActions.Annotate)
		log.Info().
			Str("verticalsDir", conf.Annotation.VerticalsDir).
			Msg("vertical annotation jobs enabled")
	}

	if conf.Logging.Level.IsDebugMode() {
		debugActions := debug.NewActions(jobManager)
		engine.POST("/debug/createJob", debugActions.CreateDummyJob)
		engine.POST("/debug/finishJob/:jobId", debugActions.FinishDummyJob)
	}

	log.Info().Msgf("starting to listen at %s:%d", conf.ListenAddress, conf.ListenPort)
	srv := &http.Server{
		Handler:      engine,
		Addr:         fmt.Sprintf("%s:%d", conf.ListenAddress, conf.ListenPort),
		WriteTimeout: time.Duration(conf.ServerWriteTimeoutSecs) * time.Second,
		ReadTimeout:  time.Duration(conf.ServerReadTimeoutSecs) * time.Second,
	}

	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Send()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown request received")

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutDown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
}
