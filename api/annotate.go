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

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"corpy/cnf"
	"corpy/jobs"
	"corpy/lexicon"
	"corpy/phonetics"
	"corpy/tagger"
	"corpy/vertical"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	annotationJobType = "vertical-annotation"
)

var ErrInvalidPath = errors.New("invalid path")

// AnnotateArgs specifies an annotation job. Paths are relative
// to the configured verticals and registry directories.
type AnnotateArgs struct {
	Verticals          []string `json:"verticals"`
	Registry           string   `json:"registry"`
	WordCol            *int     `json:"wordCol"`
	LemmaCol           *int     `json:"lemmaCol"`
	SentenceStruct     string   `json:"sentenceStruct"`
	WordModders        string   `json:"wordModders"`
	Alphabet           string   `json:"alphabet"`
	Hiatus             *bool    `json:"hiatus"`
	ProsodicBoundaries []string `json:"prosodicBoundaries"`
	ReplaceTables      bool     `json:"replaceTables"`
}

// AnnotationResult is attached to finished annotation jobs
type AnnotationResult struct {
	RunID      string         `json:"runId"`
	Stats      vertical.Stats `json:"stats"`
	NumEntries int            `json:"numEntries"`
}

// resolvePath joins a relative path with a root directory
// making sure the result does not escape the root.
func resolvePath(rootDir, relPath string) (string, error) {
	if relPath == "" || filepath.IsAbs(relPath) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, relPath)
	}
	ans := filepath.Join(rootDir, relPath)
	rel, err := filepath.Rel(rootDir, ans)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, relPath)
	}
	isFile, err := fs.IsFile(ans)
	if err != nil || !isFile {
		return "", fmt.Errorf("%w: file %s not found", ErrInvalidPath, relPath)
	}
	return ans, nil
}

// AnnotateActions run annotation of corpus verticals in background
// jobs storing results into the pronunciation lexicon.
type AnnotateActions struct {
	conf        *cnf.Conf
	transcriber *phonetics.Transcriber
	derivations tagger.Derivations
	jobManager  *jobs.Manager
}

func (a *AnnotateActions) prepareConf(args AnnotateArgs) (vertical.Conf, []string, error) {
	ans := vertical.Conf{
		WordColIdx:              0,
		LemmaColIdx:             -1,
		SentenceStruct:          args.SentenceStruct,
		WordModders:             args.WordModders,
		Hiatus:                  a.conf.Phonetics.Hiatus,
		ProsodicBoundarySymbols: a.conf.Phonetics.ProsodicBoundarySymbols,
		MaxNumErrors:            a.conf.Annotation.MaxNumErrors,
	}
	if len(args.Verticals) == 0 {
		return ans, nil, fmt.Errorf("no verticals specified")
	}
	paths := make([]string, len(args.Verticals))
	for i, v := range args.Verticals {
		var err error
		paths[i], err = resolvePath(a.conf.Annotation.VerticalsDir, v)
		if err != nil {
			return ans, nil, err
		}
	}
	if args.Registry != "" {
		if a.conf.Annotation.RegistryDir == "" {
			return ans, nil, fmt.Errorf("registry directory not configured")
		}
		regPath, err := resolvePath(a.conf.Annotation.RegistryDir, args.Registry)
		if err != nil {
			return ans, nil, err
		}
		cols, err := vertical.InferColumns(regPath)
		if err != nil {
			return ans, nil, err
		}
		ans.WordColIdx = cols.Word
		ans.LemmaColIdx = cols.Lemma
	}
	if args.WordCol != nil {
		ans.WordColIdx = *args.WordCol
	}
	if args.LemmaCol != nil {
		ans.LemmaColIdx = *args.LemmaCol
	}
	if ans.WordColIdx < 0 {
		return ans, nil, fmt.Errorf("invalid word column %d", ans.WordColIdx)
	}
	alphabet, err := phonetics.ParseAlphabet(args.Alphabet)
	if err != nil {
		return ans, nil, err
	}
	if args.Alphabet == "" {
		alphabet = a.conf.Phonetics.DefaultAlphabet
	}
	ans.Alphabet = alphabet
	if args.Hiatus != nil {
		ans.Hiatus = *args.Hiatus
	}
	if args.ProsodicBoundaries != nil {
		ans.ProsodicBoundarySymbols = args.ProsodicBoundaries
	}
	return ans, paths, nil
}

func (a *AnnotateActions) runAnnotation(
	ctx context.Context,
	vconf vertical.Conf,
	paths []string,
	replaceTables bool,
) (AnnotationResult, error) {
	var ans AnnotationResult
	storage, err := lexicon.OpenForImport(*a.conf.Lexicon.DB, a.conf.Lexicon.TablePrefix)
	if err != nil {
		return ans, err
	}
	defer storage.Close()
	if err := storage.CreateTables(ctx, replaceTables); err != nil {
		return ans, err
	}
	writer, err := lexicon.NewWriter(ctx, storage, vconf.Alphabet, lexicon.DfltChunkSize)
	if err != nil {
		return ans, err
	}
	ans.RunID = writer.RunID()
	ann := vertical.NewAnnotator(ctx, a.transcriber, vconf, a.derivations, writer)
	ans.Stats, err = vertical.AnnotateFiles(ctx, ann, paths...)
	if err != nil {
		return ans, err
	}
	if err := writer.Flush(); err != nil {
		return ans, err
	}
	ans.NumEntries = writer.NumWritten()
	log.Info().
		Str("runId", ans.RunID).
		Int("numEntries", ans.NumEntries).
		Int("numSentences", ans.Stats.NumSentences).
		Msg("annotation finished")
	return ans, nil
}

// Annotate starts a background job annotating verticals
// and storing their transcriptions into the lexicon.
func (a *AnnotateActions) Annotate(ctx *gin.Context) {
	var args AnnotateArgs
	if err := ctx.ShouldBindJSON(&args); err != nil {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("failed to parse request: %w", err), http.StatusBadRequest)
		return
	}
	vconf, paths, err := a.prepareConf(args)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusBadRequest)
		return
	}
	info, err := a.jobManager.Enqueue(
		annotationJobType,
		args,
		func(jctx context.Context) (any, error) {
			return a.runAnnotation(jctx, vconf, paths, args.ReplaceTables)
		},
	)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	uniresp.WriteJSONResponseWithStatus(ctx.Writer, http.StatusCreated, info)
}

// NewAnnotateActions creates annotation actions. The conf must
// have both the lexicon and the annotation sections configured.
func NewAnnotateActions(
	conf *cnf.Conf,
	transcriber *phonetics.Transcriber,
	derivations tagger.Derivations,
	jobManager *jobs.Manager,
) *AnnotateActions {
	return &AnnotateActions{
		conf:        conf,
		transcriber: transcriber,
		derivations: derivations,
		jobManager:  jobManager,
	}
}
