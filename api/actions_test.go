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
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"corpy/cnf"
	"corpy/general"
	"corpy/lexicon"
	"corpy/phonetics"

	"github.com/bytedance/sonic"
	"github.com/czcorpus/cnc-gokit/uniresp"
	vtedb "github.com/czcorpus/vert-tagextract/v3/db"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transcribeTestResponse struct {
	Alphabet string           `json:"alphabet"`
	Hiatus   bool             `json:"hiatus"`
	Items    []phonetics.Item `json:"items"`
}

func newTestEngine(t *testing.T, lex LexiconSearcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	inv, err := phonetics.DefaultInventory()
	require.NoError(t, err)
	tr, err := phonetics.NewTranscriber(inv)
	require.NoError(t, err)
	conf := &cnf.Conf{}
	cnf.ApplyDefaults(conf)
	actions := NewActions(conf, general.VersionInfo{Version: "test"}, tr, nil, lex)

	engine := gin.New()
	engine.Use(uniresp.AlwaysJSONContentType())
	engine.GET("/", actions.RootAction)
	engine.GET("/transcribe", actions.Transcribe)
	engine.POST("/transcribe", actions.TranscribeJSON)
	engine.GET("/phones", actions.Phones)
	engine.GET("/lexicon/:word", actions.LexiconSearch)
	return engine
}

func doRequest(engine *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRootAction(t *testing.T) {
	engine := newTestEngine(t, nil)
	w := doRequest(engine, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var ans map[string]any
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &ans))
	assert.Equal(t, false, ans["lexicon"])
	assert.Len(t, ans["alphabets"], 4)
}

func TestTranscribeGET(t *testing.T) {
	engine := newTestEngine(t, nil)
	w := doRequest(engine, http.MethodGet, "/transcribe?q=m%C3%A1%C5%A1+hlad&alphabet=IPA", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ans transcribeTestResponse
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &ans))
	assert.Equal(t, "ipa", ans.Alphabet)
	require.Len(t, ans.Items, 2)
	assert.Equal(t, []string{"m", "aː", "ʒ"}, ans.Items[0].Phones)
	assert.Equal(t, []string{"ɦ", "l", "a", "t"}, ans.Items[1].Phones)
}

func TestTranscribeGETHiatusAndBoundary(t *testing.T) {
	engine := newTestEngine(t, nil)
	w := doRequest(engine, http.MethodGet, "/transcribe?q=hi%C3%A1t&hiatus=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ans transcribeTestResponse
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &ans))
	assert.True(t, ans.Hiatus)
	require.Len(t, ans.Items, 1)
	assert.Equal(t, []string{"h\\", "I", "j", "a:", "t"}, ans.Items[0].Phones)

	w = doRequest(engine, http.MethodGet, "/transcribe?q=m%C3%A1%C5%A1+%3F+hlad&boundary=%3F", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &ans))
	require.Len(t, ans.Items, 3)
	assert.Equal(t, []string{"m", "a:", "S"}, ans.Items[0].Phones)
	assert.False(t, ans.Items[1].IsTranscribed())
	assert.Equal(t, "?", ans.Items[1].Token)
}

func TestTranscribeGETInvalidArgs(t *testing.T) {
	engine := newTestEngine(t, nil)
	w := doRequest(engine, http.MethodGet, "/transcribe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doRequest(engine, http.MethodGet, "/transcribe?q=hlad&alphabet=xsampa", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doRequest(engine, http.MethodGet, "/transcribe?q=hlad&hiatus=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doRequest(engine, http.MethodGet, "/transcribe?q=m%C3%A1%C5%A1-+hlad", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doRequest(engine, http.MethodGet, "/transcribe?q=%CE%B1%CE%B2%CE%B3", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTranscribePOST(t *testing.T) {
	engine := newTestEngine(t, nil)
	w := doRequest(
		engine, http.MethodPost, "/transcribe",
		`{"tokens": ["máš", ",", "hlad"], "alphabet": "cs"}`,
	)
	require.Equal(t, http.StatusOK, w.Code)
	var ans transcribeTestResponse
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &ans))
	assert.Equal(t, "cs", ans.Alphabet)
	require.Len(t, ans.Items, 3)
	assert.Equal(t, []string{"m", "á", "ž"}, ans.Items[0].Phones)
	assert.Equal(t, ",", ans.Items[1].Token)
	assert.Equal(t, []string{"h", "l", "a", "t"}, ans.Items[2].Phones)

	w = doRequest(
		engine, http.MethodPost, "/transcribe",
		`{"text": "máš ? hlad", "prosodicBoundaries": ["?"]}`,
	)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &ans))
	assert.Equal(t, "sampa", ans.Alphabet)
	require.Len(t, ans.Items, 3)
	assert.Equal(t, []string{"m", "a:", "S"}, ans.Items[0].Phones)
}

func TestTranscribePOSTInvalidArgs(t *testing.T) {
	engine := newTestEngine(t, nil)
	w := doRequest(engine, http.MethodPost, "/transcribe", `{"alphabet": "ipa"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doRequest(engine, http.MethodPost, "/transcribe", `{"text": "a", "tokens": ["a"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doRequest(engine, http.MethodPost, "/transcribe", `{"text": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPhones(t *testing.T) {
	engine := newTestEngine(t, nil)
	w := doRequest(engine, http.MethodGet, "/phones?alphabet=ipa", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ans struct {
		Alphabet string            `json:"alphabet"`
		Phones   map[string]string `json:"phones"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &ans))
	assert.Equal(t, "ipa", ans.Alphabet)
	assert.Equal(t, "ʃ", ans.Phones["S"])
	assert.Equal(t, "ɦ", ans.Phones["h\\"])

	w = doRequest(engine, http.MethodGet, "/phones?alphabet=foo", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLexiconSearch(t *testing.T) {
	engine := newTestEngine(t, nil)
	w := doRequest(engine, http.MethodGet, "/lexicon/led", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	storage, err := lexicon.Open(
		vtedb.Conf{Type: lexicon.DBTypeSQLite, Name: filepath.Join(t.TempDir(), "lex.db")}, "")
	require.NoError(t, err)
	defer storage.Close()
	ctx := context.Background()
	require.NoError(t, storage.CreateTables(ctx, false))
	require.NoError(t, storage.Insert(ctx, []lexicon.Entry{
		{Word: "led", Alphabet: "sampa", Transcription: "l E t", Freq: 10, RunID: "r1"},
		{Word: "led", Alphabet: "ipa", Transcription: "l ɛ t", Freq: 10, RunID: "r1"},
	}, 0))

	engine = newTestEngine(t, storage)
	w = doRequest(engine, http.MethodGet, "/lexicon/Led?alphabet=sampa", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ans struct {
		Matches []lexicon.Entry `json:"matches"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &ans))
	require.Len(t, ans.Matches, 1)
	assert.Equal(t, "l E t", ans.Matches[0].Transcription)

	w = doRequest(engine, http.MethodGet, "/lexicon/led?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &ans))
	assert.Len(t, ans.Matches, 1)

	w = doRequest(engine, http.MethodGet, "/lexicon/led?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doRequest(engine, http.MethodGet, "/lexicon/led?alphabet=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
