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

package jobs

import (
	"errors"
	"net/http"

	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
)

// Actions exposes job information via HTTP
type Actions struct {
	manager *Manager
}

func (a *Actions) JobList(ctx *gin.Context) {
	uniresp.WriteJSONResponse(ctx.Writer, a.manager.List())
}

func (a *Actions) JobInfo(ctx *gin.Context) {
	info, err := a.manager.Get(ctx.Param("jobId"))
	if errors.Is(err, ErrJobNotFound) {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusNotFound)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, info)
}

func (a *Actions) ClearIfFinished(ctx *gin.Context) {
	removed, err := a.manager.ClearIfFinished(ctx.Param("jobId"))
	if errors.Is(err, ErrJobNotFound) {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusNotFound)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, map[string]any{"removed": removed})
}

func (a *Actions) Utilization(ctx *gin.Context) {
	uniresp.WriteJSONResponse(ctx.Writer, a.manager.Utilization())
}

func NewActions(manager *Manager) *Actions {
	return &Actions{manager: manager}
}
