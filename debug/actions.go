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

package debug

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"corpy/jobs"

	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
)

const (
	dummyJobType = "dummy-job"
)

type dummyJobResult struct {
	Payload string `json:"payload"`
}

// Actions contains debugging HTTP actions. They allow testing
// job handling without running real (and long) jobs.
type Actions struct {
	mu            sync.Mutex
	finishSignals map[string]chan bool
	jobManager    *jobs.Manager
}

// CreateDummyJob enqueues a job which waits until finished via
// FinishDummyJob. With `error=1`, the job fails once finished.
func (a *Actions) CreateDummyJob(ctx *gin.Context) {
	withError := ctx.Query("error") == "1"
	finishSignal := make(chan bool, 1)
	fn := func(jctx context.Context) (any, error) {
		select {
		case <-finishSignal:
		case <-jctx.Done():
			return nil, jctx.Err()
		}
		if withError {
			return nil, errors.New("dummy error")
		}
		return &dummyJobResult{Payload: "Job Done!"}, nil
	}
	// the signal must be registered before the job can possibly finish
	a.mu.Lock()
	defer a.mu.Unlock()
	jobInfo, err := a.jobManager.Enqueue(dummyJobType, map[string]bool{"error": withError}, fn)
	if err != nil {
		uniresp.WriteJSONErrorResponse(
			ctx.Writer,
			uniresp.NewActionError("failed to create dummy job: %w", err),
			http.StatusInternalServerError,
		)
		return
	}
	a.finishSignals[jobInfo.ID] = finishSignal
	uniresp.WriteJSONResponse(ctx.Writer, jobInfo)
}

func (a *Actions) FinishDummyJob(ctx *gin.Context) {
	a.mu.Lock()
	finish, ok := a.finishSignals[ctx.Param("jobId")]
	delete(a.finishSignals, ctx.Param("jobId"))
	a.mu.Unlock()
	if !ok {
		uniresp.WriteJSONErrorResponse(ctx.Writer, uniresp.NewActionError("job not found"), http.StatusNotFound)
		return
	}
	finish <- true
	// the job is finished asynchronously so the returned
	// state may still be `running`
	storedJob, err := a.jobManager.Get(ctx.Param("jobId"))
	if err != nil {
		uniresp.WriteJSONErrorResponse(ctx.Writer, uniresp.NewActionError("job not found"), http.StatusNotFound)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, storedJob)
}

// NewActions is the default factory
func NewActions(jobManager *jobs.Manager) *Actions {
	return &Actions{
		finishSignals: make(map[string]chan bool),
		jobManager:    jobManager,
	}
}
