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
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	StatusPending  = "pending"
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"

	DfltMaxNumConcurrentJobs = 2
)

var ErrJobNotFound = errors.New("job not found")

// JobFunc is a job body. The returned result is attached
// to the job information.
type JobFunc func(ctx context.Context) (any, error)

// JobInfo describes a job and its state
type JobInfo struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Args    any      `json:"args"`
	Created JSONTime `json:"created"`
	Start   JSONTime `json:"start"`
	Update  JSONTime `json:"update"`
	Status  string   `json:"status"`
	Error   string   `json:"error,omitempty"`
	Result  any      `json:"result"`
}

func (j JobInfo) IsFinished() bool {
	return j.Status == StatusFinished || j.Status == StatusFailed
}

// Utilization shows how busy the job manager is
type Utilization struct {
	MaxNumRunning int `json:"maxNumRunning"`
	NumRunning    int `json:"numRunning"`
	NumPending    int `json:"numPending"`
}

// Manager runs enqueued jobs in background with limited concurrency.
// Information about finished jobs is kept in memory until cleared.
type Manager struct {
	ctx           context.Context
	mu            sync.Mutex
	queue         JobQueue
	jobs          map[string]*JobInfo
	maxNumRunning int
	numRunning    int
}

// Enqueue adds a new job and starts it as soon as there is a free slot
func (m *Manager) Enqueue(jobType string, args any, fn JobFunc) (JobInfo, error) {
	id, err := uuid.NewUUID()
	if err != nil {
		return JobInfo{}, fmt.Errorf("failed to enqueue job: %w", err)
	}
	info := &JobInfo{
		ID:      id.String(),
		Type:    jobType,
		Args:    args,
		Created: CurrentDatetime(),
		Status:  StatusPending,
	}
	m.mu.Lock()
	m.jobs[info.ID] = info
	m.queue.Enqueue(&queuedJob{id: info.ID, fn: fn})
	ans := *info
	m.mu.Unlock()
	log.Info().Str("jobId", info.ID).Str("type", jobType).Msg("enqueued job")
	m.startPending()
	return ans, nil
}

func (m *Manager) startPending() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.numRunning < m.maxNumRunning {
		job, err := m.queue.Dequeue()
		if err == ErrorEmptyQueue {
			return
		}
		m.numRunning++
		info := m.jobs[job.id]
		info.Status = StatusRunning
		info.Start = CurrentDatetime()
		info.Update = info.Start
		go m.runJob(job)
	}
}

func (m *Manager) runJob(job *queuedJob) {
	log.Info().Str("jobId", job.id).Msg("starting job")
	result, err := job.fn(m.ctx)
	m.mu.Lock()
	info := m.jobs[job.id]
	info.Update = CurrentDatetime()
	info.Result = result
	if err != nil {
		info.Status = StatusFailed
		info.Error = err.Error()
		log.Error().Err(err).Str("jobId", job.id).Msg("job failed")

	} else {
		info.Status = StatusFinished
		log.Info().Str("jobId", job.id).Msg("job finished")
	}
	m.numRunning--
	m.mu.Unlock()
	m.startPending()
}

func (m *Manager) Get(jobID string) (JobInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.jobs[jobID]
	if !ok {
		return JobInfo{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return *info, nil
}

// List returns all known jobs, the oldest first
func (m *Manager) List() []JobInfo {
	m.mu.Lock()
	ans := make([]JobInfo, 0, len(m.jobs))
	for _, v := range m.jobs {
		ans = append(ans, *v)
	}
	m.mu.Unlock()
	slices.SortFunc(ans, func(j1, j2 JobInfo) int {
		if j1.Created.Before(j2.Created) {
			return -1
		}
		if j2.Created.Before(j1.Created) {
			return 1
		}
		return 0
	})
	return ans
}

// ClearIfFinished removes information about a finished job.
// The returned bool says whether the job was removed.
func (m *Manager) ClearIfFinished(jobID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.jobs[jobID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if !info.IsFinished() {
		return false, nil
	}
	delete(m.jobs, jobID)
	return true, nil
}

func (m *Manager) Utilization() Utilization {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Utilization{
		MaxNumRunning: m.maxNumRunning,
		NumRunning:    m.numRunning,
		NumPending:    m.queue.Size(),
	}
}

// NewManager creates a job manager. Running jobs receive the provided
// context so they can be cancelled e.g. on the service shutdown.
func NewManager(ctx context.Context, maxNumRunning int) *Manager {
	if maxNumRunning <= 0 {
		maxNumRunning = DfltMaxNumConcurrentJobs
	}
	return &Manager{
		ctx:           ctx,
		jobs:          make(map[string]*JobInfo),
		maxNumRunning: maxNumRunning,
	}
}
