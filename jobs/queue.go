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
)

var (
	ErrorEmptyQueue = errors.New("empty queue")
)

type queuedJob struct {
	id string
	fn JobFunc
}

type jobEntry struct {
	next *jobEntry
	job  *queuedJob
}

// JobQueue is a FIFO of jobs waiting to be run.
// It is not thread-safe.
type JobQueue struct {
	firstEntry *jobEntry
	lastEntry  *jobEntry
}

func (jq *JobQueue) Size() int {
	ans := 0
	for curr := jq.firstEntry; curr != nil; curr = curr.next {
		ans++
	}
	return ans
}

func (jq *JobQueue) Enqueue(item *queuedJob) {
	entry := &jobEntry{job: item}
	if jq.firstEntry == nil {
		jq.firstEntry = entry
	}
	if jq.lastEntry != nil {
		jq.lastEntry.next = entry
	}
	jq.lastEntry = entry
}

func (jq *JobQueue) Dequeue() (*queuedJob, error) {
	ret := jq.firstEntry
	if ret == nil {
		return nil, ErrorEmptyQueue
	}
	nxt := ret.next
	if nxt != nil {
		jq.firstEntry = nxt

	} else {
		jq.firstEntry = nil
		jq.lastEntry = nil
	}
	return ret.job, nil
}

func (jq *JobQueue) PeekID() (string, error) {
	if jq.firstEntry == nil {
		return "", ErrorEmptyQueue
	}
	return jq.firstEntry.job.id, nil
}
