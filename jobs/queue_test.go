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
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestJob(id string) *queuedJob {
	return &queuedJob{id: id}
}

func TestEnqueue(t *testing.T) {
	q := JobQueue{}
	j1, j2, j3 := newTestJob("1"), newTestJob("2"), newTestJob("3")
	q.Enqueue(j1)
	q.Enqueue(j2)
	q.Enqueue(j3)
	assert.Equal(t, j1, q.firstEntry.job)
	assert.Equal(t, j3, q.lastEntry.job)
	assert.Equal(t, 3, q.Size())
	id, err := q.PeekID()
	assert.NoError(t, err)
	assert.Equal(t, "1", id)
}

func TestDequeueOne(t *testing.T) {
	q := JobQueue{}
	j1, j2, j3 := newTestJob("1"), newTestJob("2"), newTestJob("3")
	q.Enqueue(j1)
	q.Enqueue(j2)
	q.Enqueue(j3)
	ans, err := q.Dequeue()
	assert.NoError(t, err)
	assert.Equal(t, j1, ans)
	assert.Equal(t, 2, q.Size())
}

func TestDequeueAll(t *testing.T) {
	q := JobQueue{}
	q.Enqueue(newTestJob("1"))
	q.Enqueue(newTestJob("2"))
	j3 := newTestJob("3")
	q.Enqueue(j3)
	_, err := q.Dequeue()
	assert.NoError(t, err)
	_, err = q.Dequeue()
	assert.NoError(t, err)
	ans, err := q.Dequeue()
	assert.NoError(t, err)
	assert.Equal(t, j3, ans)
	assert.Equal(t, 0, q.Size())
	assert.Nil(t, q.lastEntry)
}

func TestRepeatedlyEmptied(t *testing.T) {
	q := JobQueue{}
	q.Enqueue(newTestJob("1"))
	q.Enqueue(newTestJob("2"))
	q.Dequeue()
	q.Dequeue()
	j3 := newTestJob("3")
	q.Enqueue(j3)
	assert.Equal(t, 1, q.Size())
	assert.Equal(t, j3, q.firstEntry.job)
	assert.Equal(t, j3, q.lastEntry.job)
}

func TestDequeueOnEmpty(t *testing.T) {
	q := JobQueue{}
	_, err := q.Dequeue()
	assert.ErrorIs(t, err, ErrorEmptyQueue)
	_, err = q.PeekID()
	assert.ErrorIs(t, err, ErrorEmptyQueue)
}
