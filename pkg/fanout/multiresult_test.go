/*
 * Copyright (c) 2020 Joseph Saylor <doug@saylorsolutions.com>
 * Copyright (c) 2023 Lorenzo Delgado <lnsdev@proton.me>
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package fanout

import (
	"errors"
	"testing"

	"github.com/JacobCallahan/Hussh/pkg/sshclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *MultiResult[int] {
	return newMultiResult([]HostOutcome[int]{
		{Host: "alpha", Value: 1},
		{Host: "beta", Err: errors.New("connection refused")},
		{Host: "gamma", Value: 3},
	})
}

func TestMultiResultLenAndHosts(t *testing.T) {
	mr := sampleResult()
	assert.Equal(t, 3, mr.Len())
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, mr.Hosts())
}

func TestMultiResultGet(t *testing.T) {
	mr := sampleResult()
	outcome, ok := mr.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, 1, outcome.Value)

	_, ok = mr.Get("missing")
	assert.False(t, ok)
}

func TestMultiResultGetOrDefault(t *testing.T) {
	mr := sampleResult()
	assert.Equal(t, 1, mr.GetOrDefault("alpha", -1))
	assert.Equal(t, -1, mr.GetOrDefault("beta", -1), "failed host falls back to default")
	assert.Equal(t, -1, mr.GetOrDefault("missing", -1))
}

func TestMultiResultValues(t *testing.T) {
	mr := sampleResult()
	assert.Equal(t, []int{1, 3}, mr.Values())
}

func TestMultiResultSucceededAndFailed(t *testing.T) {
	mr := sampleResult()

	succeeded := mr.Succeeded()
	require.NotNil(t, succeeded)
	assert.Equal(t, []string{"alpha", "gamma"}, succeeded.Hosts())

	failed := mr.Failed()
	require.NotNil(t, failed)
	assert.Equal(t, []string{"beta"}, failed.Hosts())
}

func TestMultiResultSucceededNilWhenAllFail(t *testing.T) {
	mr := newMultiResult([]HostOutcome[int]{
		{Host: "alpha", Err: errors.New("boom")},
	})
	assert.Nil(t, mr.Succeeded())
	assert.NotNil(t, mr.Failed())
}

func TestMultiResultFailedNilWhenAllSucceed(t *testing.T) {
	mr := newMultiResult([]HostOutcome[int]{
		{Host: "alpha", Value: 1},
	})
	assert.Nil(t, mr.Failed())
}

func TestMultiResultRaiseIfAnyFailed(t *testing.T) {
	mr := sampleResult()
	err := mr.RaiseIfAnyFailed()
	require.Error(t, err)

	var pfe *PartialFailureError[int]
	require.ErrorAs(t, err, &pfe)
	assert.Equal(t, 1, pfe.Failed.Len())
	assert.Equal(t, 2, pfe.Succeeded.Len())
	assert.Equal(t, "Operation failed on 1 of 3 host(s)", pfe.Error())
}

func TestMultiResultRaiseIfAnyFailedNilWhenAllSucceed(t *testing.T) {
	mr := newMultiResult([]HostOutcome[int]{
		{Host: "alpha", Value: 1},
	})
	assert.NoError(t, mr.RaiseIfAnyFailed())
}

func TestMultiResultPruneNeverNil(t *testing.T) {
	allFailed := newMultiResult([]HostOutcome[int]{
		{Host: "alpha", Err: errors.New("boom")},
	})
	pruned := allFailed.Prune()
	require.NotNil(t, pruned)
	assert.Equal(t, 0, pruned.Len())

	mr := sampleResult()
	pruned = mr.Prune()
	assert.Equal(t, []string{"alpha", "gamma"}, pruned.Hosts())
}

func TestMultiResultClassifiesNonzeroExitStatusAsFailed(t *testing.T) {
	mr := newMultiResult([]HostOutcome[sshclient.Result]{
		{Host: "alpha", Value: sshclient.Result{Stdout: "ok\n", Status: 0}},
		{Host: "beta", Value: sshclient.Result{Stderr: "boom\n", Status: 3}},
	})

	succeeded := mr.Succeeded()
	require.NotNil(t, succeeded)
	assert.Equal(t, []string{"alpha"}, succeeded.Hosts())

	failed := mr.Failed()
	require.NotNil(t, failed)
	assert.Equal(t, []string{"beta"}, failed.Hosts())

	err := mr.RaiseIfAnyFailed()
	require.Error(t, err)
	var pfe *PartialFailureError[sshclient.Result]
	require.ErrorAs(t, err, &pfe)
	assert.Equal(t, 1, pfe.Failed.Len())
}

func TestMultiResultNilReceiverIsSafe(t *testing.T) {
	var mr *MultiResult[int]
	assert.Equal(t, 0, mr.Len())
	assert.Nil(t, mr.Hosts())
	assert.False(t, mr.Contains("alpha"))
	_, ok := mr.Get("alpha")
	assert.False(t, ok)
	assert.Equal(t, "MultiResult{}", mr.String())
}
