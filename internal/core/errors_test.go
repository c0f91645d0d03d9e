// SPDX-License-Identifier: MIT

package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := NotFoundf("instance %s", "abc")
	assert.Equal(t, KindNotFound, KindOf(err))

	wrapped := fmt.Errorf("while deleting: %w", err)
	assert.Equal(t, KindNotFound, KindOf(wrapped))

	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestIsKind(t *testing.T) {
	err := Wrap(KindTransientIO, "broker connect", errors.New("dial tcp: refused"))
	assert.True(t, IsKind(err, KindTransientIO))
	assert.False(t, IsKind(err, KindNotFound))
	assert.ErrorContains(t, err, "dial tcp")
}

func TestAdmissionDeniedDetails(t *testing.T) {
	err := AdmissionDenied(4, 4)
	require.NotNil(t, err.Details)
	assert.Equal(t, 4, err.Details["max_running_instances"])
	assert.Equal(t, 4, err.Details["current"])
	assert.Equal(t, KindAdmissionDenied, KindOf(err))
}
