package sparkevent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStartGroupID(t *testing.T) {
	withGroup := JobStart{Properties: map[string]string{JobGroupProperty: "grp-1"}}
	id, ok := withGroup.GroupID()
	assert.True(t, ok)
	assert.Equal(t, "grp-1", id)

	withoutGroup := JobStart{Properties: map[string]string{"other": "x"}}
	_, ok = withoutGroup.GroupID()
	assert.False(t, ok)

	nilProps := JobStart{}
	_, ok = nilProps.GroupID()
	assert.False(t, ok)
}
