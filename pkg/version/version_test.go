package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/smellwalk/pkg/version"
)

func TestString(t *testing.T) {
	t.Parallel()

	out := version.String()

	assert.Contains(t, out, version.Version)
	assert.Contains(t, out, "commit: "+version.Commit)
	assert.Contains(t, out, "built: "+version.Date)
}
