package techdebt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/smellwalk/pkg/techdebt"
)

func TestExtractTDAndDelta(t *testing.T) {
	t.Parallel()

	prev := &techdebt.Analysis{Debt: map[string]int64{"src/main/java/a/b/Foo.java": 120, "src/Gone.java": 30}}
	actual := &techdebt.Analysis{Debt: map[string]int64{"src/main/java/a/b/Foo.java": 45}}

	assert.Equal(t, int64(120), techdebt.ExtractTD(prev, "src/main/java/a/b/Foo.java"))
	assert.Zero(t, techdebt.ExtractTD(actual, "src/Gone.java"))
	assert.Zero(t, techdebt.ExtractTD(nil, "src/Gone.java"))

	assert.Equal(t, int64(75), techdebt.Delta(prev, actual, "src/main/java/a/b/Foo.java"))
	assert.Equal(t, int64(30), techdebt.Delta(prev, actual, "src/Gone.java"))
	assert.Equal(t, int64(-45), techdebt.Delta(actual, prev, "src/main/java/a/b/Foo.java"))
	assert.Zero(t, techdebt.Delta(prev, actual, "src/Missing.java"))
}

func TestClassifier(t *testing.T) {
	t.Parallel()

	c := techdebt.NewClassifier(60)

	tests := []struct {
		delta int64
		want  techdebt.Class
	}{
		{0, techdebt.Unchanged},
		{1, techdebt.MinorDecrease},
		{59, techdebt.MinorDecrease},
		{60, techdebt.MajorDecrease},
		{500, techdebt.MajorDecrease},
		{-1, techdebt.MinorIncrease},
		{-59, techdebt.MinorIncrease},
		{-60, techdebt.MajorIncrease},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.delta), "delta %d", tt.delta)
	}

	assert.Equal(t, techdebt.MinorDecrease, techdebt.NewClassifier(0).Classify(techdebt.DefaultMajorThreshold-1))
}
