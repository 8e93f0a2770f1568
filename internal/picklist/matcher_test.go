package picklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EargasmDev/SortlyXEargasmInternalTool/pkg/models"
)

func jobWithItems(names ...string) models.Job {
	j := models.Job{Name: "Tour A"}
	for _, n := range names {
		j.Items = append(j.Items, models.Item{Name: n, TargetQty: 5, CurrentQty: 5})
	}
	return j
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HF-Blue", "hf-blue"},
		{"  HF-Blue  ", "hf-blue"},
		{"hf-blue", "hf-blue"},
		{"\tHF-TRANS\n", "hf-trans"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestMatch_CaseInsensitiveExact(t *testing.T) {
	job := jobWithItems("HF-Blue", "HF-Trans")

	name, err := Match(job, "hf-blue")
	require.NoError(t, err)
	assert.Equal(t, "HF-Blue", name, "returns the stored name, not the scanned form")

	name, err = Match(job, "  HF-TRANS ")
	require.NoError(t, err)
	assert.Equal(t, "HF-Trans", name)
}

func TestMatch_NoPartialMatch(t *testing.T) {
	job := jobWithItems("HF-Blue", "HF-Trans")

	// A truncated scan must never silently hit the wrong SKU.
	_, err := Match(job, "HF-Bl")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = Match(job, "HF-Blue-123456")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestMatch_NoItems(t *testing.T) {
	_, err := Match(models.Job{Name: "empty"}, "HF-Blue")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestMatch_AmbiguousOnDegenerateState(t *testing.T) {
	// Two items normalizing to the same name should never be stored, but the
	// matcher must refuse to guess if they are.
	job := jobWithItems("HF-Blue", "hf-blue")

	_, err := Match(job, "HF-BLUE")
	assert.ErrorIs(t, err, ErrAmbiguousMatch)
}

func TestMatch_PureFunction(t *testing.T) {
	job := jobWithItems("HF-Blue")
	before := job.Items[0]

	_, err := Match(job, "hf-blue")
	require.NoError(t, err)
	assert.Equal(t, before, job.Items[0])
}
