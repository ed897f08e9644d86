package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	TermID  string   `json:"term_id" validate:"required"`
	Records []string `json:"records" validate:"required,min=1"`
}

func TestMessageUsesJSONNames(t *testing.T) {
	v := New()

	err := v.Struct(samplePayload{})
	require.Error(t, err)

	msg := v.Message(err)
	assert.Contains(t, msg, "term_id is a required field")
	assert.Contains(t, msg, "records is a required field")
}

func TestMessagePassesThroughPlainErrors(t *testing.T) {
	v := New()
	assert.Equal(t, "", v.Message(nil))
	assert.NoError(t, v.Struct(samplePayload{TermID: "t", Records: []string{"a"}}))
}
