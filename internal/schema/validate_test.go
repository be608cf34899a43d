package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	s, err := Compile("labels.json", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"total": StringOrNumberOrNull(),
		},
	})
	require.NoError(t, err)

	v, err := Validate(s, []byte(`{"total": 12.4}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"total": 12.4}, v)

	_, err = Validate(s, []byte(`{"total": true}`))
	assert.ErrorContains(t, err, "json does not match schema")

	_, err = Validate(s, []byte(`{`))
	assert.ErrorContains(t, err, "unmarshal data")
}

func TestStringOrNull(t *testing.T) {
	s := MustCompile("date.json", map[string]any{
		"type":       "object",
		"properties": map[string]any{"date": StringOrNull()},
	})

	for _, doc := range []string{`{"date": "2023-11-02"}`, `{"date": null}`} {
		_, err := Validate(s, []byte(doc))
		assert.NoError(t, err, doc)
	}
	_, err := Validate(s, []byte(`{"date": 20231102}`))
	assert.ErrorContains(t, err, "json does not match schema")
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile("bad.json", map[string]any{"type": 12})
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile("bad2.json", map[string]any{"type": 12}) })
}
