package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeTemplate(t *testing.T) {

	tpl := `<Doc><Id>{{.Id}}</Id><Blob>{{base64 .Blob}}</Blob></Doc>`

	out, err := MergeTemplate(&tpl, struct {
		Id   string
		Blob []byte
	}{Id: "1111111111", Blob: []byte("abc")})

	require.NoError(t, err)
	assert.Equal(t, `<Doc><Id>1111111111</Id><Blob>YWJj</Blob></Doc>`, string(out))
}

func TestMergeTemplateParseError(t *testing.T) {

	tpl := `{{.Broken`
	_, err := MergeTemplate(&tpl, nil)
	assert.Error(t, err)
}
