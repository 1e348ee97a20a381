package util

import (
	"bytes"
	"encoding/base64"
	"text/template"

	"github.com/go-faster/errors"
)

// MergeTemplate renders the given template text against model. The output
// must stay byte-exact, KSeF rejects reordered or reformatted XML.
func MergeTemplate(tpl *string, model any) ([]byte, error) {

	var funcMap = template.FuncMap{
		"base64": base64.StdEncoding.EncodeToString,
	}

	tmpl, err := template.New("request").Funcs(funcMap).Parse(*tpl)
	if err != nil {
		return nil, errors.Wrap(err, "parse request template")
	}

	var output bytes.Buffer

	err = tmpl.Execute(&output, model)
	if err != nil {
		return nil, errors.Wrap(err, "execute request template")
	}
	return output.Bytes(), nil
}
