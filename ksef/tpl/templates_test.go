package tpl

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alapierre/go-ksef-proxy/ksef/model"
)

func TestInitSessionRequestSignedVariant(t *testing.T) {

	out, err := InitSessionRequest(Signed, "20221023-CR-0123456789-ABCDEF0123-AB", model.ONIP, "1111111111", "")
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))

	root := doc.Root()
	assert.Equal(t, "InitSessionSignedRequest", root.Tag)

	ctx := root.FindElement("//Context")
	require.NotNil(t, ctx)
	assert.Equal(t, "20221023-CR-0123456789-ABCDEF0123-AB", ctx.SelectElement("Challenge").Text())
	assert.Equal(t, "1111111111", ctx.FindElement("Identifier/Identifier").Text())

	// signed variant must not carry a token
	assert.Nil(t, ctx.SelectElement("Token"))
	assert.Contains(t, string(out), `xsi:type="ns2:SubjectIdentifierByCompanyType"`)
}

func TestInitSessionRequestTokenVariant(t *testing.T) {

	out, err := InitSessionRequest(Token, "20221023-CR-0123456789-ABCDEF0123-AB", model.ONIP, "1111111111", "ZW5jcnlwdGVk")
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))

	assert.Equal(t, "InitSessionTokenRequest", doc.Root().Tag)
	assert.Equal(t, "ZW5jcnlwdGVk", doc.FindElement("//Context/Token").Text())
}

func TestInitSessionRequestPersonIdentifier(t *testing.T) {

	out, err := InitSessionRequest(Signed, "challenge", model.OPESEL, "90010112345", "")
	require.NoError(t, err)

	assert.Contains(t, string(out), `xsi:type="ns2:SubjectIdentifierByPersonType"`)
}

func TestInitSessionRequestDocumentType(t *testing.T) {

	out, err := InitSessionRequest(Token, "c", model.ONIP, "1111111111", "t")
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))

	form := doc.FindElement("//DocumentType/FormCode")
	require.NotNil(t, form)
	assert.Equal(t, "FA (2)", form.SelectElement("SystemCode").Text())
	assert.Equal(t, "1-0E", form.SelectElement("SchemaVersion").Text())
	assert.Equal(t, "FA", form.SelectElement("Value").Text())
}
