// Package tpl renders the InitSession XML request bodies. The signed and
// token flows share one template, selected by Variant, so the two documents
// cannot drift apart.
package tpl

import (
	"github.com/alapierre/go-ksef-proxy/ksef/model"
	"github.com/alapierre/go-ksef-proxy/ksef/util"
)

// Variant selects which InitSession document gets rendered.
type Variant int

const (
	// Signed renders the document the end user signs and sends back.
	Signed Variant = iota
	// Token renders the document carrying the RSA encrypted KSeF token.
	Token
)

// Fixed document type descriptor, part of the wire contract.
const (
	serviceName    = "KSeF"
	formSystemCode = "FA (2)"
	formSchema     = "1-0E"
	formNamespace  = "http://crd.gov.pl/wzor/2023/06/29/12648/"
	formValue      = "FA"
)

var initSessionRequest = `<ns3:{{.Root}} xmlns="http://ksef.mf.gov.pl/schema/gtw/svc/online/types/2021/10/01/0001" xmlns:ns2="http://ksef.mf.gov.pl/schema/gtw/svc/types/2021/10/01/0001" xmlns:ns3="http://ksef.mf.gov.pl/schema/gtw/svc/online/auth/request/2021/10/01/0001">
	<ns3:Context>
		<Challenge>{{.Challenge}}</Challenge>
		<Identifier xsi:type="ns2:SubjectIdentifierBy{{.Subject}}Type" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
			<ns2:Identifier>{{.Identifier}}</ns2:Identifier>
		</Identifier>
		<DocumentType>
			<ns2:Service>{{.Service}}</ns2:Service>
			<ns2:FormCode>
				<ns2:SystemCode>{{.SystemCode}}</ns2:SystemCode>
				<ns2:SchemaVersion>{{.SchemaVersion}}</ns2:SchemaVersion>
				<ns2:TargetNamespace>{{.TargetNamespace}}</ns2:TargetNamespace>
				<ns2:Value>{{.FormValue}}</ns2:Value>
			</ns2:FormCode>
		</DocumentType>
{{- if .Token}}
		<Token>{{.Token}}</Token>
{{- end}}
	</ns3:Context>
</ns3:{{.Root}}>
`

type initSessionModel struct {
	Root            string
	Challenge       string
	Subject         string
	Identifier      string
	Service         string
	SystemCode      string
	SchemaVersion   string
	TargetNamespace string
	FormValue       string
	Token           string
}

// InitSessionRequest renders the InitSession document for the given flow
// variant. encryptedToken must be empty for the Signed variant and is the
// base64 of the RSA encrypted KSeF token for the Token variant.
func InitSessionRequest(v Variant, challenge string, identifierType model.IdentifierType, identifier, encryptedToken string) ([]byte, error) {

	m := initSessionModel{
		Root:            "InitSessionSignedRequest",
		Challenge:       challenge,
		Subject:         "Company",
		Identifier:      identifier,
		Service:         serviceName,
		SystemCode:      formSystemCode,
		SchemaVersion:   formSchema,
		TargetNamespace: formNamespace,
		FormValue:       formValue,
	}

	if v == Token {
		m.Root = "InitSessionTokenRequest"
		m.Token = encryptedToken
	}
	if identifierType.Person() {
		m.Subject = "Person"
	}

	return util.MergeTemplate(&initSessionRequest, m)
}
