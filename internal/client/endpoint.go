package client

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/sitecontent/internal/constants"
	"github.com/fivetwenty-io/sitecontent/pkg/content"
)

// Endpoint derives content and resolve URLs for one credential.
type Endpoint struct {
	origin     string
	siteID     string
	language   string
	mock       bool
	mockData   bool
	credential content.Credential
}

// NewEndpoint builds the endpoint for credential under config's routing mode.
func NewEndpoint(config *content.Config, credential content.Credential) *Endpoint {
	return &Endpoint{
		origin:     origin(config, credential),
		siteID:     credential.SiteID,
		language:   config.Language,
		mock:       credential.IsMock(),
		mockData:   config.MockData,
		credential: credential,
	}
}

func origin(config *content.Config, credential content.Credential) string {
	if config.BaseURL != "" {
		return strings.TrimRight(config.BaseURL, "/")
	}

	host := config.Host
	if host == "" {
		host = constants.DefaultHost
	}

	switch config.Mode {
	case content.ModeLocal:
		port := config.LocalPort
		if port == 0 {
			port = constants.DefaultLocalPort
		}

		return "http://localhost:" + strconv.Itoa(port)
	case content.ModeStaging:
		return "https://" + credential.Routing + constants.StagingSuffix + "." + host
	default:
		return "https://" + credential.Routing + "." + host
	}
}

// Origin returns the scheme and host every URL starts with.
func (e *Endpoint) Origin() string {
	return e.origin
}

// Credential returns the credential the endpoint was built for.
func (e *Endpoint) Credential() content.Credential {
	return e.credential
}

// ContentURL returns the document URL for environment. selector is sent as
// the search parameter when non-empty; lang and mock follow, in that order.
func (e *Endpoint) ContentURL(environment, selector string) string {
	var params []string

	if selector != "" {
		params = append(params, constants.QueryParamSearch+"="+url.QueryEscape(selector))
	}

	if e.language != "" {
		params = append(params, constants.QueryParamLang+"="+url.QueryEscape(e.language))
	}

	if e.mock {
		params = append(params, constants.QueryParamMock+"="+strconv.FormatBool(e.mockData))
	}

	target := e.contentPath(environment)
	if len(params) > 0 {
		target += "?" + strings.Join(params, "&")
	}

	return target
}

// ResolveURL returns the alias resolution URL for environment.
func (e *Endpoint) ResolveURL(environment string) string {
	return e.contentPath(environment) + constants.ResolvePathSuffix
}

func (e *Endpoint) contentPath(environment string) string {
	return e.origin + "/" + url.PathEscape(e.siteID) + "/" + url.PathEscape(environment)
}
