//go:build !volleyer_noyaml

package parser

import (
	"gopkg.in/yaml.v3"

	"github.com/adamwoolhether/volleyer/capability"
	"github.com/adamwoolhether/volleyer/request"
)

func init() {
	capability.Provide(capability.YAML)
	register(capability.YAML, func() TypedParser { return YAMLParser{} })
}

// YAMLParser decodes with gopkg.in/yaml.v3.
type YAMLParser struct{}

func (YAMLParser) ContentTypes() []string {
	return []string{"application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml"}
}

func (YAMLParser) Parse(resp *request.NetworkResponse, v any) error {
	if err := checkTarget(v); err != nil {
		return err
	}

	body, err := DecodeBody(resp)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(body, v); err != nil {
		return malformed(resp, err)
	}

	return nil
}
