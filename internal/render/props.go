package render

import (
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// inputProps is the typed view of an input node's props. Unknown props are
// ignored; the raw map stays available on the Element for drivers that
// need presentation-only props.
type inputProps struct {
	Name           string            `mapstructure:"name"`
	Type           string            `mapstructure:"type"`
	Label          string            `mapstructure:"label"`
	Value          any               `mapstructure:"value"`
	DefaultValue   any               `mapstructure:"defaultValue"`
	DefaultChecked bool              `mapstructure:"defaultChecked"`
	Multiple       bool              `mapstructure:"multiple"`
	Accept         []string          `mapstructure:"accept"`
	UploadMeta     map[string]string `mapstructure:"uploadMeta"`
	SubmitDisabled bool              `mapstructure:"data-submit-disabled"`
	Help           string            `mapstructure:"help"`
}

type displayProps struct {
	Body    string `mapstructure:"body"`
	Label   string `mapstructure:"label"`
	Caption string `mapstructure:"caption"`
	Src     string `mapstructure:"src"`
	To      string `mapstructure:"to"`
	URL     string `mapstructure:"url"`
	Open    bool   `mapstructure:"open"`
	Name    string `mapstructure:"name"`
	Value   any    `mapstructure:"value"`
}

type scriptProps struct {
	Src  string         `mapstructure:"src"`
	Args map[string]any `mapstructure:"args"`
}

// decodeProps fills out from the node's raw props with weak typing, so a
// backend sending "true" or 1 for a bool prop still decodes. Decode
// failures leave the zero value; a malformed prop must not abort the node.
func decodeProps(node domain.TreeNode, out any) {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return
	}
	_ = dec.Decode(node.Props)
}
