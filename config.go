package fixedwidth

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadOptions reads Options from a YAML document. Unknown keys are an
// error. Hooks cannot be expressed in YAML; fields select a builtin cast
// with "type" instead.
//
//	eol: "\r\n"
//	trim: right
//	fields:
//	  - {key: id, width: 5, type: int}
//	  - {key: name, width: 20}
//	  - {key: balance, width: 10, align: right, pad: "0", type: float}
func LoadOptions(r io.Reader) (Options, error) {
	var opts Options
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil {
		return Options{}, errors.Wrap(err, "fixedwidth: decoding options")
	}
	return opts, nil
}

// ReadOptionsFile is LoadOptions for the file at path.
func ReadOptionsFile(path string) (Options, error) {
	f, err := os.Open(path)
	if err != nil {
		return Options{}, errors.Wrap(err, "fixedwidth: reading options")
	}
	defer f.Close()
	return LoadOptions(f)
}
