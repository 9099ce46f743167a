package mcver

// Result is the outcome of converting one version string in both directions.
type Result struct {
	Input   string `json:"input" yaml:"input"`
	Scheme  string `json:"scheme" yaml:"scheme"`
	Family  string `json:"family,omitempty" yaml:"family,omitempty"`
	Classic string `json:"classic,omitempty" yaml:"classic,omitempty"`
	Drop    string `json:"drop,omitempty" yaml:"drop,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`

	// Err is the parse or drop conversion error, if any.
	Err error `json:"-" yaml:"-"`
}

// Convert parses text and converts it to both forms with s. If text does not
// parse, only Input, Scheme and Err are set. A classic version without a drop
// form still gets its classic form.
func Convert(s Scheme, text string) Result {
	res := Result{Input: text, Scheme: s.Name()}

	v, err := Parse(text)
	if err != nil {
		res.Err, res.Error = err, err.Error()
		return res
	}
	res.Family = v.Family().String()
	res.Classic = s.ToClassic(v)

	if res.Drop, err = s.ToDrop(v); err != nil {
		res.Err, res.Error = err, err.Error()
	}
	return res
}
