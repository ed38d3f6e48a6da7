package westenv

import "os"

// Paths are the three directories every tool command needs.
type Paths struct {
	Python string // WEST_PYTHON
	Root   string // WEST_ROOT
	Bin    string // WEST_BIN
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(string) (string, bool)

// PathsFromEnv reads WEST_PYTHON, WEST_ROOT and WEST_BIN. Every absent name
// is reported in a single MissingVariablesError.
func PathsFromEnv(lookup LookupFunc) (Paths, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var missing []string
	get := func(name string) string {
		v, ok := lookup(name)
		if !ok {
			missing = append(missing, name)
		}
		return v
	}

	p := Paths{
		Python: get(VarPython),
		Root:   get(VarRoot),
		Bin:    get(VarBin),
	}
	if len(missing) > 0 {
		return Paths{}, &MissingVariablesError{Names: missing}
	}
	return p, nil
}
