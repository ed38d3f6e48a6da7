package resultfile

import "fmt"

// ExpectedField is the member or child holding the expectation value of a
// w_direct / w_ipa estimate; its siblings carry confidence bounds.
const ExpectedField = "expected"

// Flux datasets written by w_direct.
const (
	ConditionalFluxes        = "conditional_fluxes"
	ConditionalFluxEvolution = "conditional_flux_evolution"
	TotalFluxes              = "total_fluxes"
	TargetFluxEvolution      = "target_flux_evolution"
	RateEvolution            = "rate_evolution"
)

// FluxDatasets lists the flux datasets in the order the CLI shows them.
var FluxDatasets = []string{
	ConditionalFluxes,
	ConditionalFluxEvolution,
	TotalFluxes,
	TargetFluxEvolution,
	RateEvolution,
}

// ReadFlux reads a flux dataset stored either as a plain numeric array, as a
// compound dataset with an "expected" member, or as a group holding an
// "expected" dataset. All three yield the same Array.
func ReadFlux(f File, path string) (*Array, error) {
	switch kind := f.Kind(path); kind {
	case KindNumeric:
		return f.ReadArray(path)
	case KindCompound:
		return f.ReadField(path, ExpectedField)
	case KindGroup:
		sub := path + "/" + ExpectedField
		if f.Kind(sub) != KindNumeric {
			return nil, fmt.Errorf("%s: %w", sub, ErrNotFound)
		}
		return f.ReadArray(sub)
	case KindMissing:
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	default:
		return nil, fmt.Errorf("%s is %s: %w", path, kind, ErrWrongKind)
	}
}
