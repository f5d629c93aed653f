// pk/params.go
package pk

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Route identifies an administration route. Route parameters (bioavailability
// and absorption rate) are route-specific because the same compound behaves
// very differently as an intramuscular depot versus an oral dose.
type Route string

const (
	RouteIntramuscular Route = "intramuscular"
	RouteSubcutaneous  Route = "subcutaneous"
	RouteOral          Route = "oral"
	RouteTransdermal   Route = "transdermal"
)

// DefaultRoute is the fallback when a compound has no parameters for the
// requested route. The reference tables are built around depot injection, so
// intramuscular is the route most likely to be present.
const DefaultRoute = RouteIntramuscular

// ReferenceWeightKg is the body weight all table parameters are stated at.
// Allometric scaling adjusts Vd and clearance away from this reference.
const ReferenceWeightKg = 70.0

// Concentrations are reported in ng/dL. The compartment math works in mg/L
// (dose mg over Vd liters); 1 mg/L = 100,000 ng/dL.
const ngPerDLPerMgPerL = 1e5

// allometric exponents (Vd scales linearly with weight, clearance with the
// usual 3/4 power)
const (
	vdWeightExponent = 1.0
	clWeightExponent = 0.75
)

// RouteParams holds the route-specific absorption parameters of a compound.
type RouteParams struct {
	Bioavailability float64 // fraction of the dose reaching circulation, (0, 1]
	KaPerDay        float64 // first-order absorption rate constant (per day, > 0)
}

// CompoundParams is the immutable per-compound reference record. Instances
// are owned by the parameter table; the engine holds references and never
// mutates them.
type CompoundParams struct {
	Name  string
	Class string
	Ester string // optional ester/variant label, empty when not applicable

	HalfLifeDays float64 // elimination half-life at reference weight, > 0

	// VdLiters is the apparent volume of distribution at 70 kg. For depot
	// esters this is an apparent value calibrated so that mg doses map onto
	// observed serum ng/dL levels, not a literal anatomical volume.
	VdLiters float64

	// ClearanceLPerDay at 70 kg. Informational; zero means "derive from
	// ke·Vd". Elimination always follows ln2/HalfLifeDays.
	ClearanceLPerDay float64

	Routes map[Route]RouteParams
}

// Validate reports whether the record can be simulated at all.
func (c *CompoundParams) Validate() error {
	if c == nil {
		return fmt.Errorf("nil compound: %w", ErrInvalidParameter)
	}
	if c.HalfLifeDays <= 0 {
		return fmt.Errorf("compound %q: half-life %v must be > 0: %w", c.Name, c.HalfLifeDays, ErrInvalidParameter)
	}
	if c.VdLiters <= 0 {
		return fmt.Errorf("compound %q: Vd %v must be > 0: %w", c.Name, c.VdLiters, ErrInvalidParameter)
	}
	if len(c.Routes) == 0 {
		return fmt.Errorf("compound %q: no route parameters: %w", c.Name, ErrInvalidParameter)
	}
	for route, rp := range c.Routes {
		if rp.Bioavailability <= 0 || rp.Bioavailability > 1 {
			return fmt.Errorf("compound %q route %q: bioavailability %v outside (0, 1]: %w", c.Name, route, rp.Bioavailability, ErrInvalidParameter)
		}
		if rp.KaPerDay <= 0 {
			return fmt.Errorf("compound %q route %q: ka %v must be > 0: %w", c.Name, route, rp.KaPerDay, ErrInvalidParameter)
		}
	}
	return nil
}

// KePerDay is the elimination rate constant at reference weight.
func (c *CompoundParams) KePerDay() float64 {
	return math.Ln2 / c.HalfLifeDays
}

// RouteParamsFor resolves the parameters for the requested route, falling
// back to DefaultRoute when the compound has no entry for it. The returned
// Route is the one actually used, so callers can tell a fallback happened.
func (c *CompoundParams) RouteParamsFor(route Route) (RouteParams, Route, error) {
	if rp, ok := c.Routes[route]; ok {
		return rp, route, nil
	}
	if rp, ok := c.Routes[DefaultRoute]; ok {
		logrus.Debugf("compound %q has no %q parameters, falling back to %q", c.Name, route, DefaultRoute)
		return rp, DefaultRoute, nil
	}
	return RouteParams{}, "", fmt.Errorf("compound %q: no parameters for route %q and no %q fallback: %w",
		c.Name, route, DefaultRoute, ErrInvalidParameter)
}

// scaledParams returns the weight-adjusted (vd, ke) pair. Vd scales with
// (w/70)^1.0 and clearance with (w/70)^0.75, so ke = CL/Vd picks up a net
// (w/70)^-0.25 factor.
func (c *CompoundParams) scaledParams(weightKg float64) (vd, ke float64) {
	ratio := weightKg / ReferenceWeightKg
	vd = c.VdLiters * math.Pow(ratio, vdWeightExponent)
	ke = c.KePerDay() * math.Pow(ratio, clWeightExponent-vdWeightExponent)
	return vd, ke
}

// Table is a by-name lookup of compound records.
type Table map[string]*CompoundParams

// Lookup returns the named compound or an ErrInvalidParameter.
func (t Table) Lookup(name string) (*CompoundParams, error) {
	c, ok := t[name]
	if !ok {
		return nil, fmt.Errorf("unknown compound %q: %w", name, ErrInvalidParameter)
	}
	return c, nil
}

// DefaultTable returns the built-in reference table. Vd values are apparent
// volumes fitted against published serum-level studies at 70 kg; they embed
// the mg-dose to ng/dL mapping and are not anatomical volumes.
func DefaultTable() Table {
	compounds := []*CompoundParams{
		{
			Name: "testosterone-enanthate", Class: "androgen", Ester: "enanthate",
			HalfLifeDays: 4.5, VdLiters: 9650,
			Routes: map[Route]RouteParams{
				RouteIntramuscular: {Bioavailability: 0.95, KaPerDay: 0.6},
				RouteSubcutaneous:  {Bioavailability: 0.90, KaPerDay: 0.45},
			},
		},
		{
			Name: "testosterone-cypionate", Class: "androgen", Ester: "cypionate",
			HalfLifeDays: 5.0, VdLiters: 9650,
			Routes: map[Route]RouteParams{
				RouteIntramuscular: {Bioavailability: 0.95, KaPerDay: 0.55},
				RouteSubcutaneous:  {Bioavailability: 0.90, KaPerDay: 0.40},
			},
		},
		{
			Name: "testosterone-propionate", Class: "androgen", Ester: "propionate",
			HalfLifeDays: 0.8, VdLiters: 8200,
			Routes: map[Route]RouteParams{
				RouteIntramuscular: {Bioavailability: 0.95, KaPerDay: 1.8},
			},
		},
		{
			Name: "testosterone-phenylpropionate", Class: "androgen", Ester: "phenylpropionate",
			HalfLifeDays: 1.5, VdLiters: 8800,
			Routes: map[Route]RouteParams{
				RouteIntramuscular: {Bioavailability: 0.95, KaPerDay: 1.2},
			},
		},
		{
			Name: "testosterone-isocaproate", Class: "androgen", Ester: "isocaproate",
			HalfLifeDays: 4.0, VdLiters: 9400,
			Routes: map[Route]RouteParams{
				RouteIntramuscular: {Bioavailability: 0.95, KaPerDay: 0.65},
			},
		},
		{
			Name: "testosterone-decanoate", Class: "androgen", Ester: "decanoate",
			HalfLifeDays: 7.5, VdLiters: 10200,
			Routes: map[Route]RouteParams{
				RouteIntramuscular: {Bioavailability: 0.95, KaPerDay: 0.35},
			},
		},
		{
			Name: "testosterone-undecanoate", Class: "androgen", Ester: "undecanoate",
			HalfLifeDays: 20.9, VdLiters: 11000,
			Routes: map[Route]RouteParams{
				RouteIntramuscular: {Bioavailability: 0.95, KaPerDay: 0.12},
				RouteOral:          {Bioavailability: 0.07, KaPerDay: 8.0},
			},
		},
		{
			Name: "testosterone", Class: "androgen",
			HalfLifeDays: 0.1, VdLiters: 7500,
			Routes: map[Route]RouteParams{
				RouteTransdermal: {Bioavailability: 0.10, KaPerDay: 12.0},
				RouteOral:        {Bioavailability: 0.05, KaPerDay: 16.0},
			},
		},
	}
	table := make(Table, len(compounds))
	for _, c := range compounds {
		table[c.Name] = c
	}
	return table
}
