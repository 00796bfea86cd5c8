package rules

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/harrison/docval/internal/models"
)

// sqrtArgRegex captures the argument of a sqrt call (unqualified or via
// np./math./numpy.). Nested parentheses are not chased: documented
// formulas are flat in practice, and a missed nested form is a false
// negative, not a crash.
var sqrtArgRegex = regexp.MustCompile(`(?:np\.|math\.|numpy\.)?sqrt\s*\(([^()]*)\)`)

// kTOverMassRegex recognizes a Boltzmann-times-temperature-over-mass term
// inside a sqrt argument: the thermal speed shape.
var kTOverMassRegex = regexp.MustCompile(`\bk[\w.]*\s*\*\s*T\w*\s*/\s*m\w*`)

var (
	factorTwoRegex   = regexp.MustCompile(`^\s*2(?:\.0*)?\s*\*`)
	factorThreeRegex = regexp.MustCompile(`^\s*3(?:\.0*)?\s*\*`)
)

// thermalLiteralRegex matches a bare numeric literal assigned to a
// thermal-speed-named variable.
var thermalLiteralRegex = regexp.MustCompile(`(?i)\b(w|wth|w_th|vth|v_th|thermal_speed)\s*=\s*[-+]?\d[\d_.e+-]*\s*$`)

// temperatureTokenRegex and tVarRegex detect a temperature derivation
// nearby; its absence is what makes a hardcoded thermal-speed literal
// suspicious. The single-letter T match is case-sensitive on purpose.
var (
	temperatureTokenRegex = regexp.MustCompile(`(?i)\btemp`)
	tVarRegex             = regexp.MustCompile(`\bT(_\w+)?\b`)
)

func hasTemperatureToken(code string) bool {
	return temperatureTokenRegex.MatchString(code) || tVarRegex.MatchString(code)
}

// ThermalSpeedRule enforces the mw² = 2kT thermal speed convention on
// source text. A 3kT or bare kT factor inside a sqrt is a definite
// convention violation (error); a hardcoded thermal-speed literal with no
// temperature in sight is only suspicious (warning), since the heuristic
// cannot prove the literal wasn't derived offline.
type ThermalSpeedRule struct{}

func (r *ThermalSpeedRule) ID() string    { return "thermal-speed-convention" }
func (r *ThermalSpeedRule) Runtime() bool { return false }

func (r *ThermalSpeedRule) Validate(ex models.Example, _ models.ExecutionResult) []models.Violation {
	var violations []models.Violation

	for _, line := range strings.Split(ex.CodeText, "\n") {
		for _, m := range sqrtArgRegex.FindAllStringSubmatch(line, -1) {
			arg := m[1]
			if !kTOverMassRegex.MatchString(arg) {
				continue
			}
			if factorTwoRegex.MatchString(arg) {
				continue
			}

			msg := "thermal speed must use mw^2 = 2kT; the factor of 2 is missing"
			if factorThreeRegex.MatchString(arg) {
				msg = "thermal speed must use mw^2 = 2kT, not 3kT"
			}
			violations = append(violations, models.Violation{
				ExampleID: ex.ID,
				RuleID:    r.ID(),
				Severity:  models.SeverityError,
				Message:   msg,
				Evidence:  strings.TrimSpace(line),
			})
		}

		if thermalLiteralRegex.MatchString(line) && !hasTemperatureToken(ex.CodeText) {
			violations = append(violations, models.Violation{
				ExampleID: ex.ID,
				RuleID:    r.ID(),
				Severity:  models.SeverityWarning,
				Message:   "hardcoded thermal-speed literal not derived from a temperature; compute it from T instead",
				Evidence:  strings.TrimSpace(line),
			})
		}
	}

	return violations
}

// knownConstant pairs a physical-constant literal with its name. Values
// are matched against numeric literals in source within 0.1% so truncated
// forms (1.38e-23 vs 1.380649e-23) still hit.
type knownConstant struct {
	value float64
	name  string
}

var knownConstants = []knownConstant{
	{1.380649e-23, "Boltzmann constant k_B"},
	{1.38e-23, "Boltzmann constant k_B"},
	{1.602176634e-19, "elementary charge e"},
	{1.6e-19, "elementary charge e"},
	{9.1093837015e-31, "electron mass m_e"},
	{9.11e-31, "electron mass m_e"},
	{1.67262192369e-27, "proton mass m_p"},
	{1.67e-27, "proton mass m_p"},
	{2.99792458e8, "speed of light c"},
	{3e8, "speed of light c"},
	{1.25663706212e-6, "vacuum permeability mu_0"},
	{6.674e-11, "gravitational constant G"},
}

var numericLiteralRegex = regexp.MustCompile(`\b\d+(?:\.\d+)?(?:[eE][-+]?\d+)?\b`)

// quantityAssignRegex matches an assignment of a numeric literal to a
// physical-quantity-named variable; shared by the unit and missing-data
// rules.
var quantityAssignRegex = regexp.MustCompile(`(?i)^\s*(\w*(?:density|temp|speed|velocity|pressure|field|flux|beta)\w*|n_[a-z]\w*|b_?[xyz])\s*=\s*([-+]?\d[\d_.e+-]*)\s*(#.*)?$`)

// conversionTokenRegex detects an explicit display-unit conversion.
var conversionTokenRegex = regexp.MustCompile(`(?i)1e3|1e-3|/\s*1000|\*\s*1000|\bkm\b|\.to\(|convert`)

// UnitConsistencyRule flags physical constants embedded as bare literals
// (should reference named constants) and SI-scale magnitudes presented
// with no display-unit conversion anywhere in the snippet.
type UnitConsistencyRule struct{}

func (r *UnitConsistencyRule) ID() string    { return "unit-consistency" }
func (r *UnitConsistencyRule) Runtime() bool { return false }

func (r *UnitConsistencyRule) Validate(ex models.Example, _ models.ExecutionResult) []models.Violation {
	var violations []models.Violation

	hasConversion := conversionTokenRegex.MatchString(ex.CodeText)

	for _, line := range strings.Split(ex.CodeText, "\n") {
		for _, lit := range numericLiteralRegex.FindAllString(line, -1) {
			value, err := strconv.ParseFloat(strings.ReplaceAll(lit, "_", ""), 64)
			if err != nil {
				continue
			}
			if name, ok := matchKnownConstant(value); ok {
				violations = append(violations, models.Violation{
					ExampleID: ex.ID,
					RuleID:    r.ID(),
					Severity:  models.SeverityWarning,
					Message:   "hardcoded " + name + "; reference a named constant instead",
					Evidence:  strings.TrimSpace(line),
				})
			}
		}

		if m := quantityAssignRegex.FindStringSubmatch(line); m != nil && !hasConversion {
			if value, err := strconv.ParseFloat(strings.ReplaceAll(m[2], "_", ""), 64); err == nil && math.Abs(value) >= 1e5 {
				violations = append(violations, models.Violation{
					ExampleID: ex.ID,
					RuleID:    r.ID(),
					Severity:  models.SeverityInfo,
					Message:   "SI-scale magnitude with no display-unit conversion; state the display units",
					Evidence:  strings.TrimSpace(line),
				})
			}
		}
	}

	return violations
}

func matchKnownConstant(value float64) (string, bool) {
	if value == 0 {
		return "", false
	}
	for _, kc := range knownConstants {
		if math.Abs(value-kc.value)/math.Abs(kc.value) < 1e-3 {
			return kc.name, true
		}
	}
	return "", false
}

// sentinelValueRegex matches the conventional missing-data fill values.
var sentinelValueRegex = regexp.MustCompile(`^[-+]?(0(\.0+)?|9{3,}(\.9*)?)$`)

// MissingDataRule flags sentinel fill values assigned to variables whose
// names suggest a physical quantity; missing data belongs in NaN, where
// arithmetic propagates it instead of silently contaminating statistics.
// Pattern-based only: no data-flow analysis is attempted.
type MissingDataRule struct{}

func (r *MissingDataRule) ID() string    { return "missing-data-convention" }
func (r *MissingDataRule) Runtime() bool { return false }

func (r *MissingDataRule) Validate(ex models.Example, _ models.ExecutionResult) []models.Violation {
	var violations []models.Violation

	for _, line := range strings.Split(ex.CodeText, "\n") {
		m := quantityAssignRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value := strings.TrimPrefix(m[2], "+")
		if !sentinelValueRegex.MatchString(value) {
			continue
		}
		violations = append(violations, models.Violation{
			ExampleID: ex.ID,
			RuleID:    r.ID(),
			Severity:  models.SeverityWarning,
			Message:   "sentinel fill value assigned to physical quantity " + m[1] + "; use np.nan for missing data",
			Evidence:  strings.TrimSpace(line),
		})
	}

	return violations
}

// densityTokenRegex recognizes a mass-density term inside a sqrt argument.
var densityTokenRegex = regexp.MustCompile(`(?i)\brho\w*|\bdensity\w*|\bn_[a-z]\w*|m_?p\s*\*\s*n`)

// mu0TokenRegex recognizes a vacuum-permeability factor in any of its
// usual spellings.
var mu0TokenRegex = regexp.MustCompile(`(?i)mu_?0|constants\.mu|4\s*\*\s*(?:np\.)?pi\s*\*\s*1e-7|1\.2566`)

// bOverSqrtRegex matches a magnetic-field-over-root expression.
var bOverSqrtRegex = regexp.MustCompile(`\b[Bb]\w*\s*/\s*(?:np\.|math\.|numpy\.)?sqrt\s*\(([^()]*)\)`)

// AlfvenSpeedRule checks that a B-over-sqrt(density) expression carries a
// mu_0 factor in the denominator: v_A = B / sqrt(mu_0 * rho). Absence is a
// warning, not an error, because the factor may be folded into a constant
// the pattern cannot see.
type AlfvenSpeedRule struct{}

func (r *AlfvenSpeedRule) ID() string    { return "alfven-speed-formula" }
func (r *AlfvenSpeedRule) Runtime() bool { return false }

func (r *AlfvenSpeedRule) Validate(ex models.Example, _ models.ExecutionResult) []models.Violation {
	var violations []models.Violation

	for _, line := range strings.Split(ex.CodeText, "\n") {
		for _, m := range bOverSqrtRegex.FindAllStringSubmatch(line, -1) {
			arg := m[1]
			if !densityTokenRegex.MatchString(arg) {
				continue
			}
			if mu0TokenRegex.MatchString(arg) {
				continue
			}
			violations = append(violations, models.Violation{
				ExampleID: ex.ID,
				RuleID:    r.ID(),
				Severity:  models.SeverityWarning,
				Message:   "Alfven speed denominator is missing the permeability factor: v_A = B / sqrt(mu_0 * rho)",
				Evidence:  strings.TrimSpace(line),
			})
		}
	}

	return violations
}
