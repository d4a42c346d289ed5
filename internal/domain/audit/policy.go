package audit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DoseRange es el rango "normal" de una medicina. Cero = sin límite.
type DoseRange struct {
	MinMg          float64
	MaxMg          float64
	MaxTimesPerDay float64
}

// Policy decide qué recetas se marcan. Es configuración, no código:
// se arma desde config.AuditConfig.
type Policy struct {
	ControlledSubstances []string
	// Ranges indexado por nombre de medicina en minúsculas.
	Ranges map[string]DoseRange
}

func NewPolicy(controlled []string, ranges map[string]DoseRange) Policy {
	p := Policy{Ranges: map[string]DoseRange{}}
	for _, c := range controlled {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			p.ControlledSubstances = append(p.ControlledSubstances, c)
		}
	}
	for name, r := range ranges {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			p.Ranges[name] = r
		}
	}
	return p
}

// Evaluate devuelve el primer motivo de marca encontrado.
func (p Policy) Evaluate(meds []MedicineLine) (bool, string) {
	for _, m := range meds {
		name := strings.ToLower(strings.TrimSpace(m.Name))
		if name == "" {
			continue
		}

		for _, c := range p.ControlledSubstances {
			if strings.Contains(name, c) {
				return true, "Controlled substance prescribed: " + m.Name
			}
		}

		rng, ok := p.rangeFor(name)
		if !ok {
			continue
		}
		if mg, ok := ParseDosageMg(m.Dosage); ok {
			if rng.MaxMg > 0 && mg > rng.MaxMg {
				return true, fmt.Sprintf("Dosage above normal range for %s: %s", m.Name, m.Dosage)
			}
			if rng.MinMg > 0 && mg < rng.MinMg {
				return true, fmt.Sprintf("Dosage below normal range for %s: %s", m.Name, m.Dosage)
			}
		}
		if n, ok := ParseTimesPerDay(m.Frequency); ok && rng.MaxTimesPerDay > 0 && n > rng.MaxTimesPerDay {
			return true, fmt.Sprintf("Frequency above normal range for %s: %s", m.Name, m.Frequency)
		}
	}
	return false, ""
}

func (p Policy) rangeFor(name string) (DoseRange, bool) {
	if r, ok := p.Ranges[name]; ok {
		return r, true
	}
	// "Amoxicillin 500" también matchea "amoxicillin".
	for k, r := range p.Ranges {
		if strings.Contains(name, k) {
			return r, true
		}
	}
	return DoseRange{}, false
}

var dosageRe = regexp.MustCompile(`^\s*([0-9]*\.?[0-9]+)\s*(mg|g|mcg|µg|ug)\b`)

// ParseDosageMg entiende "500mg", "0.5 g", "250 mcg".
func ParseDosageMg(s string) (float64, bool) {
	m := dosageRe.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch m[2] {
	case "g":
		v *= 1000
	case "mcg", "µg", "ug":
		v /= 1000
	}
	return v, true
}

var (
	timesRe = regexp.MustCompile(`(\d+)\s*times?\s*(a|per)?\s*(day|daily)`)
	everyRe = regexp.MustCompile(`every\s*(\d+)\s*h(ours?|rs?)?\b`)
)

var wordTimes = map[string]float64{
	"once":   1,
	"twice":  2,
	"thrice": 3,
	"three":  3,
	"four":   4,
}

// ParseTimesPerDay entiende "once daily", "twice a day", "3 times daily",
// "three times daily", "every 8 hours".
func ParseTimesPerDay(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if m := timesRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		return n, err == nil
	}
	if m := everyRe.FindStringSubmatch(s); m != nil {
		h, err := strconv.ParseFloat(m[1], 64)
		if err != nil || h <= 0 {
			return 0, false
		}
		return 24 / h, true
	}
	if !strings.Contains(s, "day") && !strings.Contains(s, "daily") {
		return 0, false
	}
	for _, f := range strings.Fields(s) {
		if n, ok := wordTimes[f]; ok {
			return n, true
		}
	}
	return 0, false
}
