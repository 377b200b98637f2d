package extract

import "fmt"

// Ephemeral field scanning. The server invents per-session field names for
// dynamic widgets; they are only ever valid for the rendering that produced
// them and are never persisted across stages.

// fieldOrderings are the observed attribute orderings of ephemeral inputs.
// The family placeholder %s is substituted with the caller's name pattern;
// nameFirst says which capture group carries the field name.
var fieldOrderings = []struct {
	pattern   string
	nameFirst bool
}{
	{`<input[^>]*\bvalue="([^"]*)"[^>]*\bname="(%s)"`, false},
	{`<input[^>]*\bname="(%s)"[^>]*\bvalue="([^"]*)"`, true},
}

// EphemeralFields scans a body for hidden fields whose names match the given
// family pattern (a regex fragment such as `j_idt\d+`). It tries every
// observed attribute ordering, then the same orderings inside CDATA-wrapped
// partial-response fragments. A body lacking the widget family yields an
// empty map; this never fails.
func (e *Extractor) EphemeralFields(body, familyPattern string) map[string]string {
	out := make(map[string]string)
	if body == "" || familyPattern == "" {
		return out
	}

	e.scanEphemeral(body, familyPattern, out)
	for _, section := range e.cdataSections(body) {
		e.scanEphemeral(section, familyPattern, out)
	}
	return out
}

func (e *Extractor) scanEphemeral(fragment, familyPattern string, out map[string]string) {
	for _, ordering := range fieldOrderings {
		re, err := e.cachedRegex(fmt.Sprintf(ordering.pattern, familyPattern))
		if err != nil {
			continue
		}
		for _, m := range re.FindAllStringSubmatch(fragment, -1) {
			name, value := m[2], m[1]
			if ordering.nameFirst {
				name, value = m[1], m[2]
			}
			if _, dup := out[name]; !dup {
				out[name] = value
			}
		}
	}
}

// Candidate is one selectable rendering of a dynamic widget: the ephemeral
// identifier the server invented and the human-readable label next to it.
type Candidate struct {
	ID    string
	Label string
}

// SelectionCandidates scans a body for selectable widgets of the given family
// pattern. Shapes tried, in order: list items with the label as element text,
// inputs with the label in a title attribute (both attribute orders), then
// the same shapes inside CDATA fragments. Missing widgets yield an empty
// slice, never an error.
func (e *Extractor) SelectionCandidates(body, familyPattern string) []Candidate {
	var out []Candidate
	if body == "" || familyPattern == "" {
		return out
	}

	seen := make(map[string]bool)
	collect := func(fragment string) {
		for _, c := range e.scanCandidates(fragment, familyPattern) {
			if !seen[c.ID] {
				seen[c.ID] = true
				out = append(out, c)
			}
		}
	}

	collect(body)
	for _, section := range e.cdataSections(body) {
		collect(section)
	}
	return out
}

func (e *Extractor) scanCandidates(fragment, familyPattern string) []Candidate {
	var out []Candidate

	// element text label: <li id="fam..." ...>Label</li>
	re, err := e.cachedRegex(`<(?:li|a|span)[^>]*\bid="(` + familyPattern + `)"[^>]*>\s*([^<]+?)\s*<`)
	if err == nil {
		for _, m := range re.FindAllStringSubmatch(fragment, -1) {
			out = append(out, Candidate{ID: m[1], Label: normalizeWhitespace(m[2])})
		}
	}

	// title attribute, id first
	re, err = e.cachedRegex(`<input[^>]*\bid="(` + familyPattern + `)"[^>]*\btitle="([^"]+)"`)
	if err == nil {
		for _, m := range re.FindAllStringSubmatch(fragment, -1) {
			out = append(out, Candidate{ID: m[1], Label: normalizeWhitespace(m[2])})
		}
	}

	// title attribute, title first
	re, err = e.cachedRegex(`<input[^>]*\btitle="([^"]+)"[^>]*\bid="(` + familyPattern + `)"`)
	if err == nil {
		for _, m := range re.FindAllStringSubmatch(fragment, -1) {
			out = append(out, Candidate{ID: m[2], Label: normalizeWhitespace(m[1])})
		}
	}
	return out
}
