package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/osteele/liquid"
	"github.com/rotisserie/eris"

	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

//go:embed templates
var templateFS embed.FS

// Section names, in default rendering order.
const (
	SectionDistribution   = "distribution"
	SectionRecommendation = "recommendation"
	SectionProximity      = "proximity"
	SectionCustomers      = "customers"
	SectionCrossroads     = "crossroads"
	SectionNarrative      = "narrative"
)

// DefaultSections is the standard section order. The header is not a
// section; it always renders first.
var DefaultSections = []string{
	SectionDistribution,
	SectionRecommendation,
	SectionProximity,
	SectionCustomers,
	SectionCrossroads,
	SectionNarrative,
}

// Renderer renders report payloads through liquid templates. The default
// markdown templates are embedded; a custom template file can replace the
// whole document via RenderFile.
type Renderer struct {
	engine   *liquid.Engine
	header   string
	sections map[string]string
}

// NewRenderer loads the embedded templates and registers the report
// filters.
func NewRenderer() (*Renderer, error) {
	engine := liquid.NewEngine()
	registerFilters(engine)

	r := &Renderer{engine: engine, sections: map[string]string{}}
	var err error
	if r.header, err = readTemplate("header"); err != nil {
		return nil, err
	}
	for _, name := range DefaultSections {
		if r.sections[name], err = readTemplate(name); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func readTemplate(name string) (string, error) {
	raw, err := templateFS.ReadFile("templates/" + name + ".md.liquid")
	if err != nil {
		return "", eris.Wrapf(err, "report: load template %s", name)
	}
	return string(raw), nil
}

// Render produces the markdown report: header first, then the configured
// sections in order. A nil config renders everything in default order.
func (r *Renderer) Render(data *ReportData, cfg *SectionConfig) (string, error) {
	bindings, err := toBindings(data)
	if err != nil {
		return "", err
	}

	out, err := r.engine.ParseAndRenderString(r.header, bindings)
	if err != nil {
		return "", eris.Wrap(err, "report: render header")
	}
	parts := []string{strings.TrimSpace(out)}

	for _, name := range cfg.Names() {
		tpl, ok := r.sections[name]
		if !ok {
			return "", eris.Errorf("report: unknown section %q", name)
		}
		out, err := r.engine.ParseAndRenderString(tpl, bindings)
		if err != nil {
			return "", eris.Wrapf(err, "report: render section %s", name)
		}
		// Gated-off sections render to nothing and are dropped whole.
		if trimmed := strings.TrimSpace(out); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "\n\n") + "\n", nil
}

// RenderFile renders a custom template file against the same bindings the
// default sections see. The file owns the whole document layout.
func (r *Renderer) RenderFile(path string, data *ReportData) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "report: read template %s", path)
	}
	bindings, err := toBindings(data)
	if err != nil {
		return "", err
	}
	out, err := r.engine.ParseAndRenderString(string(raw), bindings)
	if err != nil {
		return "", eris.Wrapf(err, "report: render template %s", path)
	}
	return out, nil
}

var (
	varPattern    = regexp.MustCompile(`\{\{-?\s*([a-zA-Z_][a-zA-Z0-9_.]*)`)
	loopPattern   = regexp.MustCompile(`\{%-?\s*for\s+([a-zA-Z_][a-zA-Z0-9_]*)\s+in`)
	assignPattern = regexp.MustCompile(`\{%-?\s*assign\s+([a-zA-Z_][a-zA-Z0-9_]*)`)
)

// ValidateVariables reports every template variable that does not resolve
// against the bindings for data. Loop-scoped variables are skipped.
// Template typos surface here instead of as silent blanks in a customer
// report; whether a warning is fatal is the caller's call.
func (r *Renderer) ValidateVariables(data *ReportData) ([]string, error) {
	bindings, err := toBindings(data)
	if err != nil {
		return nil, err
	}

	templates := make([]string, 0, len(r.sections)+1)
	templates = append(templates, r.header)
	for _, name := range DefaultSections {
		templates = append(templates, r.sections[name])
	}

	local := map[string]bool{"forloop": true}
	for _, tpl := range templates {
		for _, m := range loopPattern.FindAllStringSubmatch(tpl, -1) {
			local[m[1]] = true
		}
		for _, m := range assignPattern.FindAllStringSubmatch(tpl, -1) {
			local[m[1]] = true
		}
	}

	var missing []string
	seen := map[string]bool{}
	for _, tpl := range templates {
		for _, m := range varPattern.FindAllStringSubmatch(tpl, -1) {
			path := m[1]
			if seen[path] {
				continue
			}
			seen[path] = true
			if local[strings.SplitN(path, ".", 2)[0]] {
				continue
			}
			if !pathExists(path, bindings) {
				missing = append(missing, path)
			}
		}
	}
	sort.Strings(missing)
	return missing, nil
}

func pathExists(path string, bindings map[string]any) bool {
	var current any = bindings
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return false
		}
		if current, ok = m[part]; !ok {
			return false
		}
	}
	return true
}

// toBindings flattens the typed payload into the map shape liquid
// traverses, reusing the json tags as variable names.
func toBindings(data *ReportData) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "report: encode bindings")
	}
	var bindings map[string]any
	if err := json.Unmarshal(raw, &bindings); err != nil {
		return nil, eris.Wrap(err, "report: decode bindings")
	}
	return bindings, nil
}

func registerFilters(engine *liquid.Engine) {
	// pct renders a 0-100 number as "12.3%".
	engine.RegisterFilter("pct", func(value any) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		return fmt.Sprintf("%.1f%%", f)
	})

	// round1 rounds to one decimal and drops a trailing ".0".
	engine.RegisterFilter("round1", func(value any) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		return strconv.FormatFloat(math.Round(f*10)/10, 'f', -1, 64)
	})

	engine.RegisterFilter("risk_label", func(value any) string {
		return RiskLabel(model.RiskLevel(strings.ToUpper(fmt.Sprintf("%v", value))))
	})

	engine.RegisterFilter("segment_label", func(value any) string {
		return SegmentLabel(model.Quadrant(fmt.Sprintf("%v", value)))
	})

	engine.RegisterFilter("humanize", func(value any) string {
		return RelationshipLabel(fmt.Sprintf("%v", value))
	})
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
