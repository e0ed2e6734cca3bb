// Package jobfile loads driver parameters from an HCL job file. A job file
// holds a single `job` block whose attributes mirror the CLI flags;
// explicitly set flags take precedence over job-file values.
package jobfile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/amberflow/internal/app"
)

// attrFlag maps job-file attribute names to the CLI flag that overrides
// them. The key set doubles as the closed set of valid attributes.
var attrFlag = map[string]string{
	"name":        "name",
	"nanoseconds": "ns",
	"temperature": "temp",
	"padding":     "padding",
	"salt":        "salt",
	"force_field": "ff",
	"water_model": "water",
	"cpu_only":    "cpu",
	"output_dir":  "out",
}

// Job holds the attribute values of a parsed job block.
type Job struct {
	values map[string]cty.Value
}

// Load parses the job file at path and returns its job block's attributes.
// Malformed HCL, a missing or duplicated job block, and unknown attributes
// are all errors.
func Load(path string) (*Job, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse job file %s: %w", path, diags)
	}

	content, diags := file.Body.Content(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{{Type: "job"}},
	})
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode job file %s: %w", path, diags)
	}

	var block *hcl.Block
	for _, b := range content.Blocks {
		if block != nil {
			return nil, fmt.Errorf("job file %s contains more than one job block", path)
		}
		block = b
	}
	if block == nil {
		return nil, fmt.Errorf("job file %s contains no job block", path)
	}

	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to read job block in %s: %w", path, diags)
	}

	values := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		if _, ok := attrFlag[name]; !ok {
			return nil, fmt.Errorf("unsupported job attribute %q: valid attributes are %s", name, validAttributes())
		}
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate job attribute %q: %w", name, diags)
		}
		values[name] = val
	}
	return &Job{values: values}, nil
}

// Apply copies job-file values into cfg, skipping any field whose CLI flag
// was explicitly set (explicit holds flag names, per flag.FlagSet.Visit).
func (j *Job) Apply(cfg *app.Config, explicit map[string]bool) error {
	for name, val := range j.values {
		if explicit[attrFlag[name]] {
			continue
		}
		if err := j.applyOne(cfg, name, val); err != nil {
			return err
		}
	}
	return nil
}

func (j *Job) applyOne(cfg *app.Config, name string, val cty.Value) error {
	var err error
	switch name {
	case "name":
		err = gocty.FromCtyValue(val, &cfg.JobName)
	case "nanoseconds":
		err = gocty.FromCtyValue(val, &cfg.Nanoseconds)
	case "temperature":
		err = gocty.FromCtyValue(val, &cfg.TemperatureK)
	case "padding":
		err = gocty.FromCtyValue(val, &cfg.PaddingA)
	case "salt":
		err = gocty.FromCtyValue(val, &cfg.SaltMolarity)
	case "force_field":
		err = gocty.FromCtyValue(val, &cfg.ForceField)
	case "water_model":
		err = gocty.FromCtyValue(val, &cfg.WaterModel)
	case "cpu_only":
		err = gocty.FromCtyValue(val, &cfg.CPUOnly)
	case "output_dir":
		err = gocty.FromCtyValue(val, &cfg.OutputDir)
	}
	if err != nil {
		return fmt.Errorf("invalid value for job attribute %q: %w", name, err)
	}
	return nil
}

func validAttributes() string {
	names := make([]string, 0, len(attrFlag))
	for name := range attrFlag {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
