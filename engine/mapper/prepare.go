package mapper

import (
	"context"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/compozy/o2a/engine/el"
	"github.com/compozy/o2a/engine/workflow"
)

const (
	ParamCluster        = "dataproc_cluster"
	ParamRegion         = "gcp_region"
	ParamPrepareCommand = "prepare_command"

	prepareScript = "$DAGS_FOLDER/../data/prepare.sh"
	prepareSuffix = "_prepare"
)

// PrepareSpec lists the paths to clean up before an action runs
type PrepareSpec struct {
	Cluster string
	Region  string
	Delete  []string
	Mkdir   []string
}

// ParsePrepare reads the <prepare> child of an action. It returns nil when the
// action declares no prepare paths.
func ParsePrepare(action *etree.Element, params map[string]string) (*PrepareSpec, error) {
	prep := action.SelectElement("prepare")
	if prep == nil {
		return nil, nil
	}
	spec := &PrepareSpec{}
	for _, child := range prep.ChildElements() {
		path := child.SelectAttrValue("path", "")
		if path == "" {
			return nil, fmt.Errorf("prepare %s has no path", child.Tag)
		}
		normalized := el.NormalizePath(path, params)
		switch child.Tag {
		case "delete":
			spec.Delete = append(spec.Delete, normalized)
		case "mkdir":
			spec.Mkdir = append(spec.Mkdir, normalized)
		default:
			return nil, fmt.Errorf("unsupported prepare operation %q", child.Tag)
		}
	}
	if len(spec.Delete) == 0 && len(spec.Mkdir) == 0 {
		return nil, nil
	}
	var ok bool
	if spec.Cluster, ok = params[ParamCluster]; !ok {
		return nil, fmt.Errorf("param %s is required for prepare", ParamCluster)
	}
	if spec.Region, ok = params[ParamRegion]; !ok {
		return nil, fmt.Errorf("param %s is required for prepare", ParamRegion)
	}
	return spec, nil
}

// Command renders the prepare script invocation. Deletions are listed before mkdirs.
func (p *PrepareSpec) Command() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s -c %s -r %s", prepareScript, p.Cluster, p.Region)
	if len(p.Delete) > 0 {
		fmt.Fprintf(&b, ` -d "%s"`, strings.Join(p.Delete, " "))
	}
	if len(p.Mkdir) > 0 {
		fmt.Fprintf(&b, ` -m "%s"`, strings.Join(p.Mkdir, " "))
	}
	return b.String()
}

// WithPrepare prepends a <name>_prepare task to result and orders it before
// the first action task. A nil prepare block leaves result unchanged.
func WithPrepare(name string, spec *PrepareSpec, result *Result) *Result {
	if spec == nil || len(result.Tasks) == 0 {
		return result
	}
	prepare := workflow.NewTask(name+prepareSuffix, TemplatePrepare, map[string]any{
		ParamPrepareCommand: spec.Command(),
	})
	return &Result{
		Tasks: append([]*workflow.Task{prepare}, result.Tasks...),
		Relations: append([]workflow.Relation{{
			From: prepare.ID,
			To:   result.FirstTaskID(),
			Kind: workflow.EdgeStructural,
		}}, result.Relations...),
		Imports: append([]string{ImportBash}, result.Imports...),
	}
}

type prepared struct {
	inner Mapper
}

// Prepared wraps an action mapper so that its <prepare> block becomes a separate task
func Prepared(inner Mapper) Mapper {
	return prepared{inner: inner}
}

func (p prepared) Translate(ctx context.Context, node Node, params map[string]string) (*Result, error) {
	result, err := p.inner.Translate(ctx, node, params)
	if err != nil {
		return nil, err
	}
	spec, err := ParsePrepare(node.Element, params)
	if err != nil {
		return nil, err
	}
	return WithPrepare(node.Name, spec, result), nil
}
