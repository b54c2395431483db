package workflow

// TriggerPolicy is the run condition of a task, derived from the kinds of its incoming relations
type TriggerPolicy string

const (
	// AllUpstreamSucceeded runs only when every upstream succeeded
	AllUpstreamSucceeded TriggerPolicy = "ALL_UPSTREAM_SUCCEEDED"
	// AnyUpstreamFailed runs when at least one upstream failed
	AnyUpstreamFailed TriggerPolicy = "ANY_UPSTREAM_FAILED"
	// AllUpstreamDone runs once every upstream reached a terminal state
	AllUpstreamDone TriggerPolicy = "ALL_UPSTREAM_DONE"
	// AnyUpstreamSucceededOrSkipped runs when one upstream succeeded and none failed
	AnyUpstreamSucceededOrSkipped TriggerPolicy = "ANY_UPSTREAM_SUCCEEDED_OR_SKIPPED"
)

var airflowRules = map[TriggerPolicy]string{
	AllUpstreamSucceeded:          "all_success",
	AnyUpstreamFailed:             "one_failed",
	AllUpstreamDone:               "all_done",
	AnyUpstreamSucceededOrSkipped: "none_failed_min_one_success",
}

func (p TriggerPolicy) IsValid() bool {
	_, ok := airflowRules[p]
	return ok
}

// AirflowRule returns the Airflow trigger_rule name for the policy
func (p TriggerPolicy) AirflowRule() string {
	if rule, ok := airflowRules[p]; ok {
		return rule
	}
	return airflowRules[AllUpstreamSucceeded]
}

func (p TriggerPolicy) String() string {
	return string(p)
}

// Task is one unit of work in the compiled graph
type Task struct {
	ID       string
	Template string
	Trigger  TriggerPolicy
	Params   map[string]any
}

func NewTask(id, template string, params map[string]any) *Task {
	if params == nil {
		params = map[string]any{}
	}
	return &Task{
		ID:       id,
		Template: template,
		Trigger:  AllUpstreamSucceeded,
		Params:   params,
	}
}
