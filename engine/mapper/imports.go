package mapper

const (
	ImportDummy    = "from airflow.operators import dummy_operator"
	ImportBash     = "from airflow.operators import bash_operator"
	ImportPython   = "from airflow.operators import python_operator"
	ImportDataproc = "from airflow.contrib.operators import dataproc_operator"
	ImportDates    = "from airflow.utils import dates"
	ImportShlex    = "import shlex"
)

// Template names understood by the emitter
const (
	TemplateDummy    = "dummy"
	TemplateKill     = "kill"
	TemplateDecision = "decision"
	TemplatePrepare  = "prepare"
	TemplateShell    = "shell"
	TemplateSpark    = "spark"
	TemplateDistCp   = "distcp"
)
