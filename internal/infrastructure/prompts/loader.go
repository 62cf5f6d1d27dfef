package prompts

import (
	_ "embed"
)

//go:embed explorer.txt
var ExplorerPrompt string

//go:embed reduction.txt
var ReductionPrompt string
