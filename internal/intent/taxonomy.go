// Package intent classifies queries into a fixed taxonomy and turns the
// classification into a scoring signal. Classification is pure regex
// matching over the raw query; the signal then walks the edge types that
// matter for that kind of question.
package intent

// Intent is one category of query purpose.
type Intent string

const (
	FindTool        Intent = "find_tool"
	CheckCapability Intent = "check_capability"
	ComposeWorkflow Intent = "compose_workflow"
	Compare         Intent = "compare"
	Debug           Intent = "debug"
	Optimize        Intent = "optimize"
	Learn           Intent = "learn"
	Explore         Intent = "explore"
	Impact          Intent = "impact"
	Trace           Intent = "trace"
	Recommend       Intent = "recommend"
	Create          Intent = "create"
	Configure       Intent = "configure"
	Security        Intent = "security"
)

// IntentSpec declares one intent: how to recognize it, which edge types
// carry its semantics, and which query terms deserve extra lexical weight.
type IntentSpec struct {
	Intent    Intent   `yaml:"intent"`
	Patterns  []string `yaml:"patterns"`
	EdgeTypes []string `yaml:"edge_types"`
	Keywords  []string `yaml:"keywords"`
}

// builtinTable returns the intent taxonomy in classification order. Order
// matters: when two intents match a query equally often, the earlier one
// wins. Explore doubles as the default for queries matching nothing.
func builtinTable() []IntentSpec {
	return []IntentSpec{
		{
			Intent: FindTool,
			Patterns: []string{
				`(?i)\b(find|search|locate|discover)\b.*\b(tool|parser|component|service|librar)`,
				`(?i)\bwhich (tool|component|service)s?\b`,
				`(?i)\b(tool|something) (for|to handle)\b`,
			},
			EdgeTypes: []string{"provides", "used_for", "implements", "alternative_to"},
			Keywords:  []string{"tool", "parser", "component", "service"},
		},
		{
			Intent: CheckCapability,
			Patterns: []string{
				`(?i)^\s*(can|could|does|do|is|are|will)\b`,
				`(?i)\b(support|handle|process|accept)`,
				`(?i)\bcapab(le|ilit)`,
				`(?i)\b(possible|able) to\b`,
			},
			EdgeTypes: []string{"supports", "provides", "implements", "has_limitation"},
			Keywords:  []string{"support", "handle", "capability"},
		},
		{
			Intent: ComposeWorkflow,
			Patterns: []string{
				`(?i)\b(workflow|pipeline|chain|sequence)\b`,
				`(?i)\b(combine|compose|connect|orchestrate)\b`,
				`(?i)\bsteps? (to|for)\b`,
				`(?i)\bend.to.end\b`,
			},
			EdgeTypes: []string{"feeds_into", "requires", "followed_by", "depends_on", "enables"},
			Keywords:  []string{"workflow", "pipeline", "steps"},
		},
		{
			Intent: Compare,
			Patterns: []string{
				`(?i)\b(compare|comparison|versus|vs\.?)\b`,
				`(?i)\bdifference between\b`,
				`(?i)\b(better|worse|faster|cheaper) than\b`,
				`(?i)\btrade.?offs?\b`,
			},
			EdgeTypes: []string{"alternative_to", "similar_to", "competes_with"},
			Keywords:  []string{"compare", "versus", "difference", "alternative"},
		},
		{
			Intent: Debug,
			Patterns: []string{
				`(?i)\b(debug|troubleshoot|diagnos)`,
				`(?i)\b(error|failing|fails?|failure|broken|crash)`,
				`(?i)\b(not working|doesn'?t work|won'?t)\b`,
				`(?i)\b(fix|workaround)`,
			},
			EdgeTypes: []string{"has_limitation", "has_workaround", "causes", "fixes"},
			Keywords:  []string{"error", "debug", "fix", "failure"},
		},
		{
			Intent: Optimize,
			Patterns: []string{
				`(?i)\b(optimi[sz]e|speed up|efficient)`,
				`(?i)\b(slow|latency|bottleneck|throughput)\b`,
				`(?i)\b(performance|tuning|tune)\b`,
				`(?i)\b(reduce|lower) (cost|memory|load)\b`,
			},
			EdgeTypes: []string{"optimizes", "improves", "reduces_cost", "alternative_to"},
			Keywords:  []string{"performance", "latency", "throughput", "optimize"},
		},
		{
			Intent: Learn,
			Patterns: []string{
				`(?i)\b(learn|understand|explain|tutorial)`,
				`(?i)\bhow (does|do|is) .* work`,
				`(?i)\bwhat (is|are|does)\b`,
				`(?i)\b(documentation|docs|guide)\b`,
			},
			EdgeTypes: []string{"documents", "explains", "example_of"},
			Keywords:  []string{"documentation", "guide", "example"},
		},
		{
			Intent: Explore,
			Patterns: []string{
				`(?i)\b(explore|browse|overview)\b`,
				`(?i)\b(related|connected|neighborhood)\b`,
				`(?i)\bwhat('?s| is) around\b`,
			},
			EdgeTypes: []string{"relates_to", "part_of", "contains"},
			Keywords:  []string{"related", "overview"},
		},
		{
			Intent: Impact,
			Patterns: []string{
				`(?i)\b(impact|affect|consequence)`,
				`(?i)\bwhat (happens|breaks) (if|when)\b`,
				`(?i)\b(blast radius|ripple|downstream)\b`,
				`(?i)\bdepend(s|ent|enc)`,
			},
			EdgeTypes: []string{"depends_on", "feeds_into", "writes_to", "requires"},
			Keywords:  []string{"impact", "depends", "downstream"},
		},
		{
			Intent: Trace,
			Patterns: []string{
				`(?i)\b(trace|path|route|lineage)\b`,
				`(?i)\bhow (does|do) .* (reach|get to|flow)`,
				`(?i)\bfrom \S+ to \S+`,
				`(?i)\bconnected to\b`,
			},
			EdgeTypes: []string{"feeds_into", "flows_to", "writes_to"},
			Keywords:  []string{"path", "trace", "flow"},
		},
		{
			Intent: Recommend,
			Patterns: []string{
				`(?i)\b(recommend|suggest|advise)`,
				`(?i)\b(best|good|right) (choice|option|fit|pick)\b`,
				`(?i)\bshould (i|we) (use|pick|choose)\b`,
				`(?i)\bwhat would you\b`,
			},
			EdgeTypes: []string{"recommended_for", "used_for", "alternative_to"},
			Keywords:  []string{"recommend", "best", "option"},
		},
		{
			Intent: Create,
			Patterns: []string{
				`(?i)\b(create|build|make|generate|scaffold)\b`,
				`(?i)\bfrom scratch\b`,
				`(?i)\bhow (do i|to) (create|build|make)\b`,
			},
			EdgeTypes: []string{"creates", "produces", "generates"},
			Keywords:  []string{"create", "build", "generate"},
		},
		{
			Intent: Configure,
			Patterns: []string{
				`(?i)\b(configur|setting|option|parameter)`,
				`(?i)\b(set ?up|install)\b`,
				`(?i)\b(enable|disable|toggle)\b`,
				`(?i)\b(default|override)s?\b`,
			},
			EdgeTypes: []string{"configures", "requires", "part_of"},
			Keywords:  []string{"configure", "settings", "setup"},
		},
		{
			Intent: Security,
			Patterns: []string{
				`(?i)\b(secur|vulnerab|exploit)`,
				`(?i)\b(auth(entication|orization)?|credential|permission)`,
				`(?i)\b(encrypt|decrypt|tls|ssl)`,
				`(?i)\b(leak|expos\w+) .*(data|secret)`,
			},
			EdgeTypes: []string{"secures", "protects", "authenticates", "has_limitation"},
			Keywords:  []string{"security", "auth", "encryption"},
		},
	}
}

// All returns the intents in table order.
func All() []Intent {
	table := builtinTable()
	out := make([]Intent, len(table))
	for i, spec := range table {
		out[i] = spec.Intent
	}
	return out
}

// Valid reports whether s names a known intent.
func Valid(s string) bool {
	for _, in := range All() {
		if string(in) == s {
			return true
		}
	}
	return false
}
