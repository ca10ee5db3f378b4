package query

import (
	"kgq/internal/cache"
	"kgq/internal/intent"
	"kgq/internal/storage"
)

// Weights are the fusion coefficients: alpha scales the vector signal,
// beta the lexical signal, gamma the graph signal, delta the intent
// signal. Any real value is allowed, including zero and negative.
type Weights struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
	Delta float64 `json:"delta"`
}

// QueryOptions parameterize one fused query. Weight and limit fields are
// pointers because zero is meaningful for all of them; nil means "use the
// configured default". A nil Methods slice enables every signal.
type QueryOptions struct {
	Text    string
	Alpha   *float64
	Beta    *float64
	Gamma   *float64
	Delta   *float64
	Limit   *int
	Methods []string
}

// ScoredResult is one ranked node. Signals holds the weighted contribution
// of each signal, so the values sum to Score.
type ScoredResult struct {
	Node    *storage.Node      `json:"node"`
	Score   float64            `json:"score"`
	Signals map[string]float64 `json:"signals"`
}

// QueryResponse is the full result of one fused query.
type QueryResponse struct {
	QueryID    string         `json:"queryId"`
	StoreID    string         `json:"storeId"`
	Text       string         `json:"text"`
	Intent     intent.Intent  `json:"intent"`
	Weights    Weights        `json:"weights"`
	Results    []ScoredResult `json:"results"`
	Total      int            `json:"total"`
	DurationMs float64        `json:"durationMs"`
	Cached     bool           `json:"cached"`
	Warnings   []string       `json:"warnings,omitempty"`
}

// PathStep is one traversed edge in a trace. Forward reports whether the
// edge was crossed source-to-target or against its direction.
type PathStep struct {
	From     string `json:"from"`
	To       string `json:"to"`
	EdgeID   string `json:"edgeId,omitempty"`
	EdgeType string `json:"edgeType,omitempty"`
	Forward  bool   `json:"forward"`
}

// TraceResult reports the shortest undirected path between two nodes.
// Found=false means the target was unreachable within the depth limit; a
// query from a node to itself is Found with zero steps.
type TraceResult struct {
	From   *storage.Node   `json:"from"`
	To     *storage.Node   `json:"to"`
	Found  bool            `json:"found"`
	Length int             `json:"length"`
	Steps  []PathStep      `json:"steps,omitempty"`
	Nodes  []*storage.Node `json:"nodes,omitempty"`
}

// SimilarMatch is one candidate ranked by structural similarity. Breakdown
// holds the weighted neighbor/type/name components.
type SimilarMatch struct {
	Node      *storage.Node      `json:"node"`
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// SimilarResult reports nodes most similar to a target.
type SimilarResult struct {
	Target     *storage.Node  `json:"target"`
	Matches    []SimilarMatch `json:"matches"`
	Candidates int            `json:"candidates"`
}

// ImpactNode is one affected node with its layer risk.
type ImpactNode struct {
	Node   *storage.Node `json:"node"`
	Risk   float64       `json:"risk"`
	Fanout int           `json:"fanout"`
}

// ImpactLayer groups affected nodes by traversal depth.
type ImpactLayer struct {
	Depth int          `json:"depth"`
	Nodes []ImpactNode `json:"nodes"`
}

// ImpactResult is the layered blast radius of a node.
type ImpactResult struct {
	Root      *storage.Node     `json:"root"`
	Direction storage.Direction `json:"direction"`
	Layers    []ImpactLayer     `json:"layers"`
	Total     int               `json:"total"`
}

// ExploreNode is one neighborhood node with its degree ranking.
type ExploreNode struct {
	Node   *storage.Node `json:"node"`
	Degree int           `json:"degree"`
	IsHub  bool          `json:"isHub"`
}

// ExploreLayer groups neighborhood nodes by distance from the root.
type ExploreLayer struct {
	Depth int           `json:"depth"`
	Nodes []ExploreNode `json:"nodes"`
}

// ExploreResult is a hub-ranked neighborhood walk.
type ExploreResult struct {
	Root       *storage.Node  `json:"root"`
	RootDegree int            `json:"rootDegree"`
	Layers     []ExploreLayer `json:"layers"`
	Total      int            `json:"total"`
}

// Bounds constrain one numeric dimension. A nil end is unbounded.
type Bounds = storage.NumericRange

// FilterResult is the outcome of a dimension filter. Via records whether
// the store filtered in SQL or the engine fell back to scanning.
type FilterResult struct {
	Nodes []*storage.Node `json:"nodes"`
	Total int             `json:"total"`
	Via   string          `json:"via"`
}

// ComposeStep is one sub-goal and the node selected for it. Node is nil
// when nothing matched. Connected reports whether the selection is linked
// to the previous step through a composition edge.
type ComposeStep struct {
	Goal      string        `json:"goal"`
	Node      *storage.Node `json:"node,omitempty"`
	Score     float64       `json:"score,omitempty"`
	Connected bool          `json:"connected"`
}

// ComposeResult is a greedy workflow assembled from a goal phrase.
type ComposeResult struct {
	Goal     string        `json:"goal"`
	Steps    []ComposeStep `json:"steps"`
	Complete bool          `json:"complete"`
}

// WantToMatch is one candidate for accomplishing a goal.
type WantToMatch struct {
	Node      *storage.Node      `json:"node"`
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// WantToResult ranks nodes able to serve a stated goal. An empty match
// list is a successful answer.
type WantToResult struct {
	Goal    string        `json:"goal"`
	Matches []WantToMatch `json:"matches"`
}

// Evidence is one fact contributing to a capability verdict.
type Evidence struct {
	Kind   string  `json:"kind"`
	NodeID string  `json:"nodeId"`
	Detail string  `json:"detail"`
	Weight float64 `json:"weight"`
}

// CanItResult answers whether a subject has a capability. Answer is one of
// yes, no, or unknown; an unresolvable subject is reported in-band with
// Answer unknown and a Reason rather than an error.
type CanItResult struct {
	Subject    *storage.Node `json:"subject,omitempty"`
	Capability string        `json:"capability"`
	Answer     string        `json:"answer"`
	Confidence float64       `json:"confidence"`
	Reason     string        `json:"reason,omitempty"`
	Evidence   []Evidence    `json:"evidence,omitempty"`
}

// IntentResult exposes a classification with the intent's edge allowlist
// and boost keywords.
type IntentResult struct {
	Text      string        `json:"text"`
	Intent    intent.Intent `json:"intent"`
	EdgeTypes []string      `json:"edgeTypes,omitempty"`
	Keywords  []string      `json:"keywords,omitempty"`
}

// StoreStats describes one registered store.
type StoreStats struct {
	ID       string `json:"id"`
	Path     string `json:"path,omitempty"`
	Profile  string `json:"profile,omitempty"`
	Ready    bool   `json:"ready"`
	Docs     int    `json:"docs,omitempty"`
	Vocab    int    `json:"vocab,omitempty"`
	Embedder string `json:"embedder,omitempty"`
}

// EngineStats is the engine's counter snapshot.
type EngineStats struct {
	Operations map[string]int64 `json:"operations"`
	Cache      cache.Stats      `json:"cache"`
	IntentMemo int              `json:"intentMemo"`
	Stores     []StoreStats     `json:"stores"`
}
