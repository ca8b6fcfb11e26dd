package regmap

import "strings"

// Kind discriminates the entity variants carried by a Node.
type Kind string

const (
	KindFramework Kind = "framework"
	KindControl   Kind = "control"
	KindArticle   Kind = "article"
	KindProvision Kind = "provision"
)

// Kinds lists every entity kind in hierarchy order.
var Kinds = []Kind{KindFramework, KindControl, KindArticle, KindProvision}

func (k Kind) Valid() bool {
	switch k {
	case KindFramework, KindControl, KindArticle, KindProvision:
		return true
	default:
		return false
	}
}

func (k Kind) String() string { return string(k) }

// ParseKind accepts the canonical names case-insensitively, plus plurals.
func ParseKind(raw string) (Kind, bool) {
	k := Kind(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "s"))
	return k, k.Valid()
}

// Relation is the typed label on an Edge.
type Relation string

const (
	RelContains   Relation = "contains"
	RelImplements Relation = "implements"
	RelCites      Relation = "cites"
	RelMapsTo     Relation = "maps_to"
	RelRelated    Relation = "related"
)

// Relations lists every known relation.
var Relations = []Relation{RelContains, RelImplements, RelCites, RelMapsTo, RelRelated}

func (r Relation) Valid() bool {
	for _, known := range Relations {
		if r == known {
			return true
		}
	}
	return false
}

// Node is one regulatory entity, whatever its kind.
type Node struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"kind"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Priority    string `json:"priority,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
}

// Edge is a directed, typed relation between two entity ids. Either end may
// reference an id with no matching Node.
type Edge struct {
	ID       string   `json:"id,omitempty"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Relation Relation `json:"relation"`
}

// Roots returns the ids of all framework nodes, in input order.
func Roots(nodes []Node) []string {
	out := make([]string, 0)
	for _, n := range nodes {
		if n.Kind == KindFramework {
			out = append(out, n.ID)
		}
	}
	return out
}
