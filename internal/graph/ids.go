package graph

import "strings"

type NodeKind string

const (
	KindRegulation NodeKind = "regulation"
	KindArticle    NodeKind = "article"
	KindSystem     NodeKind = "system"
)

// Wire prefixes. They are shared with persisted positions and external links,
// so they must never change.
const (
	regulationPrefix = "reg-"
	articlePrefix    = "art-"
	systemPrefix     = "sys-"
	impactPrefix     = "impact-"
	hierarchyPrefix  = "hier-"
)

// NodeRef identifies the entity behind a node.
type NodeRef struct {
	Kind NodeKind `json:"kind"`
	ID   string   `json:"id"`
}

// ImpactKey is the natural key of an impact edge.
type ImpactKey struct {
	ArticleID string `json:"articleId"`
	SystemID  string `json:"systemId"`
}

func RegulationNodeID(id string) string { return regulationPrefix + id }
func ArticleNodeID(id string) string    { return articlePrefix + id }
func SystemNodeID(id string) string     { return systemPrefix + id }

// EncodeNodeID returns the wire id for ref, or "" for an unknown kind.
func EncodeNodeID(ref NodeRef) string {
	switch ref.Kind {
	case KindRegulation:
		return RegulationNodeID(ref.ID)
	case KindArticle:
		return ArticleNodeID(ref.ID)
	case KindSystem:
		return SystemNodeID(ref.ID)
	}
	return ""
}

// ParseNodeID decodes a node id. An unrecognized prefix reports false.
func ParseNodeID(id string) (NodeRef, bool) {
	switch {
	case strings.HasPrefix(id, regulationPrefix):
		return NodeRef{Kind: KindRegulation, ID: id[len(regulationPrefix):]}, true
	case strings.HasPrefix(id, articlePrefix):
		return NodeRef{Kind: KindArticle, ID: id[len(articlePrefix):]}, true
	case strings.HasPrefix(id, systemPrefix):
		return NodeRef{Kind: KindSystem, ID: id[len(systemPrefix):]}, true
	}
	return NodeRef{}, false
}

func ImpactEdgeID(articleID, systemID string) string {
	return impactPrefix + articleID + "-" + systemID
}

// ParseImpactEdgeID treats the last hyphen-delimited segment as the system id
// and everything before it as the article id. System ids containing a hyphen
// therefore decode wrongly; this matches the ids already in circulation and is
// kept as is until system ids are guaranteed single-segment.
func ParseImpactEdgeID(id string) (ImpactKey, bool) {
	rest, ok := strings.CutPrefix(id, impactPrefix)
	if !ok {
		return ImpactKey{}, false
	}
	i := strings.LastIndex(rest, "-")
	if i <= 0 || i == len(rest)-1 {
		return ImpactKey{}, false
	}
	return ImpactKey{ArticleID: rest[:i], SystemID: rest[i+1:]}, true
}

// HierarchyEdgeID is never decoded; no edit action targets hierarchy edges.
func HierarchyEdgeID(regulationID, articleID string) string {
	return hierarchyPrefix + regulationID + "-" + articleID
}
