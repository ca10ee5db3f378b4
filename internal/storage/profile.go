package storage

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// ProfilesDeclarationFile is the default filename for schema profile declarations
const ProfilesDeclarationFile = "PROFILES.toml"

// SchemaProfile describes how one store lays out its graph: which tables
// hold nodes and edges and what the relevant columns are called. A profile
// is immutable once detected; Invalidate on the engine discards it.
type SchemaProfile struct {
	// Name identifies the profile ("standard", "entity", ...) or is
	// "heuristic" when detection had to guess from column shapes.
	Name string `json:"name" toml:"name"`

	Nodes NodeMapping  `json:"nodes" toml:"nodes"`
	Edges *EdgeMapping `json:"edges,omitempty" toml:"edges,omitempty"`

	// Embedding is set when the store carries an embeddings table.
	Embedding *EmbeddingMapping `json:"embedding,omitempty" toml:"embedding,omitempty"`

	// FTSTable names a native FTS5 index over the node table, when present.
	FTSTable string `json:"ftsTable,omitempty" toml:"fts_table,omitempty"`
}

// NodeMapping binds the node table and its columns.
type NodeMapping struct {
	Table      string `json:"table" toml:"table"`
	ID         string `json:"id" toml:"id"`
	Name       string `json:"name" toml:"name"`
	Type       string `json:"type,omitempty" toml:"type,omitempty"`
	Properties string `json:"properties,omitempty" toml:"properties,omitempty"`
}

// EdgeMapping binds the edge table and its columns.
type EdgeMapping struct {
	Table      string `json:"table" toml:"table"`
	ID         string `json:"id,omitempty" toml:"id,omitempty"`
	Source     string `json:"source" toml:"source"`
	Target     string `json:"target" toml:"target"`
	Type       string `json:"type,omitempty" toml:"type,omitempty"`
	Properties string `json:"properties,omitempty" toml:"properties,omitempty"`
}

// EmbeddingMapping binds the embeddings table and its columns.
type EmbeddingMapping struct {
	Table  string `json:"table" toml:"table"`
	NodeID string `json:"nodeId" toml:"node_id"`
	Vector string `json:"vector" toml:"vector"`
}

// HasEdges reports whether the profile found an edge table.
func (p *SchemaProfile) HasEdges() bool {
	return p.Edges != nil && p.Edges.Table != ""
}

// HasEmbeddings reports whether the profile found an embeddings table.
func (p *SchemaProfile) HasEmbeddings() bool {
	return p.Embedding != nil && p.Embedding.Table != ""
}

// BuiltinProfiles returns the known store layouts, tried in order during
// detection before falling back to the column-shape heuristic.
func BuiltinProfiles() []SchemaProfile {
	return []SchemaProfile{
		{
			Name: "standard",
			Nodes: NodeMapping{
				Table: "nodes", ID: "id", Name: "name",
				Type: "type", Properties: "properties",
			},
			Edges: &EdgeMapping{
				Table: "edges", ID: "id", Source: "source", Target: "target",
				Type: "type", Properties: "properties",
			},
			Embedding: &EmbeddingMapping{
				Table: "embeddings", NodeID: "node_id", Vector: "embedding",
			},
		},
		{
			Name: "entity",
			Nodes: NodeMapping{
				Table: "entities", ID: "entity_id", Name: "entity_name",
				Type: "entity_type", Properties: "attributes",
			},
			Edges: &EdgeMapping{
				Table: "relations", ID: "relation_id", Source: "from_id", Target: "to_id",
				Type: "relation_type", Properties: "properties",
			},
			Embedding: &EmbeddingMapping{
				Table: "entity_embeddings", NodeID: "entity_id", Vector: "vector",
			},
		},
		{
			Name: "concept",
			Nodes: NodeMapping{
				Table: "concepts", ID: "concept_id", Name: "title",
				Type: "kind", Properties: "metadata",
			},
			Edges: &EdgeMapping{
				Table: "links", ID: "link_id", Source: "src", Target: "dst",
				Type: "link_type", Properties: "metadata",
			},
		},
	}
}

// ProfilesFile represents the root structure of PROFILES.toml
type ProfilesFile struct {
	// Version is the schema version
	Version int `toml:"version"`

	// Profiles is the list of declared profiles
	Profiles []SchemaProfile `toml:"profile"`
}

// ParseProfilesFile parses a PROFILES.toml file from the given path.
// Declared profiles are tried before built-ins, so a deployment can pin
// layouts detection would otherwise have to guess.
func ParseProfilesFile(filePath string) (*ProfilesFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read PROFILES.toml: %w", err)
	}

	var profilesFile ProfilesFile
	if err := toml.Unmarshal(data, &profilesFile); err != nil {
		return nil, fmt.Errorf("failed to parse PROFILES.toml: %w", err)
	}

	if profilesFile.Version == 0 {
		profilesFile.Version = 1
	}
	if profilesFile.Version != 1 {
		return nil, fmt.Errorf("unsupported PROFILES.toml version: %d", profilesFile.Version)
	}

	for i, p := range profilesFile.Profiles {
		if err := validateProfile(&p); err != nil {
			return nil, fmt.Errorf("profile %d (%s): %w", i, p.Name, err)
		}
	}

	return &profilesFile, nil
}

func validateProfile(p *SchemaProfile) error {
	if p.Name == "" {
		return fmt.Errorf("missing name")
	}
	if p.Nodes.Table == "" || p.Nodes.ID == "" || p.Nodes.Name == "" {
		return fmt.Errorf("nodes mapping requires table, id, and name")
	}
	if p.Edges != nil && p.Edges.Table != "" {
		if p.Edges.Source == "" || p.Edges.Target == "" {
			return fmt.Errorf("edges mapping requires source and target")
		}
	}
	if p.Embedding != nil && p.Embedding.Table != "" {
		if p.Embedding.NodeID == "" || p.Embedding.Vector == "" {
			return fmt.Errorf("embedding mapping requires node_id and vector")
		}
	}
	return nil
}
