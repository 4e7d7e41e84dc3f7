package core

// RoleManifest captures semantic role metadata for a worker agent.
type RoleManifest struct {
	Role           string
	Responsibility string
	Stages         []Phase
	Constraints    map[string]any
}

// RoleManifestProvider exposes role metadata for an agent.
type RoleManifestProvider interface {
	RoleManifest() RoleManifest
}
