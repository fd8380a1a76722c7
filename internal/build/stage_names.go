package build

// StageName is a strongly-typed identifier for a build stage. All canonical
// stages are declared as constants here for compile-time safety.
type StageName string

// Canonical stage names.
const (
	StagePrepareOutput StageName = "prepare_output"
	StageDiscover      StageName = "discover"
	StageBundle        StageName = "bundle"
	StageCatalog       StageName = "catalog"
	StageAssets        StageName = "assets"
	StagePages         StageName = "pages"
	StageManifest      StageName = "manifest"
)
