package sandbox

// legacyFieldNames maps field names emitted by older runner definitions to
// their current form. Normalization folds these so downstream consumers see
// one stable shape.
var legacyFieldNames = map[string]string{
	"runnerName":    "name",
	"runnerVersion": "version",
	"capabilities":  "requires",
}

// NormalizeFields returns a Metadata with legacy field names folded to their
// current equivalents. A current-form key always wins over its legacy alias.
func NormalizeFields(raw map[string]any) Metadata {
	meta := make(Metadata, len(raw))
	for k, v := range raw {
		if current, ok := legacyFieldNames[k]; ok {
			if _, exists := raw[current]; !exists {
				meta[current] = v
			}
			continue
		}
		meta[k] = v
	}
	return meta
}
