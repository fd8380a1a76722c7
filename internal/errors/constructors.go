package errors

// Convenience functions for common error patterns

// Config errors

func ConfigParseError(path string, cause error) *ForgeError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration could not be parsed").
		WithContext("path", path)
}

func SourceRootMissing(root string) *ForgeError {
	return New(CategoryConfig, SeverityFatal, "source root does not exist").
		WithContext("root", root)
}

// Build pipeline errors

func CompileError(sourcePath string, cause error) *ForgeError {
	return Wrap(cause, CategoryCompile, SeverityFatal, "entry failed to bundle").
		WithContext("source", sourcePath)
}

func ArtifactLoadError(artifactPath string, cause error) *ForgeError {
	return Wrap(cause, CategoryLoad, SeverityError, "artifact failed to load").
		WithContext("artifact", artifactPath)
}

func MissingNameError(artifactPath string) *ForgeError {
	return New(CategoryLoad, SeverityError, "target metadata has no name").
		WithContext("artifact", artifactPath)
}

func WorkspaceError(operation string, cause error) *ForgeError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}

func OutputError(path string, cause error) *ForgeError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "output tree operation failed").
		WithContext("path", path)
}

// Secondary step errors

func PageGenerationError(cause error) *ForgeError {
	return Wrap(cause, CategoryPages, SeverityWarning, "catalog page generation failed")
}
