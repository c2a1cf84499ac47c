package driven

// SidecarReader loads user-authored metadata that accompanies a source file.
// A missing sidecar is not an error; implementations return (nil, nil).
type SidecarReader interface {
	// Read returns the sidecar fields for a source path, or nil when no
	// sidecar exists.
	Read(sourcePath string) (map[string]string, error)
}
