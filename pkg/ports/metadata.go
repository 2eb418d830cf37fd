package ports

// MetadataRecord exposes the named numeric variables of a metadata file.
type MetadataRecord interface {
	// Field returns the values of a variable flattened to float64.
	// ok is false when the variable does not exist.
	Field(name string) (values []float64, ok bool)

	// Names lists the variables present in the record.
	Names() []string
}

// MetadataLoader reads metadata files.
type MetadataLoader interface {
	Load(path string) (MetadataRecord, error)
}

// MapRecord is a MetadataRecord backed by a map.
type MapRecord map[string][]float64

// Field implements MetadataRecord.
func (m MapRecord) Field(name string) ([]float64, bool) {
	v, ok := m[name]
	return v, ok
}

// Names implements MetadataRecord.
func (m MapRecord) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	return names
}
