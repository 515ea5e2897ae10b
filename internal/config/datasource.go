package config

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Tunnel is an optional SSH jump host for a datasource.
type Tunnel struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password,omitempty"`
}

// Datasource is one saved connection definition.
type Datasource struct {
	Name      string  `yaml:"name"`
	Host      string  `yaml:"host"`
	Port      int     `yaml:"port"`
	Username  string  `yaml:"username,omitempty"`
	Password  string  `yaml:"password,omitempty"`
	DB        int     `yaml:"db,omitempty"`
	UseTLS    bool    `yaml:"tls,omitempty"`
	Delimiter string  `yaml:"delimiter,omitempty"`
	Tunnel    *Tunnel `yaml:"tunnel,omitempty"`
}

type datasourceDoc struct {
	Default     string       `yaml:"default,omitempty"`
	Datasources []Datasource `yaml:"datasources"`
}

// LoadDatasources reads saved definitions. A missing file yields an
// empty list and no default.
func (s *Store) LoadDatasources() ([]Datasource, string, error) {
	b, err := s.readFile(datasourceFile)
	if err != nil {
		return nil, "", fmt.Errorf("config: read datasources: %w", err)
	}
	if len(b) == 0 {
		return nil, "", nil
	}
	var doc datasourceDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, "", fmt.Errorf("config: parse datasources: %w", err)
	}
	return doc.Datasources, doc.Default, nil
}

// SaveDatasources writes definitions sorted by name, with the
// default marker preserved.
func (s *Store) SaveDatasources(list []Datasource, defaultName string) error {
	sorted := append([]Datasource(nil), list...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	b, err := yaml.Marshal(datasourceDoc{Default: defaultName, Datasources: sorted})
	if err != nil {
		return fmt.Errorf("config: encode datasources: %w", err)
	}
	return s.writeFile(datasourceFile, b)
}

// FindDatasource resolves a saved definition by name. An empty name
// resolves the default.
func (s *Store) FindDatasource(name string) (Datasource, error) {
	list, def, err := s.LoadDatasources()
	if err != nil {
		return Datasource{}, err
	}
	if name == "" {
		name = def
	}
	for _, ds := range list {
		if ds.Name == name {
			return ds, nil
		}
	}
	return Datasource{}, fmt.Errorf("%w: %q", ErrNoSuchDatasource, name)
}
