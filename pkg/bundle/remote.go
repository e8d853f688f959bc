package bundle

import (
	"io"

	yaml "gopkg.in/yaml.v2"

	"github.com/graphknit/graphknit/pkg/bundle/status"
)

// AccessConfig describes one way of reaching a remote's bundles. Concrete
// types carry the type-specific connection parameters.
type AccessConfig interface {
	// AccessType tags the config for serialization and for capability
	// matching by loader and uploader factories
	AccessType() string
}

// URLConfig is an access config addressed by a URL
type URLConfig struct {
	URL string `yaml:"url"`
}

func (URLConfig) AccessType() string { return "url" }

// Remote is a named roster of access configs for one source of bundles
type Remote struct {
	Name      string
	Accessors []AccessConfig
}

// NewRemote builds a remote over the given access configs
func NewRemote(name string, accessors ...AccessConfig) *Remote {
	return &Remote{Name: name, Accessors: accessors}
}

// AddConfig appends an access config, skipping exact duplicates
func (r *Remote) AddConfig(ac AccessConfig) {
	for _, existing := range r.Accessors {
		if existing == ac {
			return
		}
	}
	r.Accessors = append(r.Accessors, ac)
}

// GenerateLoaders yields a loader per (accessor, factory) pair where the
// factory can load from the accessor, in registration order
func (r *Remote) GenerateLoaders() []Loader {
	var out []Loader
	for _, ac := range r.Accessors {
		for _, factory := range loaderFactories() {
			if !factory.CanLoadFrom(ac) {
				continue
			}
			l, err := factory.Loader(ac)
			if err != nil {
				continue
			}
			out = append(out, l)
		}
	}
	return out
}

// GenerateUploaders yields an uploader per (accessor, factory) pair where
// the factory can upload to the accessor
func (r *Remote) GenerateUploaders() []Uploader {
	var out []Uploader
	for _, ac := range r.Accessors {
		for _, factory := range uploaderFactories() {
			if !factory.CanUploadTo(ac) {
				continue
			}
			u, err := factory.Uploader(ac)
			if err != nil {
				continue
			}
			out = append(out, u)
		}
	}
	return out
}

type remoteRecord struct {
	Name      string           `yaml:"name"`
	Accessors []accessorRecord `yaml:"accessors,omitempty"`
}

type accessorRecord struct {
	Type string `yaml:"type"`
	URL  string `yaml:"url,omitempty"`
}

// Write serializes the remote such that ReadRemote restores an equal value
func (r *Remote) Write(w io.Writer) error {
	rec := remoteRecord{Name: r.Name}
	for _, ac := range r.Accessors {
		arec := accessorRecord{Type: ac.AccessType()}
		switch c := ac.(type) {
		case URLConfig:
			arec.URL = c.URL
		case *URLConfig:
			arec.URL = c.URL
		default:
			return status.ErrUnknownAccessor.WrapMessage("%q", ac.AccessType())
		}
		rec.Accessors = append(rec.Accessors, arec)
	}
	raw, err := yaml.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = w.Write(raw)
	return err
}

// ReadRemote is the inverse of Write
func ReadRemote(rd io.Reader) (*Remote, error) {
	raw, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	var rec remoteRecord
	if err := yaml.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	r := &Remote{Name: rec.Name}
	for _, arec := range rec.Accessors {
		switch arec.Type {
		case "url":
			r.Accessors = append(r.Accessors, URLConfig{URL: arec.URL})
		default:
			return nil, status.ErrUnknownAccessor.WrapMessage("%q", arec.Type)
		}
	}
	return r, nil
}
