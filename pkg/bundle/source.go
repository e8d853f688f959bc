package bundle

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/graphknit/graphknit/pkg/errors"
	"github.com/graphknit/graphknit/pkg/model"
	"github.com/graphknit/graphknit/pkg/rdf"
)

// ReadGraphDir loads a staged graphs directory into a working graph. The
// directory uses the installed bundle layout: an index file mapping
// context identifiers to content hashes, plus one content file per
// distinct hash. Absent graphs yield an empty graph.
func ReadGraphDir(fs afero.Fs, dir string) (*rdf.Graph, error) {
	g := rdf.NewGraph()
	graphsDir := model.GraphsDirectory(dir)
	raw, err := afero.ReadFile(fs, filepath.Join(graphsDir, model.IndexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return g, nil
		}
		return nil, errors.New("cannot read graphs index").Wrap(err)
	}
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		contextID, hash, err := model.ParseIndexRecord(line)
		if err != nil {
			return nil, err
		}
		content, err := afero.ReadFile(fs, filepath.Join(graphsDir, hash+rdf.ContentExt))
		if err != nil {
			return nil, errors.New("cannot read context content").Wrap(err)
		}
		triples, err := rdf.DecodeTriples(bytes.NewReader(content))
		if err != nil {
			return nil, errors.New("corrupt context content").WrapMessage("%s: %v", hash, err)
		}
		for _, t := range triples {
			g.Add(contextID, t)
		}
	}
	return g, nil
}
