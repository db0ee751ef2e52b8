package fetcher

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/finmetrics/internal/model"
)

// LoadJSON reads a single fact-set document from path. Numbers are decoded
// as json.Number so the analysis normalizer sees them undamaged.
func LoadJSON(path string) (*model.RawFactSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	defer f.Close()

	var set model.RawFactSet
	dec := json.NewDecoder(f)
	dec.UseNumber()
	if err := dec.Decode(&set); err != nil {
		return nil, eris.Wrapf(err, "fetcher: decode %s", path)
	}

	return &set, nil
}

// LoadJSONDir reads every .json file in dir, in name order, and returns the
// fact sets keyed by file base name (without extension).
func LoadJSONDir(dir string) (map[string]*model.RawFactSet, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "fetcher: read dir %s", dir)
	}

	sets := make(map[string]*model.RawFactSet)
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		set, err := LoadJSON(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, nil, err
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		sets[name] = set
		names = append(names, name)
	}
	sort.Strings(names)

	return sets, names, nil
}
