package source

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"

	appLog "maintcal/internal/log"
	"maintcal/internal/model"
)

// IsRemote reports whether ref is an http(s) URL rather than a local path.
func IsRemote(ref string) bool {
	l := strings.ToLower(ref)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Loader resolves a requirement reference (path or URL) into requirements.
type Loader struct {
	fetcher *Fetcher
}

// NewLoader creates a Loader whose remote fetches cache under cacheDir.
func NewLoader(cacheDir string) *Loader {
	return &Loader{fetcher: NewFetcher(cacheDir)}
}

// Load reads, decodes and validates the requirements at ref. The format is
// taken from the file extension.
func (l *Loader) Load(ctx context.Context, ref string) ([]model.Requirement, error) {
	format, err := FormatOf(ref)
	if err != nil {
		return nil, err
	}

	var data []byte
	if IsRemote(ref) {
		res, err := l.fetcher.Fetch(ctx, ref)
		if err != nil {
			return nil, err
		}
		data = res.Body
	} else {
		data, err = os.ReadFile(ref)
		if err != nil {
			return nil, errors.Wrapf(err, "read requirements %s", ref)
		}
	}

	reqs, err := Decode(format, data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode requirements %s", displayRef(ref))
	}
	appLog.Info("requirements loaded", "source", displayRef(ref), "format", string(format), "count", len(reqs))
	return reqs, nil
}

func displayRef(ref string) string {
	if IsRemote(ref) {
		return redactURL(ref)
	}
	return ref
}
