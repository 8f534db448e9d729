package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ReadOverrides reads the flat key/value table in the template's
// .override.toml. A template without the file has no overrides. Values of
// any scalar type are returned in their string form so they can be coerced
// like typed input.
func ReadOverrides(root string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(root, OverrideFile))
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, &Error{Kind: ParseError, File: OverrideFile, Err: err}
	}

	raw := map[string]interface{}{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, &Error{Kind: ParseError, File: OverrideFile, Err: err}
	}

	overrides := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case string:
			overrides[k] = v
		case bool, int64, float64:
			overrides[k] = fmt.Sprint(v)
		default:
			return nil, &Error{Kind: ParseError, File: OverrideFile, Err: fmt.Errorf("value of %q is not a scalar", k)}
		}
	}
	return overrides, nil
}
