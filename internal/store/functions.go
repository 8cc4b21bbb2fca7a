package store

import (
	"database/sql/driver"
	"fmt"

	"modernc.org/sqlite"

	"seopilot/internal/reference"
)

// canonicalIDFunc is the SQL name of reference.CanonicalID. Linked mapping
// values are compared through it so a stored "1" excludes video_0001.
const canonicalIDFunc = "canonical_ref_id"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(canonicalIDFunc, 2, canonicalRefID); err != nil {
		panic(fmt.Sprintf("register %s: %v", canonicalIDFunc, err))
	}
}

func canonicalRefID(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	value, ok := sqlText(args[0])
	if !ok {
		return nil, nil
	}
	kind, _ := sqlText(args[1])
	return reference.CanonicalID(value, kind), nil
}

func sqlText(value driver.Value) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case int64:
		return fmt.Sprintf("%d", v), true
	case nil:
		return "", false
	default:
		return fmt.Sprint(v), true
	}
}
