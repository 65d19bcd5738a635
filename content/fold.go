package content

import (
	"database/sql/driver"

	"golang.org/x/text/cases"
	"modernc.org/sqlite"
)

// foldFunc is the SQL function ILIKE filters compare through. SQLite's own
// lower() and LIKE only fold ASCII.
const foldFunc = "casefold"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(foldFunc, 1, casefold); err != nil {
		panic(err)
	}
}

// casefold applies Unicode full case folding. A Caser is stateful, so each
// call gets its own.
func casefold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return cases.Fold().String(v), nil
	case []byte:
		return cases.Fold().String(string(v)), nil
	default:
		return v, nil
	}
}
