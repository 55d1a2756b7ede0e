package source

// Import the default drivers so NewFromURI works without callers wiring
// them up by hand.
import (
	_ "github.com/refgraph/refgraph/drivers/mongodb"
	_ "github.com/refgraph/refgraph/drivers/mysql"
	_ "github.com/refgraph/refgraph/drivers/postgresql"
	_ "github.com/refgraph/refgraph/drivers/sqlite"
)
