// Package all registers every data driver.
//
//	import _ "github.com/elphick/df-eval/data/all"
package all

import (
	_ "github.com/elphick/df-eval/data/mongodb"
	_ "github.com/elphick/df-eval/data/mysql"
	_ "github.com/elphick/df-eval/data/postgres"
	_ "github.com/elphick/df-eval/data/redis"
	_ "github.com/elphick/df-eval/data/sqlite"
)
