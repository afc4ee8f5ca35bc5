// Package data opens backend connections for lookup resolvers.
//
// Drivers register themselves when their package is imported:
//
//	import _ "github.com/elphick/df-eval/data/postgres"
//
// or all at once:
//
//	import _ "github.com/elphick/df-eval/data/all"
//
// SQL drivers (postgres, mysql, sqlite) return *sql.DB and take a
// *config.SQL. The redis cache driver returns *redis.Client from a
// *config.Redis. The mongo driver returns *mongo.Client from a
// *config.Mongo.
package data
