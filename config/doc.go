// Package config loads dfeval configuration with Viper.
//
// Configuration is read from a YAML, JSON or TOML file. Environment
// variables prefixed with DFEVAL override file values.
//
//	engine:
//	  max_depth: 64
//	  cache_size: 1024
//	  parallelism: 4
//	logger:
//	  level: 4
//	  format: json
//	  output: stderr
//	resolvers:
//	  - name: tax_rates
//	    kind: file
//	    file:
//	      path: ./rates.csv
//	      key_column: region
//	      value_column: rate
//	    cache:
//	      max_entries: 1000
//	      ttl: 10m
//
// Resolver kinds are map, file, sql, redis, mongo and http. The section
// named after the kind is required.
package config
