// Package config loads the configuration of the vbind command line tools.
//
// Values come from, in increasing priority: built-in defaults, vbind.yaml in
// the project directory, VBIND_* environment variables and command line
// flags bound with BindFlag. Keys are dotted; the environment variable of a
// key is its upper-cased form with dots and dashes replaced by underscores
// (store.bucket is VBIND_STORE_BUCKET).
//
// # Configuration File Structure
//
//	log:
//	  level: debug
//	  file: .vbind.log
//	  max_size: 10
//	app:
//	  dispatch_buffer: 256
//	  debounce: 200ms
//	serve:
//	  addr: 127.0.0.1:7331
//	store:
//	  kind: s3
//	  bucket: my-snapshots
//	  prefix: scopes/
//	  region: eu-west-1
//	metrics:
//	  namespace: vbind
//
// # Usage
//
//	v := config.NewViper(".")
//	cfg, err := config.Load(v)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger, closer, err := config.NewLogger(cfg.Log, false)
package config
