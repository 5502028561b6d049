// Package config loads, normalizes, and validates srcset configuration.
//
// Three sources feed a run:
//   - the TOML config file (srcset.toml or ~/.config/srcset/config.toml) for
//     paths, widths, worker limits, and logging;
//   - the site's own YAML config, of which only images.formats is read;
//   - the environment (plus an optional dotenv file) for object store
//     credentials, captured once into a Remote value by LoadRemote.
//
// Relative paths in the TOML file resolve against paths.site_dir.
package config
