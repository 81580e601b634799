// Package manifest reads the YAML files the conversion engine keeps in its
// working directory: config.yml, which maps ROM digests to asset layouts, and
// torch.hash.yml, which the engine writes after a successful export.
package manifest
