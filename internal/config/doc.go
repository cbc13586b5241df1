// Package config provides layered application configuration.
//
// Configuration is assembled from three sources, lowest precedence first:
//
//  1. compiled-in defaults (Default)
//  2. an optional YAML file (config.yaml, configs/config.yaml, or the
//     path named by SCREENER_CONFIG)
//  3. environment variables with the SCREENER_ prefix
//
// The merged result is validated with struct tags before use, so a
// misconfigured deployment fails at startup rather than at request time.
package config
