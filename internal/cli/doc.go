// Package cli implements the topsis command: it ranks a local table with the
// in-process pipeline, or forwards it to a running service's /process endpoint.
package cli
