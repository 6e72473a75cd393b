// Package network provides low-level socket helpers shared by the
// listeners, currently SO_REUSEADDR listen configs for fast rebinds.
package network
