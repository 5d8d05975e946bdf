// Package multiscale models COSEM-style multiscale image metadata for
// chunked array stores. It converts between axis-labelled scale+translate
// transforms and coordinate grids, builds versioned multiscale group
// attribute documents from collections of labelled arrays, and materializes
// the resulting group specifications into Zarr-format hierarchies.
package multiscale
