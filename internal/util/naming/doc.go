// Package naming builds the names and tags for everything the tool
// touches at a provider: resource tags, the registered SSH key label,
// numbered instance series and setup log filenames. Consistent naming
// is what lets stray instances be identified from a provider console.
package naming
