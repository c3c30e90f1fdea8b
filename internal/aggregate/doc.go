// Package aggregate assembles complete results out of several remote calls:
// Paginate follows continuation references until a paged collection is
// exhausted, and Enrich fans out per-item detail fetches over a bounded
// candidate list while tolerating individual failures.
package aggregate
